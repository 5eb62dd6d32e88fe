// Package transport talks to a remote order backend over HTTP.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"agromarket/internal/checkout"
	"agromarket/internal/middleware"
	"agromarket/internal/models"

	"github.com/gofiber/fiber/v2"
)

// CreateOrderPath is appended to the base URL for every order submission.
const CreateOrderPath = "/transactions/create-order"

// ErrNoToken is returned when the context carries no bearer token to act as the buyer.
var ErrNoToken = errors.New("no bearer token to forward to the order backend")

// OrderClient submits checkout batches to a remote order backend.
type OrderClient struct {
	baseURL  string
	timeout  time.Duration
	currency string
}

// NewOrderClient creates a client for the backend at baseURL.
func NewOrderClient(baseURL string, timeout time.Duration, currency string) *OrderClient {
	return &OrderClient{
		baseURL:  strings.TrimRight(baseURL, "/"),
		timeout:  timeout,
		currency: currency,
	}
}

type createOrderResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// ForBuyer returns a Submitter placing orders on behalf of the buyer. The backend identifies the
// buyer from the bearer token in the submission context, so the ids are not sent.
func (c *OrderClient) ForBuyer(_, _ string) checkout.Submitter {
	return checkout.SubmitFunc(func(ctx context.Context, batch models.OrderBatch) (string, error) {
		return c.CreateOrder(ctx, models.NewOrderRequest(batch, c.currency))
	})
}

// CreateOrder posts one order request as the caller whose token ctx carries and returns
// the id assigned by the backend. Non-2xx answers and transport failures are returned as errors.
func (c *OrderClient) CreateOrder(ctx context.Context, req models.OrderRequest) (string, error) {
	timeout, err := c.budget(ctx)
	if err != nil {
		return "", err
	}
	token, ok := middleware.TokenFromContext(ctx)
	if !ok {
		return "", ErrNoToken
	}

	agent := fiber.Post(c.baseURL + CreateOrderPath)
	agent.Set(fiber.HeaderAuthorization, "Bearer "+token)
	agent.JSON(req)
	agent.Timeout(timeout)
	if err := agent.Parse(); err != nil {
		return "", fmt.Errorf("failed to prepare order request: %w", err)
	}

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return "", fmt.Errorf("order request to %s %d failed: %w", req.SellerType, req.SellerID, errors.Join(errs...))
	}

	var resp createOrderResponse
	if len(body) > 0 {
		if err := json.Unmarshal(body, &resp); err != nil && code < 300 {
			return "", fmt.Errorf("failed to decode order response: %w", err)
		}
	}

	if code < 200 || code >= 300 {
		reason := resp.Error
		if reason == "" {
			reason = resp.Message
		}
		if reason == "" {
			reason = strings.TrimSpace(string(body))
		}
		return "", fmt.Errorf("order backend answered %d: %s", code, reason)
	}
	return resp.ID, nil
}

// budget is the configured timeout, shortened to the context deadline when that comes first.
func (c *OrderClient) budget(ctx context.Context) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return 0, context.DeadlineExceeded
		}
		if timeout <= 0 || remaining < timeout {
			timeout = remaining
		}
	}
	return timeout, nil
}
