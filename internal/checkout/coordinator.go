// Package checkout turns a cart into one order per seller and submits them independently.
//
// Validation failures (empty cart, a line without a seller) abort before anything is sent.
// Once submission starts, every batch is attempted and reported on its own: a failed
// batch neither stops its siblings nor rolls them back, and nothing is retried.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"

	"agromarket/internal/models"

	"golang.org/x/sync/errgroup"
)

// Submitter places the order for one batch and returns the id the order backend assigned.
type Submitter interface {
	SubmitOrder(ctx context.Context, batch models.OrderBatch) (string, error)
}

// SubmitFunc adapts a function to the Submitter interface.
type SubmitFunc func(ctx context.Context, batch models.OrderBatch) (string, error)

// SubmitOrder calls f.
func (f SubmitFunc) SubmitOrder(ctx context.Context, batch models.OrderBatch) (string, error) {
	return f(ctx, batch)
}

// Cart is the view of a cart the coordinator needs.
type Cart interface {
	Lines() []models.CartLine
	Clear()
}

// Coordinator runs checkouts against a Submitter.
type Coordinator struct {
	submitter     Submitter
	maxConcurrent int
}

// NewCoordinator creates a Coordinator. maxConcurrent bounds parallel submissions;
// 1 submits batches one after another and values below 1 mean no bound.
func NewCoordinator(submitter Submitter, maxConcurrent int) *Coordinator {
	return &Coordinator{
		submitter:     submitter,
		maxConcurrent: maxConcurrent,
	}
}

// Checkout partitions the cart by seller, submits every batch, waits for all of them,
// then clears the cart. It returns one outcome per batch in partition order.
// ErrEmptyCart and *InvalidLineError are returned before any submission and leave the cart untouched.
func (c *Coordinator) Checkout(ctx context.Context, cart Cart) ([]models.OrderOutcome, error) {
	lines := cart.Lines()
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	batches, err := Partition(lines)
	if err != nil {
		return nil, err
	}

	outcomes := c.SubmitAll(ctx, batches)
	cart.Clear()
	return outcomes, nil
}

// SubmitAll submits each batch and collects the outcomes in batch order.
func (c *Coordinator) SubmitAll(ctx context.Context, batches []models.OrderBatch) []models.OrderOutcome {
	outcomes := make([]models.OrderOutcome, len(batches))

	var g errgroup.Group
	if c.maxConcurrent > 0 {
		g.SetLimit(c.maxConcurrent)
	}
	for i, batch := range batches {
		i, batch := i, batch
		g.Go(func() error {
			// Each goroutine owns outcomes[i]; returning nil keeps the group from cancelling siblings.
			outcomes[i] = c.submit(ctx, batch)
			return nil
		})
	}
	_ = g.Wait()

	submitted := 0
	for _, o := range outcomes {
		if o.Submitted() {
			submitted++
		}
	}
	log.Printf("Checkout finished: %d of %d orders submitted", submitted, len(outcomes))
	return outcomes
}

func (c *Coordinator) submit(ctx context.Context, batch models.OrderBatch) (outcome models.OrderOutcome) {
	outcome.Batch = batch
	defer func() {
		if r := recover(); r != nil {
			outcome.Status = models.OutcomeFailed
			outcome.OrderID = ""
			outcome.Reason = fmt.Sprintf("order submission panicked: %v", r)
			log.Printf("Order for %s %d panicked: %v", batch.SellerType, batch.SellerID, r)
		}
	}()

	orderID, err := c.submitter.SubmitOrder(ctx, batch)
	if err == nil && orderID == "" {
		err = errors.New("order backend returned no order id")
	}
	if err != nil {
		log.Printf("Order for %s %d failed: %v", batch.SellerType, batch.SellerID, err)
		outcome.Status = models.OutcomeFailed
		outcome.Reason = err.Error()
		return outcome
	}

	log.Printf("Order %s submitted for %s %d (total %s)", orderID, batch.SellerType, batch.SellerID, batch.Total.StringFixed(2))
	outcome.Status = models.OutcomeSubmitted
	outcome.OrderID = orderID
	return outcome
}
