package checkout

import (
	"errors"
	"fmt"

	"agromarket/internal/models"

	"github.com/shopspring/decimal"
)

// ErrEmptyCart is returned when checkout is attempted on a cart with no lines.
var ErrEmptyCart = errors.New("cart is empty")

// InvalidLineError reports a cart line whose product has no seller to send the order to.
type InvalidLineError struct {
	ProductID string
}

func (e *InvalidLineError) Error() string {
	return fmt.Sprintf("cart line for product %s has no provider id", e.ProductID)
}

type sellerKey struct {
	id   int
	kind string
}

// Partition groups lines into one batch per (provider id, seller type), in first-seen order.
// Lines keep their relative order inside each batch. A line without a provider id fails the whole call.
func Partition(lines []models.CartLine) ([]models.OrderBatch, error) {
	index := make(map[sellerKey]int)
	var batches []models.OrderBatch

	for _, line := range lines {
		if line.Product.ProviderID == nil {
			return nil, &InvalidLineError{ProductID: line.Product.ID}
		}
		key := sellerKey{id: *line.Product.ProviderID, kind: line.Product.SellerType}

		i, ok := index[key]
		if !ok {
			i = len(batches)
			index[key] = i
			batches = append(batches, models.OrderBatch{
				SellerID:   key.id,
				SellerType: key.kind,
				Total:      decimal.Zero,
			})
		}
		batches[i].Lines = append(batches[i].Lines, line)
		batches[i].Total = batches[i].Total.Add(line.TotalPrice())
	}
	return batches, nil
}
