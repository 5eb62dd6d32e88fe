package checkout_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"agromarket/internal/cart"
	"agromarket/internal/checkout"
	"agromarket/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func intPtr(v int) *int { return &v }

func product(id, price string, provider int, sellerType string) models.Product {
	return models.Product{
		ID:         id,
		Name:       id,
		Price:      decimal.RequireFromString(price),
		SellerType: sellerType,
		ProviderID: intPtr(provider),
	}
}

// threeSellerCart holds lines from farmer 1, supermarket 1 and farmer 2, interleaved.
func threeSellerCart() *cart.Cart {
	c := cart.New()
	c.AddOrIncrement(product("lettuce", "1.20", 1, models.SellerFarmer), 2)
	c.AddOrIncrement(product("rice", "0.95", 1, models.SellerSupermarket), 4)
	c.AddOrIncrement(product("honey", "6.00", 2, models.SellerFarmer), 1)
	c.AddOrIncrement(product("eggs", "3.10", 1, models.SellerFarmer), 1)
	return c
}

func TestPartition_GroupsBySellerIDAndType(t *testing.T) {
	batches, err := checkout.Partition(threeSellerCart().Lines())
	require.NoError(t, err)
	require.Len(t, batches, 3)

	assert.Equal(t, 1, batches[0].SellerID)
	assert.Equal(t, models.SellerFarmer, batches[0].SellerType)
	require.Len(t, batches[0].Lines, 2)
	assert.Equal(t, "lettuce", batches[0].Lines[0].Product.ID)
	assert.Equal(t, "eggs", batches[0].Lines[1].Product.ID)
	assert.Equal(t, "5.50", batches[0].Total.StringFixed(2))

	// Same provider id, different seller type: separate batch.
	assert.Equal(t, 1, batches[1].SellerID)
	assert.Equal(t, models.SellerSupermarket, batches[1].SellerType)
	assert.Equal(t, "3.80", batches[1].Total.StringFixed(2))

	assert.Equal(t, 2, batches[2].SellerID)
	assert.Equal(t, "6.00", batches[2].Total.StringFixed(2))
}

func TestPartition_Deterministic(t *testing.T) {
	lines := threeSellerCart().Lines()
	first, err := checkout.Partition(lines)
	require.NoError(t, err)
	second, err := checkout.Partition(lines)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestPartition_CompletenessOfTotals(t *testing.T) {
	c := cart.New()
	prices := []string{"0.10", "0.20", "0.30", "1.99", "2.01", "0.33"}
	for i, price := range prices {
		c.AddOrIncrement(product(fmt.Sprintf("p%d", i), price, i%3+1, models.SellerFarmer), i+1)
	}

	batches, err := checkout.Partition(c.Lines())
	require.NoError(t, err)

	sum := decimal.Zero
	lines := 0
	for _, b := range batches {
		sum = sum.Add(b.Total)
		lines += len(b.Lines)
	}
	assert.True(t, sum.Equal(c.TotalPrice()), "batch totals %s != cart total %s", sum, c.TotalPrice())
	assert.Equal(t, c.Len(), lines)
}

func TestPartition_MissingProviderID(t *testing.T) {
	c := threeSellerCart()
	orphan := product("orphan", "1.00", 0, models.SellerFarmer)
	orphan.ProviderID = nil
	c.AddOrIncrement(orphan, 1)

	batches, err := checkout.Partition(c.Lines())
	assert.Nil(t, batches)

	var invalid *checkout.InvalidLineError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "orphan", invalid.ProductID)
}

func TestCheckout_PartialFailure(t *testing.T) {
	c := threeSellerCart()

	var calls int32
	submitter := checkout.SubmitFunc(func(ctx context.Context, batch models.OrderBatch) (string, error) {
		atomic.AddInt32(&calls, 1)
		if batch.SellerType == models.SellerSupermarket {
			return "", errors.New("seller unavailable")
		}
		return fmt.Sprintf("order-%s-%d", batch.SellerType, batch.SellerID), nil
	})

	outcomes, err := checkout.NewCoordinator(submitter, 0).Checkout(context.Background(), c)
	require.NoError(t, err)
	require.Len(t, outcomes, 3)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))

	assert.True(t, outcomes[0].Submitted())
	assert.Equal(t, "order-farmer-1", outcomes[0].OrderID)

	assert.False(t, outcomes[1].Submitted())
	assert.Equal(t, models.OutcomeFailed, outcomes[1].Status)
	assert.Equal(t, "seller unavailable", outcomes[1].Reason)
	assert.Empty(t, outcomes[1].OrderID)

	assert.True(t, outcomes[2].Submitted())
	assert.Equal(t, "order-farmer-2", outcomes[2].OrderID)

	assert.True(t, c.IsEmpty(), "cart is cleared even when a batch fails")
}

func TestCheckout_EmptyCart(t *testing.T) {
	submitter := checkout.SubmitFunc(func(ctx context.Context, batch models.OrderBatch) (string, error) {
		t.Fatal("nothing should be submitted")
		return "", nil
	})

	outcomes, err := checkout.NewCoordinator(submitter, 1).Checkout(context.Background(), cart.New())
	assert.ErrorIs(t, err, checkout.ErrEmptyCart)
	assert.Nil(t, outcomes)
}

func TestCheckout_InvalidLineSubmitsNothing(t *testing.T) {
	c := threeSellerCart()
	orphan := product("orphan", "1.00", 0, models.SellerFarmer)
	orphan.ProviderID = nil
	c.AddOrIncrement(orphan, 1)

	var calls int32
	submitter := checkout.SubmitFunc(func(ctx context.Context, batch models.OrderBatch) (string, error) {
		atomic.AddInt32(&calls, 1)
		return "id", nil
	})

	_, err := checkout.NewCoordinator(submitter, 0).Checkout(context.Background(), c)
	var invalid *checkout.InvalidLineError
	assert.ErrorAs(t, err, &invalid)
	assert.Zero(t, atomic.LoadInt32(&calls))
	assert.Equal(t, 4, c.Len(), "cart is untouched on validation failure")
}

func TestCheckout_EmptyOrderIDIsAFailure(t *testing.T) {
	c := cart.New()
	c.AddOrIncrement(product("honey", "6.00", 2, models.SellerFarmer), 1)

	submitter := checkout.SubmitFunc(func(ctx context.Context, batch models.OrderBatch) (string, error) {
		return "", nil
	})

	outcomes, err := checkout.NewCoordinator(submitter, 1).Checkout(context.Background(), c)
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, models.OutcomeFailed, outcomes[0].Status)
	assert.Contains(t, outcomes[0].Reason, "no order id")
}

func TestCheckout_PanickingSubmitterFailsOnlyItsBatch(t *testing.T) {
	c := threeSellerCart()

	submitter := checkout.SubmitFunc(func(ctx context.Context, batch models.OrderBatch) (string, error) {
		if batch.SellerID == 2 {
			panic("connection reset")
		}
		return "ok", nil
	})

	outcomes, err := checkout.NewCoordinator(submitter, 0).Checkout(context.Background(), c)
	require.NoError(t, err)
	require.Len(t, outcomes, 3)
	assert.True(t, outcomes[0].Submitted())
	assert.True(t, outcomes[1].Submitted())
	assert.False(t, outcomes[2].Submitted())
	assert.Contains(t, outcomes[2].Reason, "connection reset")
}

func TestCheckout_WaitsForSlowBatches(t *testing.T) {
	c := threeSellerCart()

	var mu sync.Mutex
	var finished []int
	submitter := checkout.SubmitFunc(func(ctx context.Context, batch models.OrderBatch) (string, error) {
		if batch.SellerID == 1 && batch.SellerType == models.SellerFarmer {
			time.Sleep(50 * time.Millisecond)
		}
		mu.Lock()
		finished = append(finished, batch.SellerID)
		mu.Unlock()
		return "ok", nil
	})

	outcomes, err := checkout.NewCoordinator(submitter, 0).Checkout(context.Background(), c)
	require.NoError(t, err)
	assert.Len(t, finished, 3)
	// Outcomes keep partition order regardless of completion order.
	assert.Equal(t, models.SellerFarmer, outcomes[0].Batch.SellerType)
	assert.Equal(t, 1, outcomes[0].Batch.SellerID)
}

func TestCoordinator_RespectsConcurrencyLimit(t *testing.T) {
	var batches []models.OrderBatch
	for i := 1; i <= 8; i++ {
		batches = append(batches, models.OrderBatch{SellerID: i, SellerType: models.SellerFarmer})
	}

	var inFlight, peak int32
	submitter := checkout.SubmitFunc(func(ctx context.Context, batch models.OrderBatch) (string, error) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return fmt.Sprintf("order-%d", batch.SellerID), nil
	})

	outcomes := checkout.NewCoordinator(submitter, 2).SubmitAll(context.Background(), batches)
	require.Len(t, outcomes, 8)
	for i, o := range outcomes {
		assert.Equal(t, fmt.Sprintf("order-%d", i+1), o.OrderID)
	}
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}
