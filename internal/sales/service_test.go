package sales

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/sangambaral17/TradeMaster/pkg/db/dbtest"
	"github.com/sangambaral17/TradeMaster/pkg/db/models"
	"github.com/sangambaral17/TradeMaster/pkg/enums"
	pkgerrors "github.com/sangambaral17/TradeMaster/pkg/errors"
)

func newTestLedger(t *testing.T) (Ledger, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t, "sales")
	ledger, err := NewLedger(NewRepository(conn))
	require.NoError(t, err)
	return ledger, conn
}

func line(productID int64, name string, qty int, price string) models.SaleItem {
	unit := decimal.RequireFromString(price)
	return models.SaleItem{
		ProductID:   productID,
		ProductName: name,
		Quantity:    qty,
		UnitPrice:   unit,
		TotalPrice:  unit.Mul(decimal.NewFromInt(int64(qty))),
	}
}

func appendSale(t *testing.T, ledger Ledger, conn *gorm.DB, at time.Time, customerID *int64, items ...models.SaleItem) *models.Sale {
	t.Helper()
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.TotalPrice)
	}
	sale := &models.Sale{
		SaleDate:      at,
		TotalAmount:   total,
		CustomerID:    customerID,
		PaymentMethod: enums.PaymentMethodCash,
		Items:         items,
	}
	require.NoError(t, conn.Transaction(func(tx *gorm.DB) error {
		return ledger.Append(context.Background(), tx, sale)
	}))
	return sale
}

func TestAppendEnforcesTotals(t *testing.T) {
	ledger, conn := newTestLedger(t)
	ctx := context.Background()

	bad := &models.Sale{
		SaleDate:      time.Now().UTC(),
		TotalAmount:   decimal.RequireFromString("10.00"),
		PaymentMethod: enums.PaymentMethodCash,
		Items:         []models.SaleItem{line(1, "Pen", 2, "4.00")},
	}
	err := conn.Transaction(func(tx *gorm.DB) error { return ledger.Append(ctx, tx, bad) })
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	empty := &models.Sale{TotalAmount: decimal.Zero, PaymentMethod: enums.PaymentMethodCash}
	err = conn.Transaction(func(tx *gorm.DB) error { return ledger.Append(ctx, tx, empty) })
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	require.Error(t, ledger.Append(ctx, nil, bad))

	var count int64
	require.NoError(t, conn.Model(&models.Sale{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestGetLoadsItemsAndCustomer(t *testing.T) {
	ledger, conn := newTestLedger(t)
	customer := models.Customer{Name: "John Doe"}
	require.NoError(t, conn.Create(&customer).Error)

	sale := appendSale(t, ledger, conn, time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC), &customer.ID,
		line(1, "Laptop", 1, "1200.00"),
		line(3, "Rice (5kg)", 2, "15.00"),
	)

	loaded, err := ledger.Get(context.Background(), sale.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Items, 2)
	require.Equal(t, "Laptop", loaded.Items[0].ProductName)
	require.Equal(t, 3, loaded.ItemCount())
	require.NotNil(t, loaded.Customer)
	require.Equal(t, "John Doe", loaded.Customer.Name)
	require.True(t, loaded.TotalAmount.Equal(decimal.RequireFromString("1230.00")))

	_, err = ledger.Get(context.Background(), sale.ID+1)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestListPaginatesNewestFirst(t *testing.T) {
	ledger, conn := newTestLedger(t)
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		appendSale(t, ledger, conn, base.Add(time.Duration(i)*time.Hour), nil, line(1, "Pen", 1, "2.00"))
	}
	// same timestamp as the newest sale; id breaks the tie
	appendSale(t, ledger, conn, base.Add(4*time.Hour), nil, line(1, "Pen", 1, "2.00"))
	ctx := context.Background()

	first, err := ledger.List(ctx, Filter{Limit: 4})
	require.NoError(t, err)
	require.Len(t, first.Sales, 4)
	require.NotEmpty(t, first.NextCursor)
	require.Greater(t, first.Sales[0].ID, first.Sales[1].ID)
	require.True(t, first.Sales[0].SaleDate.Equal(first.Sales[1].SaleDate))

	second, err := ledger.List(ctx, Filter{Limit: 4, Cursor: first.NextCursor})
	require.NoError(t, err)
	require.Len(t, second.Sales, 2)
	require.Empty(t, second.NextCursor)
	require.True(t, second.Sales[1].SaleDate.Equal(base))

	_, err = ledger.List(ctx, Filter{Cursor: "%%%"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	from := base.Add(2 * time.Hour)
	to := base.Add(time.Hour)
	_, err = ledger.List(ctx, Filter{From: &from, To: &to})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestHistoryAndWindows(t *testing.T) {
	ledger, conn := newTestLedger(t)
	customer := models.Customer{Name: "Jane"}
	require.NoError(t, conn.Create(&customer).Error)

	day := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	appendSale(t, ledger, conn, day.Add(8*time.Hour), nil, line(1, "Pen", 1, "100.00"))
	appendSale(t, ledger, conn, day.Add(12*time.Hour), &customer.ID, line(1, "Pen", 2, "100.00"))
	appendSale(t, ledger, conn, day.Add(30*time.Hour), &customer.ID, line(1, "Pen", 3, "100.00"))
	ctx := context.Background()

	end := day.Add(24 * time.Hour)
	history, err := ledger.History(ctx, &day, &end)
	require.NoError(t, err)
	require.Len(t, history.Sales, 2)
	require.True(t, history.TotalRevenue.Equal(decimal.RequireFromString("300.00")))

	window, err := ledger.Window(ctx, day, day.Add(48*time.Hour))
	require.NoError(t, err)
	require.Len(t, window, 3)
	require.True(t, window[0].SaleDate.Before(window[2].SaleDate))

	mine, err := ledger.ForCustomer(ctx, customer.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
}
