package checkout

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/sangambaral17/TradeMaster/internal/catalog"
	"github.com/sangambaral17/TradeMaster/internal/customers"
	"github.com/sangambaral17/TradeMaster/pkg/db/models"
	pkgerrors "github.com/sangambaral17/TradeMaster/pkg/errors"
)

type catalogProducts struct {
	repo *catalog.Repository
}

// CatalogProducts binds the catalog repository to checkout transactions.
func CatalogProducts(repo *catalog.Repository) ProductLoader {
	return catalogProducts{repo: repo}
}

func (c catalogProducts) LoadProducts(ctx context.Context, tx *gorm.DB, ids []int64) ([]models.Product, error) {
	rows, err := c.repo.WithTx(tx).FindProductsByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Persistence(err, "load products")
	}
	return rows, nil
}

type directoryCustomers struct {
	repo *customers.Repository
}

// DirectoryCustomers binds the customer repository to checkout transactions.
func DirectoryCustomers(repo *customers.Repository) CustomerLoader {
	return directoryCustomers{repo: repo}
}

func (d directoryCustomers) LoadCustomer(ctx context.Context, tx *gorm.DB, id int64) (*models.Customer, error) {
	customer, err := d.repo.WithTx(tx).FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found").
				WithDetails(map[string]any{"customer_id": id})
		}
		return nil, pkgerrors.Persistence(err, "load customer")
	}
	return customer, nil
}
