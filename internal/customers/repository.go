package customers

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/sangambaral17/TradeMaster/internal/repo"
	"github.com/sangambaral17/TradeMaster/pkg/db/models"
)

// Repository persists customers.
type Repository struct {
	base repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{base: repo.NewBase(db)}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{base: r.base.Bind(tx)}
}

func (r *Repository) Create(ctx context.Context, customer *models.Customer) error {
	return r.base.DB(ctx).Create(customer).Error
}

func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Customer, error) {
	var customer models.Customer
	if err := r.base.DB(ctx).First(&customer, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

// List matches search against name, email and phone.
func (r *Repository) List(ctx context.Context, search string) ([]models.Customer, error) {
	query := r.base.DB(ctx).Model(&models.Customer{})
	if term := strings.ToLower(strings.TrimSpace(search)); term != "" {
		like := "%" + term + "%"
		query = query.Where(
			"LOWER(name) LIKE ? OR LOWER(COALESCE(email, '')) LIKE ? OR COALESCE(phone, '') LIKE ?",
			like, like, like,
		)
	}
	var customers []models.Customer
	err := query.Order("name ASC").Order("id ASC").Find(&customers).Error
	return customers, err
}

func (r *Repository) Update(ctx context.Context, customer *models.Customer) (bool, error) {
	res := r.base.DB(ctx).
		Model(&models.Customer{}).
		Where("id = ?", customer.ID).
		Updates(map[string]any{
			"name":    customer.Name,
			"email":   customer.Email,
			"phone":   customer.Phone,
			"address": customer.Address,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// DetachSales clears the customer reference on past sales. The name snapshot stays.
func (r *Repository) DetachSales(ctx context.Context, customerID int64) error {
	return r.base.DB(ctx).
		Model(&models.Sale{}).
		Where("customer_id = ?", customerID).
		Update("customer_id", nil).Error
}

func (r *Repository) Delete(ctx context.Context, id int64) (bool, error) {
	res := r.base.DB(ctx).Delete(&models.Customer{}, "id = ?", id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
