package customers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/sangambaral17/TradeMaster/pkg/db/models"
	pkgerrors "github.com/sangambaral17/TradeMaster/pkg/errors"
)

var validate = validator.New()

// Service manages the customer directory.
type Service interface {
	Create(ctx context.Context, input Input) (*models.Customer, error)
	Get(ctx context.Context, id int64) (*models.Customer, error)
	List(ctx context.Context, search string) ([]models.Customer, error)
	Update(ctx context.Context, id int64, input Input) (*models.Customer, error)
	Delete(ctx context.Context, id int64) error
}

// Input carries the editable customer fields.
type Input struct {
	Name    string
	Email   *string
	Phone   *string
	Address *string
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo *Repository
	tx   txRunner
}

func NewService(repo *Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("customer repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) Create(ctx context.Context, input Input) (*models.Customer, error) {
	customer := &models.Customer{}
	if err := applyInput(customer, input); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, customer); err != nil {
		return nil, pkgerrors.Persistence(err, "create customer")
	}
	return customer, nil
}

func (s *service) Get(ctx context.Context, id int64) (*models.Customer, error) {
	customer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Persistence(err, "load customer")
	}
	return customer, nil
}

func (s *service) List(ctx context.Context, search string) ([]models.Customer, error) {
	customers, err := s.repo.List(ctx, search)
	if err != nil {
		return nil, pkgerrors.Persistence(err, "list customers")
	}
	return customers, nil
}

func (s *service) Update(ctx context.Context, id int64, input Input) (*models.Customer, error) {
	customer, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyInput(customer, input); err != nil {
		return nil, err
	}
	ok, err := s.repo.Update(ctx, customer)
	if err != nil {
		return nil, pkgerrors.Persistence(err, "update customer")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
	}
	return customer, nil
}

// Delete removes the customer; recorded sales keep their name snapshot.
func (s *service) Delete(ctx context.Context, id int64) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := txRepo.DetachSales(ctx, id); err != nil {
			return pkgerrors.Persistence(err, "detach customer sales")
		}
		deleted, err := txRepo.Delete(ctx, id)
		if err != nil {
			return pkgerrors.Persistence(err, "delete customer")
		}
		if !deleted {
			return pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil
	})
}

func applyInput(customer *models.Customer, input Input) error {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer name is required")
	}
	if len([]rune(name)) > 100 {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer name must be at most 100 characters")
	}
	email := optional(input.Email)
	if email != nil {
		if err := validate.Var(*email, "email,max=254"); err != nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "email is invalid")
		}
	}
	phone := optional(input.Phone)
	if phone != nil && len(*phone) > 20 {
		return pkgerrors.New(pkgerrors.CodeValidation, "phone must be at most 20 characters")
	}

	customer.Name = name
	customer.Email = email
	customer.Phone = phone
	customer.Address = optional(input.Address)
	return nil
}

func optional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
