package repositories

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yeremiapane/freelance-app/errs"
	"github.com/yeremiapane/freelance-app/models"
	"github.com/yeremiapane/freelance-app/sqlerr"
	"github.com/yeremiapane/freelance-app/utils"
	"github.com/yeremiapane/freelance-app/validation"
)

// CustomerInput holds the mutable customer fields. Optional fields that are
// nil or blank are stored as NULL.
type CustomerInput struct {
	Name    string  `json:"name" validate:"required,max=255"`
	Phone   *string `json:"phone" validate:"omitempty,max=50"`
	Address *string `json:"address"`
	Email   *string `json:"email" validate:"omitempty,email,max=255"`
	Notes   *string `json:"notes"`
}

func (in *CustomerInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = trimOptional(in.Phone)
	in.Address = trimOptional(in.Address)
	in.Email = trimOptional(in.Email)
	in.Notes = trimOptional(in.Notes)
}

type CustomerRepository interface {
	Create(ctx context.Context, ownerID uuid.UUID, input CustomerInput) (*models.Customer, error)
	GetByID(ctx context.Context, id uuid.UUID, includeProjects bool) (*models.Customer, error)
	ListForUser(ctx context.Context, ownerID uuid.UUID, includeProjects bool) ([]models.Customer, error)
	Update(ctx context.Context, id uuid.UUID, input CustomerInput) (*models.Customer, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type customerRepo struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) CustomerRepository {
	return &customerRepo{db: db}
}

// Create inserts a customer owned by ownerID. It fails with NotFound when the
// owner does not exist.
func (r *customerRepo) Create(ctx context.Context, ownerID uuid.UUID, input CustomerInput) (*models.Customer, error) {
	input.normalize()
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	customer := models.Customer{
		Name:    input.Name,
		Phone:   input.Phone,
		Address: input.Address,
		Email:   input.Email,
		Notes:   input.Notes,
		UserID:  ownerID,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Cek apakah owner ada
		var owner models.User
		if err := tx.Select("id").First(&owner, "id = ?", ownerID).Error; err != nil {
			return sqlerr.Translate(err, "user")
		}

		if err := tx.Create(&customer).Error; err != nil {
			return sqlerr.Translate(err, "customer")
		}
		return nil
	})
	if err != nil {
		return nil, sqlerr.Translate(err, "customer")
	}

	utils.InfoLogger.Printf("New customer created (ID=%s) for UserID=%s", customer.ID, ownerID)

	return &customer, nil
}

func (r *customerRepo) GetByID(ctx context.Context, id uuid.UUID, includeProjects bool) (*models.Customer, error) {
	var customer models.Customer

	q := r.db.WithContext(ctx)
	if includeProjects {
		q = q.Preload("Projects", orderByCreation)
	}

	if err := q.First(&customer, "id = ?", id).Error; err != nil {
		return nil, sqlerr.Translate(err, "customer")
	}
	return &customer, nil
}

// ListForUser returns the owner's customers, oldest first. An owner without
// customers, or an unknown owner, yields an empty slice.
func (r *customerRepo) ListForUser(ctx context.Context, ownerID uuid.UUID, includeProjects bool) ([]models.Customer, error) {
	customers := []models.Customer{}

	q := r.db.WithContext(ctx).Where("user_id = ?", ownerID)
	if includeProjects {
		q = q.Preload("Projects", orderByCreation)
	}

	if err := orderByCreation(q).Find(&customers).Error; err != nil {
		return nil, sqlerr.Translate(err, "customer")
	}
	return customers, nil
}

// Update replaces every mutable field of the customer. The owner is kept.
func (r *customerRepo) Update(ctx context.Context, id uuid.UUID, input CustomerInput) (*models.Customer, error) {
	input.normalize()
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	var customer models.Customer
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&customer, "id = ?", id).Error; err != nil {
			return sqlerr.Translate(err, "customer")
		}

		customer.Name = input.Name
		customer.Phone = input.Phone
		customer.Address = input.Address
		customer.Email = input.Email
		customer.Notes = input.Notes

		if err := tx.Save(&customer).Error; err != nil {
			return sqlerr.Translate(err, "customer")
		}
		return nil
	})
	if err != nil {
		return nil, sqlerr.Translate(err, "customer")
	}

	return &customer, nil
}

// Delete removes the customer and, through the foreign key, its projects.
func (r *customerRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.Customer{}, "id = ?", id)
	if res.Error != nil {
		return sqlerr.Translate(res.Error, "customer")
	}
	if res.RowsAffected == 0 {
		return errs.NewNotFound("CUSTOMER_NOT_FOUND", "Customer not found", nil)
	}

	utils.InfoLogger.Printf("Customer deleted (ID=%s)", id)
	return nil
}

func orderByCreation(db *gorm.DB) *gorm.DB {
	return db.Order("created_at").Order("id")
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
