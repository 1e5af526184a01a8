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

type UserInput struct {
	Email string `json:"email" validate:"required,email,max=255"`
	Name  string `json:"name" validate:"required,max=255"`
}

func (in *UserInput) normalize() {
	in.Email = normalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
}

type UserRepository interface {
	Create(ctx context.Context, input UserInput) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Update(ctx context.Context, id uuid.UUID, input UserInput) (*models.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type userRepo struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) Create(ctx context.Context, input UserInput) (*models.User, error) {
	input.normalize()
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	user := models.User{
		Email: input.Email,
		Name:  input.Name,
	}

	if err := r.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, sqlerr.Translate(err, "user")
	}

	utils.InfoLogger.Printf("New user created (ID=%s, email=%s)", user.ID, user.Email)

	return &user, nil
}

func (r *userRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, sqlerr.Translate(err, "user")
	}
	return &user, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error; err != nil {
		return nil, sqlerr.Translate(err, "user")
	}
	return &user, nil
}

func (r *userRepo) List(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	if err := r.db.WithContext(ctx).Order("created_at").Order("id").Find(&users).Error; err != nil {
		return nil, sqlerr.Translate(err, "user")
	}
	return users, nil
}

// Update replaces the user's email and name.
func (r *userRepo) Update(ctx context.Context, id uuid.UUID, input UserInput) (*models.User, error) {
	input.normalize()
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	var user models.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, "id = ?", id).Error; err != nil {
			return sqlerr.Translate(err, "user")
		}

		user.Email = input.Email
		user.Name = input.Name

		if err := tx.Save(&user).Error; err != nil {
			return sqlerr.Translate(err, "user")
		}
		return nil
	})
	if err != nil {
		return nil, sqlerr.Translate(err, "user")
	}

	return &user, nil
}

// Delete removes the user; the database cascades to its customers and their projects.
func (r *userRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.User{}, "id = ?", id)
	if res.Error != nil {
		return sqlerr.Translate(res.Error, "user")
	}
	if res.RowsAffected == 0 {
		return errs.NewNotFound("USER_NOT_FOUND", "User not found", nil)
	}

	utils.InfoLogger.Printf("User deleted (ID=%s)", id)
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
