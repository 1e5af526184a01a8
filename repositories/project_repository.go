package repositories

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yeremiapane/freelance-app/errs"
	"github.com/yeremiapane/freelance-app/models"
	"github.com/yeremiapane/freelance-app/sqlerr"
	"github.com/yeremiapane/freelance-app/utils"
	"github.com/yeremiapane/freelance-app/validation"
)

// maxPrice is the first value that no longer fits decimal(10,2).
var maxPrice = decimal.New(1, 8)

// ProjectInput holds the mutable project fields. Price is rounded to cents.
type ProjectInput struct {
	Name      string           `json:"name" validate:"required,max=255"`
	Notes     *string          `json:"notes"`
	TodoList  []string         `json:"todo_list" validate:"dive,required"`
	Price     *decimal.Decimal `json:"price"`
	TimeSpent *int             `json:"time_spent" validate:"omitempty,gte=0"`
}

func (in *ProjectInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Notes = trimOptional(in.Notes)

	todos := make([]string, 0, len(in.TodoList))
	for _, item := range in.TodoList {
		todos = append(todos, strings.TrimSpace(item))
	}
	in.TodoList = todos

	if in.Price != nil {
		rounded := in.Price.Round(2)
		in.Price = &rounded
	}
}

func (in ProjectInput) validate() error {
	if err := validation.Struct(in); err != nil {
		return err
	}
	if in.Price == nil {
		return nil
	}

	switch {
	case in.Price.IsNegative():
		return errs.NewValidation("", "Validation failed", []errs.FieldError{
			{Field: "price", Error: "must be greater than or equal to 0"},
		}, nil)
	case in.Price.GreaterThanOrEqual(maxPrice):
		return errs.NewValidation("", "Validation failed", []errs.FieldError{
			{Field: "price", Error: "must be less than " + maxPrice.String()},
		}, nil)
	}
	return nil
}

func (in ProjectInput) apply(p *models.Project) {
	p.Name = in.Name
	p.Notes = in.Notes
	p.TodoList = datatypes.JSONSlice[string](in.TodoList)
	p.TimeSpent = in.TimeSpent
	p.Price = decimal.NullDecimal{}
	if in.Price != nil {
		p.Price = decimal.NewNullDecimal(*in.Price)
	}
}

type ProjectRepository interface {
	Create(ctx context.Context, customerID uuid.UUID, input ProjectInput) (*models.Project, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error)
	ListForCustomer(ctx context.Context, customerID uuid.UUID) ([]models.Project, error)
	Update(ctx context.Context, id uuid.UUID, input ProjectInput) (*models.Project, error)
	Delete(ctx context.Context, id uuid.UUID) error
	AppendTodo(ctx context.Context, id uuid.UUID, item string) (*models.Project, error)
	AddTimeSpent(ctx context.Context, id uuid.UUID, minutes int) (*models.Project, error)
}

type projectRepo struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &projectRepo{db: db}
}

// Create inserts a project for customerID. It fails with NotFound when the
// customer does not exist.
func (r *projectRepo) Create(ctx context.Context, customerID uuid.UUID, input ProjectInput) (*models.Project, error) {
	input.normalize()
	if err := input.validate(); err != nil {
		return nil, err
	}

	project := models.Project{CustomerID: customerID}
	input.apply(&project)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var customer models.Customer
		if err := tx.Select("id").First(&customer, "id = ?", customerID).Error; err != nil {
			return sqlerr.Translate(err, "customer")
		}

		if err := tx.Create(&project).Error; err != nil {
			return sqlerr.Translate(err, "project")
		}
		return nil
	})
	if err != nil {
		return nil, sqlerr.Translate(err, "project")
	}

	utils.InfoLogger.Printf("New project created (ID=%s) for CustomerID=%s", project.ID, customerID)

	return &project, nil
}

func (r *projectRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	var project models.Project
	if err := r.db.WithContext(ctx).First(&project, "id = ?", id).Error; err != nil {
		return nil, sqlerr.Translate(err, "project")
	}
	return &project, nil
}

func (r *projectRepo) ListForCustomer(ctx context.Context, customerID uuid.UUID) ([]models.Project, error) {
	projects := []models.Project{}

	q := r.db.WithContext(ctx).Where("customer_id = ?", customerID)
	if err := orderByCreation(q).Find(&projects).Error; err != nil {
		return nil, sqlerr.Translate(err, "project")
	}
	return projects, nil
}

// Update replaces every mutable field of the project, todo list included.
func (r *projectRepo) Update(ctx context.Context, id uuid.UUID, input ProjectInput) (*models.Project, error) {
	input.normalize()
	if err := input.validate(); err != nil {
		return nil, err
	}

	var project models.Project
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&project, "id = ?", id).Error; err != nil {
			return sqlerr.Translate(err, "project")
		}

		input.apply(&project)

		if err := tx.Save(&project).Error; err != nil {
			return sqlerr.Translate(err, "project")
		}
		return nil
	})
	if err != nil {
		return nil, sqlerr.Translate(err, "project")
	}

	return &project, nil
}

func (r *projectRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.Project{}, "id = ?", id)
	if res.Error != nil {
		return sqlerr.Translate(res.Error, "project")
	}
	if res.RowsAffected == 0 {
		return errs.NewNotFound("PROJECT_NOT_FOUND", "Project not found", nil)
	}

	utils.InfoLogger.Printf("Project deleted (ID=%s)", id)
	return nil
}

// AppendTodo adds item at the end of the project's todo list.
func (r *projectRepo) AppendTodo(ctx context.Context, id uuid.UUID, item string) (*models.Project, error) {
	item = strings.TrimSpace(item)
	if item == "" {
		return nil, errs.NewValidation("", "Validation failed", []errs.FieldError{
			{Field: "todo", Error: "is required"},
		}, nil)
	}

	var project models.Project
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx
		// SQLite has no row locks, its write lock already serialises this.
		if tx.Dialector.Name() != "sqlite" {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		if err := q.First(&project, "id = ?", id).Error; err != nil {
			return sqlerr.Translate(err, "project")
		}

		project.TodoList = append(project.TodoList, item)

		if err := tx.Model(&project).Update("todo_list", project.TodoList).Error; err != nil {
			return sqlerr.Translate(err, "project")
		}
		return nil
	})
	if err != nil {
		return nil, sqlerr.Translate(err, "project")
	}

	return &project, nil
}

// AddTimeSpent adds minutes to the project's time_spent. A project with no
// time recorded yet starts from zero.
func (r *projectRepo) AddTimeSpent(ctx context.Context, id uuid.UUID, minutes int) (*models.Project, error) {
	if minutes <= 0 {
		return nil, errs.NewValidation("", "Validation failed", []errs.FieldError{
			{Field: "minutes", Error: "must be greater than 0"},
		}, nil)
	}

	var project models.Project
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Project{}).
			Where("id = ?", id).
			Update("time_spent", gorm.Expr("COALESCE(time_spent, 0) + ?", minutes))
		if res.Error != nil {
			return sqlerr.Translate(res.Error, "project")
		}
		if res.RowsAffected == 0 {
			return errs.NewNotFound("PROJECT_NOT_FOUND", "Project not found", nil)
		}

		if err := tx.First(&project, "id = ?", id).Error; err != nil {
			return sqlerr.Translate(err, "project")
		}
		return nil
	})
	if err != nil {
		return nil, sqlerr.Translate(err, "project")
	}

	return &project, nil
}
