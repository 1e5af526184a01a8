package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/yeremiapane/freelance-app/errs"
	"github.com/yeremiapane/freelance-app/models"
	"github.com/yeremiapane/freelance-app/testutil"
)

type ProjectRepositorySuite struct {
	suite.Suite
	ctx      context.Context
	repos    *Repositories
	customer *models.Customer
}

func (s *ProjectRepositorySuite) SetupTest() {
	s.ctx = context.Background()
	s.repos = NewRepositories(testutil.SetupTestDB(s.T()))

	owner, err := s.repos.Users.Create(s.ctx, UserInput{Email: "owner@example.com", Name: "Owner"})
	s.Require().NoError(err)
	customer, err := s.repos.Customers.Create(s.ctx, owner.ID, CustomerInput{Name: "Acme"})
	s.Require().NoError(err)
	s.customer = customer
}

func TestProjectRepository(t *testing.T) {
	suite.Run(t, new(ProjectRepositorySuite))
}

func price(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func (s *ProjectRepositorySuite) TestCreateAndGet() {
	project, err := s.repos.Projects.Create(s.ctx, s.customer.ID, ProjectInput{
		Name:      "Website",
		Notes:     testutil.StrPtr("WordPress, no plugins"),
		TodoList:  []string{"wireframes", " copy ", "launch"},
		Price:     price("1500.456"),
		TimeSpent: testutil.IntPtr(90),
	})
	s.Require().NoError(err)
	s.NotEqual(uuid.Nil, project.ID)
	s.Equal(s.customer.ID, project.CustomerID)

	stored, err := s.repos.Projects.GetByID(s.ctx, project.ID)
	s.Require().NoError(err)
	s.Equal("Website", stored.Name)
	s.Equal([]string{"wireframes", "copy", "launch"}, []string(stored.TodoList))
	s.Require().True(stored.Price.Valid)
	s.True(stored.Price.Decimal.Equal(decimal.RequireFromString("1500.46")), stored.Price.Decimal.String())
	s.Require().NotNil(stored.TimeSpent)
	s.Equal(90, *stored.TimeSpent)
}

func (s *ProjectRepositorySuite) TestCreateWithOptionalFieldsAbsent() {
	project, err := s.repos.Projects.Create(s.ctx, s.customer.ID, ProjectInput{Name: "Logo"})
	s.Require().NoError(err)

	stored, err := s.repos.Projects.GetByID(s.ctx, project.ID)
	s.Require().NoError(err)
	s.False(stored.Price.Valid)
	s.Nil(stored.TimeSpent)
	s.Nil(stored.Notes)
	s.NotNil(stored.TodoList)
	s.Empty(stored.TodoList)
}

func (s *ProjectRepositorySuite) TestCreateWithUnknownCustomerIsNotFound() {
	_, err := s.repos.Projects.Create(s.ctx, uuid.New(), ProjectInput{Name: "Lost"})
	s.Require().Error(err)
	s.ErrorIs(err, errs.ErrNotFound)

	var appErr *errs.Error
	s.Require().True(errors.As(err, &appErr))
	s.Equal("CUSTOMER_NOT_FOUND", appErr.Code)
}

func (s *ProjectRepositorySuite) TestCreateValidation() {
	_, err := s.repos.Projects.Create(s.ctx, s.customer.ID, ProjectInput{
		TodoList:  []string{"ok", "  "},
		TimeSpent: testutil.IntPtr(-5),
	})
	s.Require().Error(err)
	s.ErrorIs(err, errs.ErrValidation)

	var appErr *errs.Error
	s.Require().True(errors.As(err, &appErr))
	fields := map[string]string{}
	for _, f := range appErr.Fields {
		fields[f.Field] = f.Error
	}
	s.Equal("is required", fields["name"])
	s.Equal("is required", fields["todo_list[1]"])
	s.Contains(fields, "time_spent")

	_, err = s.repos.Projects.Create(s.ctx, s.customer.ID, ProjectInput{Name: "Cheap", Price: price("-1")})
	s.Require().Error(err)
	s.ErrorIs(err, errs.ErrValidation)
	s.Require().True(errors.As(err, &appErr))
	s.Equal("price", appErr.Fields[0].Field)

	_, err = s.repos.Projects.Create(s.ctx, s.customer.ID, ProjectInput{Name: "Pricey", Price: price("100000000")})
	s.Require().Error(err)
	s.ErrorIs(err, errs.ErrValidation)
	s.Require().True(errors.As(err, &appErr))
	s.Equal([]errs.FieldError{{Field: "price", Error: "must be less than 100000000"}}, appErr.Fields)

	// Rounds to 99999999.99 and still fits.
	_, err = s.repos.Projects.Create(s.ctx, s.customer.ID, ProjectInput{Name: "Top", Price: price("99999999.994")})
	s.Require().NoError(err)

	projects, err := s.repos.Projects.ListForCustomer(s.ctx, s.customer.ID)
	s.Require().NoError(err)
	s.Require().Len(projects, 1)
	s.Equal("Top", projects[0].Name)
}

func (s *ProjectRepositorySuite) TestListForCustomer() {
	projects, err := s.repos.Projects.ListForCustomer(s.ctx, s.customer.ID)
	s.Require().NoError(err)
	s.NotNil(projects)
	s.Empty(projects)

	for _, name := range []string{"First", "Second", "Third"} {
		_, err := s.repos.Projects.Create(s.ctx, s.customer.ID, ProjectInput{Name: name})
		s.Require().NoError(err)
	}

	projects, err = s.repos.Projects.ListForCustomer(s.ctx, s.customer.ID)
	s.Require().NoError(err)
	s.Require().Len(projects, 3)
	s.Equal("First", projects[0].Name)
	s.Equal("Third", projects[2].Name)
}

func (s *ProjectRepositorySuite) TestUpdateReplacesFields() {
	project, err := s.repos.Projects.Create(s.ctx, s.customer.ID, ProjectInput{
		Name:     "Website",
		TodoList: []string{"a", "b"},
		Price:    price("100"),
	})
	s.Require().NoError(err)

	time.Sleep(10 * time.Millisecond)

	updated, err := s.repos.Projects.Update(s.ctx, project.ID, ProjectInput{
		Name:     "Website v2",
		TodoList: []string{"c"},
	})
	s.Require().NoError(err)
	s.True(updated.UpdatedAt.After(project.UpdatedAt))

	stored, err := s.repos.Projects.GetByID(s.ctx, project.ID)
	s.Require().NoError(err)
	s.Equal("Website v2", stored.Name)
	s.Equal([]string{"c"}, []string(stored.TodoList))
	s.False(stored.Price.Valid)
	s.Equal(s.customer.ID, stored.CustomerID)

	_, err = s.repos.Projects.Update(s.ctx, uuid.New(), ProjectInput{Name: "Ghost"})
	s.ErrorIs(err, errs.ErrNotFound)
}

func (s *ProjectRepositorySuite) TestAppendTodo() {
	project, err := s.repos.Projects.Create(s.ctx, s.customer.ID, ProjectInput{
		Name:     "Website",
		TodoList: []string{"design", "build"},
	})
	s.Require().NoError(err)

	time.Sleep(10 * time.Millisecond)

	updated, err := s.repos.Projects.AppendTodo(s.ctx, project.ID, "  deploy ")
	s.Require().NoError(err)
	s.Equal([]string{"design", "build", "deploy"}, []string(updated.TodoList))

	stored, err := s.repos.Projects.GetByID(s.ctx, project.ID)
	s.Require().NoError(err)
	s.Equal([]string{"design", "build", "deploy"}, []string(stored.TodoList))
	s.True(stored.UpdatedAt.After(project.UpdatedAt))
	s.WithinDuration(project.CreatedAt, stored.CreatedAt, time.Millisecond)

	_, err = s.repos.Projects.AppendTodo(s.ctx, project.ID, " ")
	s.ErrorIs(err, errs.ErrValidation)

	_, err = s.repos.Projects.AppendTodo(s.ctx, uuid.New(), "anything")
	s.ErrorIs(err, errs.ErrNotFound)
}

func (s *ProjectRepositorySuite) TestAddTimeSpent() {
	project, err := s.repos.Projects.Create(s.ctx, s.customer.ID, ProjectInput{Name: "Website"})
	s.Require().NoError(err)

	time.Sleep(10 * time.Millisecond)

	updated, err := s.repos.Projects.AddTimeSpent(s.ctx, project.ID, 30)
	s.Require().NoError(err)
	s.Require().NotNil(updated.TimeSpent)
	s.Equal(30, *updated.TimeSpent)
	s.True(updated.UpdatedAt.After(project.UpdatedAt))

	updated, err = s.repos.Projects.AddTimeSpent(s.ctx, project.ID, 45)
	s.Require().NoError(err)
	s.Equal(75, *updated.TimeSpent)

	_, err = s.repos.Projects.AddTimeSpent(s.ctx, project.ID, 0)
	s.ErrorIs(err, errs.ErrValidation)

	_, err = s.repos.Projects.AddTimeSpent(s.ctx, uuid.New(), 10)
	s.ErrorIs(err, errs.ErrNotFound)
}

func (s *ProjectRepositorySuite) TestDelete() {
	project, err := s.repos.Projects.Create(s.ctx, s.customer.ID, ProjectInput{Name: "Website"})
	s.Require().NoError(err)

	s.Require().NoError(s.repos.Projects.Delete(s.ctx, project.ID))

	_, err = s.repos.Projects.GetByID(s.ctx, project.ID)
	s.ErrorIs(err, errs.ErrNotFound)

	_, err = s.repos.Customers.GetByID(s.ctx, s.customer.ID, false)
	s.NoError(err)

	s.ErrorIs(s.repos.Projects.Delete(s.ctx, project.ID), errs.ErrNotFound)
}
