package repositories

import "gorm.io/gorm"

// Repositories groups the repositories that share one database handle.
type Repositories struct {
	Users     UserRepository
	Customers CustomerRepository
	Projects  ProjectRepository
}

func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Users:     NewUserRepository(db),
		Customers: NewCustomerRepository(db),
		Projects:  NewProjectRepository(db),
	}
}
