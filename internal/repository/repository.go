package repository

import (
	"context"

	"autodealer/inventory/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for the repository layer.
var (
	ErrNotFound  = RepositoryError("not found")
	ErrDuplicate = RepositoryError("duplicate key")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// AdminRepository defines the interface for interacting with admin accounts.
type AdminRepository interface {
	// Create returns ErrDuplicate when the email is taken.
	Create(ctx context.Context, admin *domain.Admin) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.Admin, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Admin, error)
	// List returns one page of admins, newest first, and the total count.
	List(ctx context.Context, page domain.PageRequest) ([]domain.Admin, int64, error)
}

// CarRepository defines the interface for interacting with car listings.
type CarRepository interface {
	// Create returns ErrDuplicate when the VIN is taken.
	Create(ctx context.Context, car *domain.Car) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Car, error)
	List(ctx context.Context, filter domain.CarFilter, page domain.PageRequest) ([]domain.Car, int64, error)
	// Update replaces the stored car. Returns ErrDuplicate when the new VIN is taken.
	Update(ctx context.Context, car *domain.Car) error
	IncrementViews(ctx context.Context, id primitive.ObjectID) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	// CountByAdmin returns the number of cars owned by each of the given admins.
	CountByAdmin(ctx context.Context, adminIDs []primitive.ObjectID) (map[primitive.ObjectID]int64, error)
}

// PartRepository defines the interface for interacting with spare-part listings.
type PartRepository interface {
	Create(ctx context.Context, part *domain.Part) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Part, error)
	List(ctx context.Context, filter domain.PartFilter, page domain.PageRequest) ([]domain.Part, int64, error)
	Update(ctx context.Context, part *domain.Part) error
	IncrementViews(ctx context.Context, id primitive.ObjectID) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}
