package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"autodealer/inventory/internal/domain"
	"autodealer/inventory/internal/logging"
	"autodealer/inventory/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrCarNotFound  = errors.New("car not found")
	ErrDuplicateVIN = errors.New("car with this VIN already exists")
)

// CarService manages car listings.
type CarService interface {
	ListCars(ctx context.Context, filter domain.CarFilter, page domain.PageRequest) ([]domain.Car, domain.Pagination, error)
	// GetCar returns a car and counts the view.
	GetCar(ctx context.Context, id primitive.ObjectID) (*domain.Car, error)
	CreateCar(ctx context.Context, adminID primitive.ObjectID, car *domain.Car) (*domain.Car, error)
	UpdateCar(ctx context.Context, id primitive.ObjectID, patch domain.CarPatch) (*domain.Car, error)
	DeleteCar(ctx context.Context, id primitive.ObjectID) error
}

type carService struct {
	carRepo repository.CarRepository
	logger  *slog.Logger
}

// NewCarService creates a new instance of carService.
func NewCarService(carRepo repository.CarRepository, logger *slog.Logger) CarService {
	return &carService{
		carRepo: carRepo,
		logger:  logging.OrDiscard(logger).With("component", "cars"),
	}
}

func (s *carService) ListCars(ctx context.Context, filter domain.CarFilter, page domain.PageRequest) ([]domain.Car, domain.Pagination, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, domain.Pagination{}, fmt.Errorf("%w: unknown status %q", ErrValidation, filter.Status)
	}
	cars, total, err := s.carRepo.List(ctx, filter, page)
	if err != nil {
		return nil, domain.Pagination{}, err
	}
	return cars, domain.NewPagination(page, total), nil
}

func (s *carService) GetCar(ctx context.Context, id primitive.ObjectID) (*domain.Car, error) {
	car, err := s.carRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCarNotFound
		}
		return nil, err
	}
	if err := s.carRepo.IncrementViews(ctx, id); err != nil {
		s.logger.Warn("view counter not updated", "car_id", id.Hex(), "error", err)
	} else {
		car.Views++
	}
	return car, nil
}

func (s *carService) CreateCar(ctx context.Context, adminID primitive.ObjectID, car *domain.Car) (*domain.Car, error) {
	if adminID == primitive.NilObjectID {
		return nil, errors.New("admin ID is required to create a car")
	}
	if missing := car.MissingFields(); len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing required fields: %s", ErrValidation, strings.Join(missing, ", "))
	}
	if car.Status == "" {
		car.Status = domain.StatusDraft
	}
	if !car.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, car.Status)
	}
	if car.Owners < 1 {
		car.Owners = 1
	}
	car.AdminID = adminID
	car.Views = 0

	if _, err := s.carRepo.Create(ctx, car); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateVIN
		}
		return nil, err
	}
	s.logger.Info("car created", "car_id", car.ID.Hex(), "admin_id", adminID.Hex())
	return car, nil
}

func (s *carService) UpdateCar(ctx context.Context, id primitive.ObjectID, patch domain.CarPatch) (*domain.Car, error) {
	car, err := s.carRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCarNotFound
		}
		return nil, err
	}

	patch.Apply(car)
	if !car.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, car.Status)
	}
	if missing := car.MissingFields(); len(missing) > 0 {
		return nil, fmt.Errorf("%w: fields cannot be cleared: %s", ErrValidation, strings.Join(missing, ", "))
	}

	if err := s.carRepo.Update(ctx, car); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrCarNotFound
		case errors.Is(err, repository.ErrDuplicate):
			return nil, ErrDuplicateVIN
		}
		return nil, err
	}
	return car, nil
}

func (s *carService) DeleteCar(ctx context.Context, id primitive.ObjectID) error {
	if err := s.carRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrCarNotFound
		}
		return err
	}
	s.logger.Info("car deleted", "car_id", id.Hex())
	return nil
}
