package service

import (
	"context"

	"autodealer/inventory/internal/domain"
	"autodealer/inventory/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AdminService lists staff accounts.
type AdminService interface {
	ListAdmins(ctx context.Context, page domain.PageRequest) ([]domain.AdminSummary, domain.Pagination, error)
}

type adminService struct {
	adminRepo repository.AdminRepository
	carRepo   repository.CarRepository
}

// NewAdminService creates a new instance of adminService.
func NewAdminService(adminRepo repository.AdminRepository, carRepo repository.CarRepository) AdminService {
	return &adminService{adminRepo: adminRepo, carRepo: carRepo}
}

// ListAdmins returns one page of admins with the number of cars each owns.
func (s *adminService) ListAdmins(ctx context.Context, page domain.PageRequest) ([]domain.AdminSummary, domain.Pagination, error) {
	admins, total, err := s.adminRepo.List(ctx, page)
	if err != nil {
		return nil, domain.Pagination{}, err
	}

	ids := make([]primitive.ObjectID, len(admins))
	for i, a := range admins {
		ids[i] = a.ID
	}
	counts, err := s.carRepo.CountByAdmin(ctx, ids)
	if err != nil {
		return nil, domain.Pagination{}, err
	}

	summaries := make([]domain.AdminSummary, len(admins))
	for i, a := range admins {
		a.PasswordHash = ""
		summaries[i] = domain.AdminSummary{Admin: a, CarCount: counts[a.ID]}
	}
	return summaries, domain.NewPagination(page, total), nil
}
