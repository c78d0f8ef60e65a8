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
	ErrPartNotFound     = errors.New("part not found")
	ErrPartAccessDenied = errors.New("access denied to modify or delete this part")
)

// PartService manages spare-part listings. Only the owning admin may change
// or remove a part.
type PartService interface {
	// ListParts shows published parts unless filter.Status says otherwise.
	ListParts(ctx context.Context, filter domain.PartFilter, page domain.PageRequest) ([]domain.Part, domain.Pagination, error)
	GetPart(ctx context.Context, id primitive.ObjectID) (*domain.Part, error)
	CreatePart(ctx context.Context, adminID primitive.ObjectID, part *domain.Part) (*domain.Part, error)
	UpdatePart(ctx context.Context, adminID, id primitive.ObjectID, patch domain.PartPatch) (*domain.Part, error)
	DeletePart(ctx context.Context, adminID, id primitive.ObjectID) error
}

type partService struct {
	partRepo repository.PartRepository
	logger   *slog.Logger
}

// NewPartService creates a new instance of partService.
func NewPartService(partRepo repository.PartRepository, logger *slog.Logger) PartService {
	return &partService{
		partRepo: partRepo,
		logger:   logging.OrDiscard(logger).With("component", "parts"),
	}
}

func (s *partService) ListParts(ctx context.Context, filter domain.PartFilter, page domain.PageRequest) ([]domain.Part, domain.Pagination, error) {
	if filter.Status == "" {
		filter.Status = domain.StatusPublished
	}
	if !filter.Status.Valid() {
		return nil, domain.Pagination{}, fmt.Errorf("%w: unknown status %q", ErrValidation, filter.Status)
	}
	parts, total, err := s.partRepo.List(ctx, filter, page)
	if err != nil {
		return nil, domain.Pagination{}, err
	}
	return parts, domain.NewPagination(page, total), nil
}

func (s *partService) GetPart(ctx context.Context, id primitive.ObjectID) (*domain.Part, error) {
	part, err := s.getPart(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.partRepo.IncrementViews(ctx, id); err != nil {
		s.logger.Warn("view counter not updated", "part_id", id.Hex(), "error", err)
	} else {
		part.Views++
	}
	return part, nil
}

func (s *partService) CreatePart(ctx context.Context, adminID primitive.ObjectID, part *domain.Part) (*domain.Part, error) {
	if adminID == primitive.NilObjectID {
		return nil, errors.New("admin ID is required to create a part")
	}
	if missing := part.MissingFields(); len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing required fields: %s", ErrValidation, strings.Join(missing, ", "))
	}
	if err := validatePart(part); err != nil {
		return nil, err
	}
	if part.Status == "" {
		part.Status = domain.StatusDraft
	}
	if !part.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, part.Status)
	}
	part.AdminID = adminID
	part.Views = 0

	if _, err := s.partRepo.Create(ctx, part); err != nil {
		return nil, err
	}
	s.logger.Info("part created", "part_id", part.ID.Hex(), "admin_id", adminID.Hex())
	return part, nil
}

func (s *partService) UpdatePart(ctx context.Context, adminID, id primitive.ObjectID, patch domain.PartPatch) (*domain.Part, error) {
	part, err := s.ownedPart(ctx, adminID, id)
	if err != nil {
		return nil, err
	}

	patch.Apply(part)
	if err := validatePart(part); err != nil {
		return nil, err
	}
	if !part.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, part.Status)
	}

	if err := s.partRepo.Update(ctx, part); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPartNotFound
		}
		return nil, err
	}
	return part, nil
}

func (s *partService) DeletePart(ctx context.Context, adminID, id primitive.ObjectID) error {
	if _, err := s.ownedPart(ctx, adminID, id); err != nil {
		return err
	}
	if err := s.partRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPartNotFound
		}
		return err
	}
	s.logger.Info("part deleted", "part_id", id.Hex(), "admin_id", adminID.Hex())
	return nil
}

func (s *partService) getPart(ctx context.Context, id primitive.ObjectID) (*domain.Part, error) {
	part, err := s.partRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPartNotFound
		}
		return nil, err
	}
	return part, nil
}

func (s *partService) ownedPart(ctx context.Context, adminID, id primitive.ObjectID) (*domain.Part, error) {
	part, err := s.getPart(ctx, id)
	if err != nil {
		return nil, err
	}
	if part.AdminID != adminID {
		return nil, ErrPartAccessDenied
	}
	return part, nil
}

func validatePart(part *domain.Part) error {
	if part.Condition != "" && !part.Condition.Valid() {
		return fmt.Errorf("%w: unknown condition %q", ErrValidation, part.Condition)
	}
	if part.YearFrom != nil && part.YearTo != nil && *part.YearFrom > *part.YearTo {
		return fmt.Errorf("%w: yearFrom is after yearTo", ErrValidation)
	}
	return nil
}
