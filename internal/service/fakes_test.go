package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"autodealer/inventory/internal/domain"
	"autodealer/inventory/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeAdminRepo struct {
	mu      sync.Mutex
	admins  []domain.Admin
	listErr error
}

func (r *fakeAdminRepo) Create(ctx context.Context, admin *domain.Admin) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.admins {
		if a.Email == admin.Email {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	admin.ID = primitive.NewObjectID()
	admin.CreatedAt = time.Now().UTC()
	r.admins = append(r.admins, *admin)
	return admin.ID, nil
}

func (r *fakeAdminRepo) GetByEmail(ctx context.Context, email string) (*domain.Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.admins {
		if a.Email == email {
			a := a
			return &a, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeAdminRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.admins {
		if a.ID == id {
			a := a
			return &a, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeAdminRepo) List(ctx context.Context, page domain.PageRequest) ([]domain.Admin, int64, error) {
	if r.listErr != nil {
		return nil, 0, r.listErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return paginate(r.admins, page), int64(len(r.admins)), nil
}

type fakeCarRepo struct {
	mu        sync.Mutex
	cars      map[primitive.ObjectID]*domain.Car
	viewsErr  error
	lastQuery domain.CarFilter
}

func newFakeCarRepo() *fakeCarRepo {
	return &fakeCarRepo{cars: make(map[primitive.ObjectID]*domain.Car)}
}

func (r *fakeCarRepo) Create(ctx context.Context, car *domain.Car) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.cars {
		if c.VIN == car.VIN {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	car.ID = primitive.NewObjectID()
	stored := *car
	r.cars[car.ID] = &stored
	return car.ID, nil
}

func (r *fakeCarRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Car, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cars[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeCarRepo) List(ctx context.Context, filter domain.CarFilter, page domain.PageRequest) ([]domain.Car, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastQuery = filter
	var out []domain.Car
	for _, c := range r.cars {
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		if filter.Brand != "" && !strings.Contains(strings.ToLower(c.Brand), strings.ToLower(filter.Brand)) {
			continue
		}
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VIN < out[j].VIN })
	return paginate(out, page), int64(len(out)), nil
}

func (r *fakeCarRepo) Update(ctx context.Context, car *domain.Car) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.cars[car.ID]; !ok {
		return repository.ErrNotFound
	}
	for id, c := range r.cars {
		if id != car.ID && c.VIN == car.VIN {
			return repository.ErrDuplicate
		}
	}
	stored := *car
	r.cars[car.ID] = &stored
	return nil
}

func (r *fakeCarRepo) IncrementViews(ctx context.Context, id primitive.ObjectID) error {
	if r.viewsErr != nil {
		return r.viewsErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cars[id]
	if !ok {
		return repository.ErrNotFound
	}
	c.Views++
	return nil
}

func (r *fakeCarRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.cars[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.cars, id)
	return nil
}

func (r *fakeCarRepo) CountByAdmin(ctx context.Context, adminIDs []primitive.ObjectID) (map[primitive.ObjectID]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[primitive.ObjectID]int64)
	for _, id := range adminIDs {
		for _, c := range r.cars {
			if c.AdminID == id {
				counts[id]++
			}
		}
	}
	return counts, nil
}

type fakePartRepo struct {
	mu        sync.Mutex
	parts     map[primitive.ObjectID]*domain.Part
	lastQuery domain.PartFilter
}

func newFakePartRepo() *fakePartRepo {
	return &fakePartRepo{parts: make(map[primitive.ObjectID]*domain.Part)}
}

func (r *fakePartRepo) Create(ctx context.Context, part *domain.Part) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	part.ID = primitive.NewObjectID()
	stored := *part
	r.parts[part.ID] = &stored
	return part.ID, nil
}

func (r *fakePartRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Part, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.parts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakePartRepo) List(ctx context.Context, filter domain.PartFilter, page domain.PageRequest) ([]domain.Part, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastQuery = filter
	var out []domain.Part
	for _, p := range r.parts {
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return paginate(out, page), int64(len(out)), nil
}

func (r *fakePartRepo) Update(ctx context.Context, part *domain.Part) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.parts[part.ID]; !ok {
		return repository.ErrNotFound
	}
	stored := *part
	r.parts[part.ID] = &stored
	return nil
}

func (r *fakePartRepo) IncrementViews(ctx context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.parts[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.Views++
	return nil
}

func (r *fakePartRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.parts[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.parts, id)
	return nil
}

func paginate[T any](items []T, page domain.PageRequest) []T {
	start := int(page.Skip())
	if start >= len(items) {
		return []T{}
	}
	end := start + page.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
