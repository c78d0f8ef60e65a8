package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"autodealer/inventory/internal/config"
	"autodealer/inventory/internal/domain"
	"autodealer/inventory/internal/imagekey"
	"autodealer/inventory/internal/service"
	"autodealer/inventory/internal/storage/storagetest"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const testToken = "test-token"

var testAdminID = primitive.NewObjectID()

func init() {
	gin.SetMode(gin.TestMode)
}

// stubAuth accepts testToken as the only valid session.
type stubAuth struct {
	registerErr error
	loginErr    error
}

func (s *stubAuth) Register(ctx context.Context, name, email, password string) (*domain.Admin, error) {
	if s.registerErr != nil {
		return nil, s.registerErr
	}
	return &domain.Admin{ID: testAdminID, Name: name, Email: email, Role: domain.RoleAdmin}, nil
}

func (s *stubAuth) Login(ctx context.Context, email, password string) (string, *domain.Admin, error) {
	if s.loginErr != nil {
		return "", nil, s.loginErr
	}
	return testToken, &domain.Admin{ID: testAdminID, Email: email, Role: domain.RoleAdmin}, nil
}

func (s *stubAuth) ParseToken(token string) (*service.Claims, error) {
	if token != testToken {
		return nil, service.ErrInvalidToken
	}
	return &service.Claims{AdminID: testAdminID.Hex(), Role: domain.RoleAdmin}, nil
}

type stubAdmins struct {
	summaries []domain.AdminSummary
	err       error
}

func (s *stubAdmins) ListAdmins(ctx context.Context, page domain.PageRequest) ([]domain.AdminSummary, domain.Pagination, error) {
	if s.err != nil {
		return nil, domain.Pagination{}, s.err
	}
	return s.summaries, domain.NewPagination(page, int64(len(s.summaries))), nil
}

// stubCars embeds the interface so unexercised methods panic.
type stubCars struct {
	service.CarService
	car       *domain.Car
	err       error
	gotFilter domain.CarFilter
	gotPage   domain.PageRequest
	gotAdmin  primitive.ObjectID
}

func (s *stubCars) ListCars(ctx context.Context, filter domain.CarFilter, page domain.PageRequest) ([]domain.Car, domain.Pagination, error) {
	s.gotFilter, s.gotPage = filter, page
	if s.err != nil {
		return nil, domain.Pagination{}, s.err
	}
	if s.car == nil {
		return nil, domain.NewPagination(page, 0), nil
	}
	return []domain.Car{*s.car}, domain.NewPagination(page, 1), nil
}

func (s *stubCars) GetCar(ctx context.Context, id primitive.ObjectID) (*domain.Car, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.car, nil
}

func (s *stubCars) CreateCar(ctx context.Context, adminID primitive.ObjectID, car *domain.Car) (*domain.Car, error) {
	s.gotAdmin = adminID
	if s.err != nil {
		return nil, s.err
	}
	car.ID = primitive.NewObjectID()
	car.AdminID = adminID
	return car, nil
}

func (s *stubCars) UpdateCar(ctx context.Context, id primitive.ObjectID, patch domain.CarPatch) (*domain.Car, error) {
	if s.err != nil {
		return nil, s.err
	}
	patch.Apply(s.car)
	return s.car, nil
}

func (s *stubCars) DeleteCar(ctx context.Context, id primitive.ObjectID) error {
	return s.err
}

type stubParts struct {
	service.PartService
	part      *domain.Part
	err       error
	gotFilter domain.PartFilter
	gotPage   domain.PageRequest
	gotAdmin  primitive.ObjectID
}

func (s *stubParts) ListParts(ctx context.Context, filter domain.PartFilter, page domain.PageRequest) ([]domain.Part, domain.Pagination, error) {
	s.gotFilter, s.gotPage = filter, page
	if s.err != nil {
		return nil, domain.Pagination{}, s.err
	}
	return nil, domain.NewPagination(page, 0), nil
}

func (s *stubParts) GetPart(ctx context.Context, id primitive.ObjectID) (*domain.Part, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.part, nil
}

func (s *stubParts) UpdatePart(ctx context.Context, adminID, id primitive.ObjectID, patch domain.PartPatch) (*domain.Part, error) {
	s.gotAdmin = adminID
	if s.err != nil {
		return nil, s.err
	}
	patch.Apply(s.part)
	return s.part, nil
}

func (s *stubParts) DeletePart(ctx context.Context, adminID, id primitive.ObjectID) error {
	s.gotAdmin = adminID
	return s.err
}

// testEnv is a router over stub listing services and a real image service
// backed by an in-memory bucket.
type testEnv struct {
	router  *gin.Engine
	store   *storagetest.Memory
	auth    *stubAuth
	admins  *stubAdmins
	cars    *stubCars
	parts   *stubParts
	pingErr error
}

func newTestEnv(t *testing.T, opts ...func(*Services, *config.ServerConfig)) *testEnv {
	t.Helper()
	env := &testEnv{
		store:  storagetest.NewMemory(),
		auth:   &stubAuth{},
		admins: &stubAdmins{},
		cars:   &stubCars{},
		parts:  &stubParts{},
	}
	images := service.NewImageService(env.store, imagekey.NewResolver("bucket", ""),
		config.ImagesConfig{CommitConcurrency: 2}, nil, nil)

	svc := Services{
		Auth:   env.auth,
		Admins: env.admins,
		Cars:   env.cars,
		Parts:  env.parts,
		Images: images,
		Ping:   func(ctx context.Context) error { return env.pingErr },
	}
	cfg := config.ServerConfig{CORSOrigins: []string{"*"}, Environment: "test"}
	for _, opt := range opts {
		opt(&svc, &cfg)
	}
	env.router = NewRouter(cfg, svc, nil)
	return env
}

// do sends a JSON request. body may be nil, a string, or a value to marshal.
func (e *testEnv) do(t *testing.T, method, path string, body any, authed bool) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		req.Header.Set("Authorization", "Bearer "+testToken)
	}
	return e.serve(req)
}

func (e *testEnv) serve(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}
