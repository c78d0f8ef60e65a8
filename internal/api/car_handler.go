package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"autodealer/inventory/internal/domain"
	"autodealer/inventory/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const defaultCarPageSize = 10

// CarHandler serves car listings.
type CarHandler struct {
	carService service.CarService
	logger     *slog.Logger
}

func NewCarHandler(carService service.CarService, logger *slog.Logger) *CarHandler {
	return &CarHandler{carService: carService, logger: logger}
}

type CarListResponse struct {
	Cars       []domain.Car      `json:"cars"`
	Pagination domain.Pagination `json:"pagination"`
}

// ListCars godoc
// @Summary List cars
// @Description Newest first. Brand matches case-insensitively as a substring.
// @Tags Cars
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size" default(10)
// @Param status query string false "draft, published or sold"
// @Param brand query string false "Brand filter"
// @Success 200 {object} CarListResponse
// @Failure 400 {object} gin.H "Invalid filter"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /cars [get]
func (h *CarHandler) ListCars(c *gin.Context) {
	filter := domain.CarFilter{
		Status: domain.ListingStatus(c.Query("status")),
		Brand:  c.Query("brand"),
	}
	page := pageRequestFromQuery(c, defaultCarPageSize)

	cars, pagination, err := h.carService.ListCars(c.Request.Context(), filter, page)
	if err != nil {
		h.handleError(c, err, "list cars")
		return
	}
	if cars == nil {
		cars = []domain.Car{}
	}
	c.JSON(http.StatusOK, CarListResponse{Cars: cars, Pagination: pagination})
}

// GetCar godoc
// @Summary Get a car
// @Description Returns one car and counts the view.
// @Tags Cars
// @Produce json
// @Param id path string true "Car ID"
// @Success 200 {object} domain.Car
// @Failure 400 {object} gin.H "Invalid ID format"
// @Failure 404 {object} gin.H "Car not found"
// @Router /cars/{id} [get]
func (h *CarHandler) GetCar(c *gin.Context) {
	carID, ok := carIDParam(c)
	if !ok {
		return
	}
	car, err := h.carService.GetCar(c.Request.Context(), carID)
	if err != nil {
		h.handleError(c, err, "get car")
		return
	}
	c.JSON(http.StatusOK, car)
}

// CreateCar godoc
// @Summary Create a car
// @Tags Cars
// @Accept json
// @Produce json
// @Param car body domain.Car true "Car details"
// @Success 201 {object} domain.Car
// @Failure 400 {object} gin.H "Missing fields or duplicate VIN"
// @Failure 401 {object} gin.H "Unauthorized"
// @Security BearerAuth
// @Router /cars [post]
func (h *CarHandler) CreateCar(c *gin.Context) {
	adminID, err := getAdminIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify admin from token")
		return
	}

	var car domain.Car
	if err := c.ShouldBindJSON(&car); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	car.ID = primitive.NilObjectID

	created, err := h.carService.CreateCar(c.Request.Context(), adminID, &car)
	if err != nil {
		h.handleError(c, err, "create car")
		return
	}
	c.JSON(http.StatusCreated, created)
}

// UpdateCar godoc
// @Summary Update a car
// @Description Partial update; omitted fields are kept.
// @Tags Cars
// @Accept json
// @Produce json
// @Param id path string true "Car ID"
// @Param car body domain.CarPatch true "Fields to change"
// @Success 200 {object} domain.Car
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 404 {object} gin.H "Car not found"
// @Security BearerAuth
// @Router /cars/{id} [put]
func (h *CarHandler) UpdateCar(c *gin.Context) {
	carID, ok := carIDParam(c)
	if !ok {
		return
	}
	var patch domain.CarPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	car, err := h.carService.UpdateCar(c.Request.Context(), carID, patch)
	if err != nil {
		h.handleError(c, err, "update car")
		return
	}
	c.JSON(http.StatusOK, car)
}

// DeleteCar godoc
// @Summary Delete a car
// @Tags Cars
// @Param id path string true "Car ID"
// @Success 204 "No Content"
// @Failure 404 {object} gin.H "Car not found"
// @Security BearerAuth
// @Router /cars/{id} [delete]
func (h *CarHandler) DeleteCar(c *gin.Context) {
	carID, ok := carIDParam(c)
	if !ok {
		return
	}
	if err := h.carService.DeleteCar(c.Request.Context(), carID); err != nil {
		h.handleError(c, err, "delete car")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CarHandler) handleError(c *gin.Context, err error, op string) {
	switch {
	case errors.Is(err, service.ErrValidation):
		abortWithError(c, http.StatusBadRequest, validationDetail(err))
	case errors.Is(err, service.ErrDuplicateVIN):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrCarNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	default:
		h.logger.Error(op+" failed", "error", err)
		abortWithError(c, http.StatusInternalServerError, "Internal server error")
	}
}

func carIDParam(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid car ID format")
		return primitive.NilObjectID, false
	}
	return id, true
}
