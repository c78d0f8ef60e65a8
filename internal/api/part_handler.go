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

const defaultPartPageSize = 12

// PartHandler serves spare-part listings.
type PartHandler struct {
	partService service.PartService
	logger      *slog.Logger
}

func NewPartHandler(partService service.PartService, logger *slog.Logger) *PartHandler {
	return &PartHandler{partService: partService, logger: logger}
}

type PartListResponse struct {
	Parts      []domain.Part     `json:"parts"`
	Pagination domain.Pagination `json:"pagination"`
}

// ListParts godoc
// @Summary List parts
// @Description Published parts unless status says otherwise. Newest first.
// @Tags Parts
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size" default(12)
// @Param status query string false "draft, published or sold"
// @Param category query string false "Category"
// @Param brand query string false "Brand filter"
// @Param model query string false "Model filter"
// @Param condition query string false "new, used or refurbished"
// @Success 200 {object} PartListResponse
// @Failure 400 {object} gin.H "Invalid filter"
// @Router /parts [get]
func (h *PartHandler) ListParts(c *gin.Context) {
	filter := domain.PartFilter{
		Status:    domain.ListingStatus(c.Query("status")),
		Category:  c.Query("category"),
		Brand:     c.Query("brand"),
		Model:     c.Query("model"),
		Condition: domain.PartCondition(c.Query("condition")),
	}
	page := pageRequestFromQuery(c, defaultPartPageSize)

	parts, pagination, err := h.partService.ListParts(c.Request.Context(), filter, page)
	if err != nil {
		h.handleError(c, err, "list parts")
		return
	}
	if parts == nil {
		parts = []domain.Part{}
	}
	c.JSON(http.StatusOK, PartListResponse{Parts: parts, Pagination: pagination})
}

// GetPart godoc
// @Summary Get a part
// @Tags Parts
// @Produce json
// @Param id path string true "Part ID"
// @Success 200 {object} domain.Part
// @Failure 400 {object} gin.H "Invalid ID format"
// @Failure 404 {object} gin.H "Part not found"
// @Router /parts/{id} [get]
func (h *PartHandler) GetPart(c *gin.Context) {
	partID, ok := partIDParam(c)
	if !ok {
		return
	}
	part, err := h.partService.GetPart(c.Request.Context(), partID)
	if err != nil {
		h.handleError(c, err, "get part")
		return
	}
	c.JSON(http.StatusOK, part)
}

// CreatePart godoc
// @Summary Create a part
// @Tags Parts
// @Accept json
// @Produce json
// @Param part body domain.Part true "Part details"
// @Success 201 {object} domain.Part
// @Failure 400 {object} gin.H "Missing fields"
// @Security BearerAuth
// @Router /parts [post]
func (h *PartHandler) CreatePart(c *gin.Context) {
	adminID, err := getAdminIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify admin from token")
		return
	}

	var part domain.Part
	if err := c.ShouldBindJSON(&part); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	part.ID = primitive.NilObjectID

	created, err := h.partService.CreatePart(c.Request.Context(), adminID, &part)
	if err != nil {
		h.handleError(c, err, "create part")
		return
	}
	c.JSON(http.StatusCreated, created)
}

// UpdatePart godoc
// @Summary Update a part
// @Description Partial update, allowed for the owning admin only.
// @Tags Parts
// @Accept json
// @Produce json
// @Param id path string true "Part ID"
// @Param part body domain.PartPatch true "Fields to change"
// @Success 200 {object} domain.Part
// @Failure 403 {object} gin.H "Not the owner"
// @Failure 404 {object} gin.H "Part not found"
// @Security BearerAuth
// @Router /parts/{id} [put]
func (h *PartHandler) UpdatePart(c *gin.Context) {
	adminID, err := getAdminIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify admin from token")
		return
	}
	partID, ok := partIDParam(c)
	if !ok {
		return
	}
	var patch domain.PartPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	part, err := h.partService.UpdatePart(c.Request.Context(), adminID, partID, patch)
	if err != nil {
		h.handleError(c, err, "update part")
		return
	}
	c.JSON(http.StatusOK, part)
}

// DeletePart godoc
// @Summary Delete a part
// @Tags Parts
// @Param id path string true "Part ID"
// @Success 204 "No Content"
// @Failure 403 {object} gin.H "Not the owner"
// @Failure 404 {object} gin.H "Part not found"
// @Security BearerAuth
// @Router /parts/{id} [delete]
func (h *PartHandler) DeletePart(c *gin.Context) {
	adminID, err := getAdminIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify admin from token")
		return
	}
	partID, ok := partIDParam(c)
	if !ok {
		return
	}
	if err := h.partService.DeletePart(c.Request.Context(), adminID, partID); err != nil {
		h.handleError(c, err, "delete part")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *PartHandler) handleError(c *gin.Context, err error, op string) {
	switch {
	case errors.Is(err, service.ErrValidation):
		abortWithError(c, http.StatusBadRequest, validationDetail(err))
	case errors.Is(err, service.ErrPartNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrPartAccessDenied):
		abortWithError(c, http.StatusForbidden, err.Error())
	default:
		h.logger.Error(op+" failed", "error", err)
		abortWithError(c, http.StatusInternalServerError, "Internal server error")
	}
}

func partIDParam(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid part ID format")
		return primitive.NilObjectID, false
	}
	return id, true
}
