package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"autodealer/inventory/internal/domain"
	"autodealer/inventory/internal/service"

	"github.com/gin-gonic/gin"
)

const defaultAdminPageSize = 10

// AdminHandler serves the staff directory.
type AdminHandler struct {
	adminService service.AdminService
	logger       *slog.Logger
}

func NewAdminHandler(adminService service.AdminService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{adminService: adminService, logger: logger}
}

type AdminListResponse struct {
	Admins     []AdminResponse   `json:"admins"`
	Pagination domain.Pagination `json:"pagination"`
}

// ListAdmins godoc
// @Summary List admins
// @Description Returns admins with the number of cars each one owns.
// @Tags Admins
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size" default(10)
// @Success 200 {object} AdminListResponse
// @Failure 401 {object} gin.H "Unauthorized"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Security BearerAuth
// @Router /admins [get]
func (h *AdminHandler) ListAdmins(c *gin.Context) {
	page := pageRequestFromQuery(c, defaultAdminPageSize)

	summaries, pagination, err := h.adminService.ListAdmins(c.Request.Context(), page)
	if err != nil {
		h.logger.Error("list admins failed", "error", err)
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve admins")
		return
	}

	resp := AdminListResponse{Admins: make([]AdminResponse, len(summaries)), Pagination: pagination}
	for i := range summaries {
		r := MapAdminToResponse(&summaries[i].Admin)
		count := summaries[i].CarCount
		r.CarCount = &count
		resp.Admins[i] = r
	}
	c.JSON(http.StatusOK, resp)
}

// pageRequestFromQuery reads ?page and ?limit; malformed values fall back to defaults.
func pageRequestFromQuery(c *gin.Context, defaultLimit int) domain.PageRequest {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	return domain.NewPageRequest(page, limit, defaultLimit)
}
