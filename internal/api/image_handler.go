package api

import (
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"autodealer/inventory/internal/imagekey"
	"autodealer/inventory/internal/service"

	"github.com/gin-gonic/gin"
)

const immutableCacheControl = "public, max-age=31536000, immutable"

// ImageHandler exposes the photo staging protocol. Responses carry a
// success flag, mirroring what the admin UI expects.
type ImageHandler struct {
	imageService service.ImageService
	logger       *slog.Logger
}

func NewImageHandler(imageService service.ImageService, logger *slog.Logger) *ImageHandler {
	return &ImageHandler{imageService: imageService, logger: logger}
}

// --- Request/Response Structs ---

type CommitRequest struct {
	CarID      string   `json:"carId"`
	EntityID   string   `json:"entityId"`
	EntityType string   `json:"entityType"`
	Images     []string `json:"images"`
}

type CleanupRequest struct {
	BatchID    string `json:"batchId"`
	EntityType string `json:"entityType"`
}

type SignedURLRequest struct {
	ImageURL string `json:"imageUrl"`
}

type PresignRequest struct {
	BatchID     string `json:"batchId"`
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"contentType" binding:"required"`
	EntityType  string `json:"entityType"`
}

type DeleteImageRequest struct {
	ImageURL string `json:"imageUrl"`
	ImageKey string `json:"imageKey"`
}

type DeleteImagesRequest struct {
	ImageURLs []string `json:"imageUrls"`
	ImageKeys []string `json:"imageKeys"`
}

// --- Handler Methods ---

// Commit godoc
// @Summary Commit staged images to a listing
// @Description Moves staged photos to the listing's permanent folder. The
// @Description result has one URL per input in input order; references that
// @Description are not staged, or could not be moved, are returned unchanged.
// @Tags Images
// @Accept json
// @Produce json
// @Param body body CommitRequest true "Listing ID and image references"
// @Success 200 {object} gin.H "{success, images}"
// @Failure 400 {object} gin.H "Invalid request data"
// @Security BearerAuth
// @Router /images/commit [post]
func (h *ImageHandler) Commit(c *gin.Context) {
	var req CommitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		imageFailure(c, http.StatusBadRequest, "Invalid request data")
		return
	}
	entityID := req.CarID
	if entityID == "" {
		entityID = req.EntityID
	}
	if entityID == "" || len(req.Images) == 0 {
		imageFailure(c, http.StatusBadRequest, "Invalid request data")
		return
	}

	images, err := h.imageService.Commit(c.Request.Context(), entityClass(req.EntityType), entityID, req.Images)
	if err != nil {
		h.handleError(c, err, "commit")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "images": images})
}

// Cleanup godoc
// @Summary Discard a staging batch
// @Description Deletes every staged photo of an abandoned batch.
// @Tags Images
// @Accept json
// @Produce json
// @Param body body CleanupRequest true "Batch ID"
// @Success 200 {object} gin.H "{success, message, deletedCount}"
// @Failure 400 {object} gin.H "Batch ID is required"
// @Failure 500 {object} gin.H "Internal server error"
// @Security BearerAuth
// @Router /images/cleanup [post]
func (h *ImageHandler) Cleanup(c *gin.Context) {
	var req CleanupRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.BatchID == "" {
		imageFailure(c, http.StatusBadRequest, "Batch ID is required")
		return
	}

	result, err := h.imageService.Cleanup(c.Request.Context(), entityClass(req.EntityType), req.BatchID)
	if err != nil {
		h.handleError(c, err, "cleanup")
		return
	}

	resp := gin.H{"success": true, "deletedCount": result.DeletedCount}
	if result.DeletedCount == 0 {
		resp["message"] = "No temporary files found"
	} else {
		resp["message"] = fmt.Sprintf("Cleaned up %d temporary files", result.DeletedCount)
	}
	if result.FailedCount > 0 {
		resp["failedCount"] = result.FailedCount
	}
	c.JSON(http.StatusOK, resp)
}

// Get godoc
// @Summary Stream a stored image
// @Description Proxies the object bytes with a long-lived cache header.
// @Tags Images
// @Produce octet-stream
// @Param key query string true "Storage key"
// @Success 200 {file} binary
// @Failure 400 {string} string "Missing key"
// @Failure 404 {string} string "Not found"
// @Router /images/get [get]
func (h *ImageHandler) Get(c *gin.Context) {
	key := strings.TrimLeft(c.Query("key"), "/")
	if key == "" {
		c.String(http.StatusBadRequest, "Missing key")
		return
	}

	obj, err := h.imageService.Fetch(c.Request.Context(), key)
	if err != nil {
		c.String(http.StatusNotFound, "Not found")
		return
	}
	defer obj.Body.Close()

	contentType := obj.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.DataFromReader(http.StatusOK, obj.Size, contentType, obj.Body, map[string]string{
		"Cache-Control": immutableCacheControl,
	})
}

// SignedURL godoc
// @Summary Issue a signed read URL
// @Tags Images
// @Accept json
// @Produce json
// @Param body body SignedURLRequest true "Image URL"
// @Success 200 {object} gin.H "{success, signedUrl, originalUrl, key}"
// @Failure 400 {object} gin.H "Image URL is required"
// @Failure 500 {object} gin.H "Internal server error"
// @Router /images/signed-url [post]
func (h *ImageHandler) SignedURL(c *gin.Context) {
	var req SignedURLRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ImageURL == "" {
		imageFailure(c, http.StatusBadRequest, "Image URL is required")
		return
	}

	key, ok := h.imageService.ExtractKey(req.ImageURL)
	if !ok {
		imageFailure(c, http.StatusBadRequest, "Invalid image URL")
		return
	}

	signed, err := h.imageService.SignedURL(c.Request.Context(), key, 0)
	if err != nil {
		h.handleError(c, err, "signed url")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"signedUrl":   signed,
		"originalUrl": req.ImageURL,
		"key":         key,
	})
}

// Upload godoc
// @Summary Upload images
// @Description Stores files in the listing folder when carId is set,
// @Description otherwise in a staging batch.
// @Tags Images
// @Accept multipart/form-data
// @Produce json
// @Param images formData file true "Image files"
// @Param carId formData string false "Listing ID"
// @Param batchId formData string false "Staging batch ID"
// @Param entityType formData string false "cars or parts"
// @Success 200 {object} gin.H "{success, batchId, images}"
// @Failure 400 {object} gin.H "No files found"
// @Failure 413 {object} gin.H "File too large"
// @Failure 415 {object} gin.H "Unsupported image type"
// @Security BearerAuth
// @Router /images/upload [post]
func (h *ImageHandler) Upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		imageFailure(c, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	defer form.RemoveAll()

	headers := form.File["images"]
	files := make([]service.UploadFile, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			h.logger.Error("open upload part failed", "file", fh.Filename, "error", err)
			imageFailure(c, http.StatusBadRequest, "Could not read uploaded file")
			return
		}
		defer f.Close()
		files = append(files, service.UploadFile{
			Name:        fh.Filename,
			ContentType: partContentType(fh),
			Size:        fh.Size,
			Body:        f,
		})
	}

	result, err := h.imageService.Upload(c.Request.Context(), service.UploadRequest{
		Class:    entityClass(c.PostForm("entityType")),
		EntityID: strings.TrimSpace(c.PostForm("carId")),
		BatchID:  strings.TrimSpace(c.PostForm("batchId")),
		Files:    files,
	})
	if err != nil {
		h.handleError(c, err, "upload")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "batchId": result.BatchID, "images": result.Images})
}

// Presign godoc
// @Summary Presign a direct upload into a staging batch
// @Tags Images
// @Accept json
// @Produce json
// @Param body body PresignRequest true "File details"
// @Success 200 {object} service.PresignedUpload
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 415 {object} gin.H "Unsupported image type"
// @Security BearerAuth
// @Router /images/presign [post]
func (h *ImageHandler) Presign(c *gin.Context) {
	var req PresignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		imageFailure(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	upload, err := h.imageService.PresignUpload(c.Request.Context(), service.PresignRequest{
		Class:       entityClass(req.EntityType),
		BatchID:     req.BatchID,
		Filename:    req.Filename,
		ContentType: req.ContentType,
	})
	if err != nil {
		h.handleError(c, err, "presign")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "upload": upload})
}

// Delete godoc
// @Summary Delete one image
// @Tags Images
// @Accept json
// @Produce json
// @Param body body DeleteImageRequest true "imageUrl or imageKey"
// @Success 200 {object} gin.H "{success, message, key}"
// @Failure 400 {object} gin.H "No valid image identifier provided"
// @Failure 500 {object} gin.H "Failed to delete image"
// @Security BearerAuth
// @Router /images/delete [delete]
func (h *ImageHandler) Delete(c *gin.Context) {
	var req DeleteImageRequest
	if err := c.ShouldBindJSON(&req); err != nil || (req.ImageURL == "" && req.ImageKey == "") {
		imageFailure(c, http.StatusBadRequest, "Either imageUrl or imageKey is required")
		return
	}
	ref := req.ImageURL
	if ref == "" {
		ref = req.ImageKey
	}

	key, err := h.imageService.Delete(c.Request.Context(), ref)
	if err != nil {
		h.handleError(c, err, "delete")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Image deleted successfully", "key": key})
}

// DeleteMany godoc
// @Summary Delete several images
// @Tags Images
// @Accept json
// @Produce json
// @Param body body DeleteImagesRequest true "imageUrls and/or imageKeys"
// @Success 200 {object} gin.H "{success, deleted, failed, total, errors}"
// @Failure 400 {object} gin.H "No valid image identifiers found"
// @Security BearerAuth
// @Router /images/delete [post]
func (h *ImageHandler) DeleteMany(c *gin.Context) {
	var req DeleteImagesRequest
	if err := c.ShouldBindJSON(&req); err != nil || (req.ImageURLs == nil && req.ImageKeys == nil) {
		imageFailure(c, http.StatusBadRequest, "Either imageUrls or imageKeys array is required")
		return
	}

	refs := append(append([]string{}, req.ImageURLs...), req.ImageKeys...)
	result, err := h.imageService.DeleteMany(c.Request.Context(), refs)
	if err != nil {
		h.handleError(c, err, "bulk delete")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"deleted": result.Deleted,
		"failed":  result.Failed,
		"total":   result.Total,
		"errors":  result.Errors,
	})
}

func (h *ImageHandler) handleError(c *gin.Context, err error, op string) {
	switch {
	case errors.Is(err, service.ErrValidation):
		imageFailure(c, http.StatusBadRequest, validationDetail(err))
	case errors.Is(err, service.ErrFileTooLarge):
		imageFailure(c, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, service.ErrUnsupportedType):
		imageFailure(c, http.StatusUnsupportedMediaType, err.Error())
	case errors.Is(err, service.ErrImageNotFound):
		imageFailure(c, http.StatusNotFound, "Not found")
	default:
		h.logger.Error("image "+op+" failed", "error", err)
		imageFailure(c, http.StatusInternalServerError, "Internal server error")
	}
}

// imageFailure writes the {success:false, error} envelope of the image routes.
func imageFailure(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"success": false, "error": message})
}

// entityClass defaults an omitted entityType to cars.
func entityClass(entityType string) string {
	if entityType == "" {
		return imagekey.ClassCars
	}
	return strings.ToLower(strings.TrimSpace(entityType))
}

func partContentType(fh *multipart.FileHeader) string {
	if ct := fh.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
