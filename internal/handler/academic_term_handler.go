package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-registry-api/internal/middleware"
	"github.com/noah-isme/sma-registry-api/internal/models"
	"github.com/noah-isme/sma-registry-api/internal/service"
	"github.com/noah-isme/sma-registry-api/pkg/response"
)

type academicTermService interface {
	List(ctx context.Context, filter models.NameFilter) ([]models.AcademicTerm, service.ListInfo, error)
	Get(ctx context.Context, id string) (*models.AcademicTerm, error)
	Create(ctx context.Context, req models.NameRequest) (*models.AcademicTerm, error)
	Update(ctx context.Context, id string, req models.NameRequest) (*models.AcademicTerm, error)
	Delete(ctx context.Context, id string) error
}

// AcademicTermHandler handles academic term endpoints.
type AcademicTermHandler struct {
	service academicTermService
}

// NewAcademicTermHandler constructs an academic term handler.
func NewAcademicTermHandler(svc academicTermService) *AcademicTermHandler {
	return &AcademicTermHandler{service: svc}
}

// List godoc
// @Summary List academic terms
// @Tags Academic Terms
// @Produce json
// @Param search query string false "Search keyword"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Param sort query string false "Sort column (name, created_at, updated_at)"
// @Param order query string false "ASC or DESC"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /academic-terms [get]
func (h *AcademicTermHandler) List(c *gin.Context) {
	terms, info, err := h.service.List(c.Request.Context(), nameFilterFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	respondList(c, terms, info)
}

// Get godoc
// @Summary Get academic term by id
// @Tags Academic Terms
// @Produce json
// @Param id path string true "Term ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /academic-terms/{id} [get]
func (h *AcademicTermHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "academic term")
	if !ok {
		return
	}
	term, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, term, nil)
}

// Create godoc
// @Summary Create academic term
// @Tags Academic Terms
// @Accept json
// @Produce json
// @Param payload body models.NameRequest true "Term payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /academic-terms [post]
func (h *AcademicTermHandler) Create(c *gin.Context) {
	var req models.NameRequest
	if !bindJSON(c, &req) {
		return
	}
	term, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetAuditResource(c, term.ID)
	response.Created(c, term)
}

// Update godoc
// @Summary Rename academic term
// @Tags Academic Terms
// @Accept json
// @Produce json
// @Param id path string true "Term ID"
// @Param payload body models.NameRequest true "Term payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /academic-terms/{id} [put]
func (h *AcademicTermHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "academic term")
	if !ok {
		return
	}
	var req models.NameRequest
	if !bindJSON(c, &req) {
		return
	}
	term, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, term, nil)
}

// Delete godoc
// @Summary Delete academic term
// @Tags Academic Terms
// @Param id path string true "Term ID"
// @Success 204
// @Security BearerAuth
// @Router /academic-terms/{id} [delete]
func (h *AcademicTermHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "academic term")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
