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

type academicSessionService interface {
	List(ctx context.Context, filter models.NameFilter) ([]models.AcademicSession, service.ListInfo, error)
	Get(ctx context.Context, id string) (*models.AcademicSession, error)
	Create(ctx context.Context, req models.NameRequest) (*models.AcademicSession, error)
	Update(ctx context.Context, id string, req models.NameRequest) (*models.AcademicSession, error)
	Delete(ctx context.Context, id string) error
}

// AcademicSessionHandler handles academic session endpoints.
type AcademicSessionHandler struct {
	service academicSessionService
}

// NewAcademicSessionHandler constructs an academic session handler.
func NewAcademicSessionHandler(svc academicSessionService) *AcademicSessionHandler {
	return &AcademicSessionHandler{service: svc}
}

// List godoc
// @Summary List academic sessions
// @Tags Academic Sessions
// @Produce json
// @Param search query string false "Search keyword"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Param sort query string false "Sort column (name, created_at, updated_at)"
// @Param order query string false "ASC or DESC"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /academic-sessions [get]
func (h *AcademicSessionHandler) List(c *gin.Context) {
	sessions, info, err := h.service.List(c.Request.Context(), nameFilterFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	respondList(c, sessions, info)
}

// Get godoc
// @Summary Get academic session by id
// @Tags Academic Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /academic-sessions/{id} [get]
func (h *AcademicSessionHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "academic session")
	if !ok {
		return
	}
	session, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// Create godoc
// @Summary Create academic session
// @Tags Academic Sessions
// @Accept json
// @Produce json
// @Param payload body models.NameRequest true "Session payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /academic-sessions [post]
func (h *AcademicSessionHandler) Create(c *gin.Context) {
	var req models.NameRequest
	if !bindJSON(c, &req) {
		return
	}
	session, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetAuditResource(c, session.ID)
	response.Created(c, session)
}

// Update godoc
// @Summary Rename academic session
// @Tags Academic Sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body models.NameRequest true "Session payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /academic-sessions/{id} [put]
func (h *AcademicSessionHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "academic session")
	if !ok {
		return
	}
	var req models.NameRequest
	if !bindJSON(c, &req) {
		return
	}
	session, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// Delete godoc
// @Summary Delete academic session
// @Tags Academic Sessions
// @Param id path string true "Session ID"
// @Success 204
// @Security BearerAuth
// @Router /academic-sessions/{id} [delete]
func (h *AcademicSessionHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "academic session")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
