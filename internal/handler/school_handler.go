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

type schoolService interface {
	List(ctx context.Context, filter models.NameFilter) ([]models.School, service.ListInfo, error)
	Get(ctx context.Context, id string) (*models.School, error)
	Create(ctx context.Context, req models.NameRequest) (*models.School, error)
	Update(ctx context.Context, id string, req models.NameRequest) (*models.School, error)
	Delete(ctx context.Context, id string) (*models.SchoolDeleteResult, error)
}

type schoolClassLister interface {
	ListBySchool(ctx context.Context, schoolID string, filter models.NameFilter) ([]models.StudentClass, service.ListInfo, error)
}

// SchoolHandler handles school endpoints.
type SchoolHandler struct {
	service schoolService
	classes schoolClassLister
}

// NewSchoolHandler constructs a school handler.
func NewSchoolHandler(svc schoolService, classes schoolClassLister) *SchoolHandler {
	return &SchoolHandler{service: svc, classes: classes}
}

// List godoc
// @Summary List schools
// @Tags Schools
// @Produce json
// @Param search query string false "Search keyword"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Param sort query string false "Sort column"
// @Param order query string false "ASC or DESC"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /schools [get]
func (h *SchoolHandler) List(c *gin.Context) {
	schools, info, err := h.service.List(c.Request.Context(), nameFilterFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	respondList(c, schools, info)
}

// Get godoc
// @Summary Get school by id
// @Tags Schools
// @Produce json
// @Param id path string true "School ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /schools/{id} [get]
func (h *SchoolHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "school")
	if !ok {
		return
	}
	school, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, school, nil)
}

// Classes godoc
// @Summary List classes of a school
// @Tags Schools
// @Produce json
// @Param id path string true "School ID"
// @Param search query string false "Search keyword"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /schools/{id}/classes [get]
func (h *SchoolHandler) Classes(c *gin.Context) {
	id, ok := pathID(c, "school")
	if !ok {
		return
	}
	classes, info, err := h.classes.ListBySchool(c.Request.Context(), id, nameFilterFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	respondList(c, classes, info)
}

// Create godoc
// @Summary Create school
// @Tags Schools
// @Accept json
// @Produce json
// @Param payload body models.NameRequest true "School payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /schools [post]
func (h *SchoolHandler) Create(c *gin.Context) {
	var req models.NameRequest
	if !bindJSON(c, &req) {
		return
	}
	school, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetAuditResource(c, school.ID)
	response.Created(c, school)
}

// Update godoc
// @Summary Rename school
// @Tags Schools
// @Accept json
// @Produce json
// @Param id path string true "School ID"
// @Param payload body models.NameRequest true "School payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /schools/{id} [put]
func (h *SchoolHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "school")
	if !ok {
		return
	}
	var req models.NameRequest
	if !bindJSON(c, &req) {
		return
	}
	school, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, school, nil)
}

// Delete godoc
// @Summary Delete school and its classes
// @Description Classes of the school are deleted with it; their students keep their accounts with no class.
// @Tags Schools
// @Produce json
// @Param id path string true "School ID"
// @Success 200 {object} response.Envelope{data=models.SchoolDeleteResult}
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /schools/{id} [delete]
func (h *SchoolHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "school")
	if !ok {
		return
	}
	result, err := h.service.Delete(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
