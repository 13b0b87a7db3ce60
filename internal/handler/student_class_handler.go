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

type studentClassService interface {
	List(ctx context.Context, filter models.StudentClassFilter) ([]models.StudentClass, service.ListInfo, error)
	Get(ctx context.Context, id string) (*models.StudentClass, error)
	Create(ctx context.Context, req models.StudentClassRequest) (*models.StudentClass, error)
	Update(ctx context.Context, id string, req models.StudentClassRequest) (*models.StudentClass, error)
	Delete(ctx context.Context, id string) (*models.StudentClassDeleteResult, error)
	Members(ctx context.Context, id string) (*models.StudentClass, []models.User, error)
}

type rosterExporter interface {
	Roster(ctx context.Context, classID, format string) (*service.ExportFile, error)
}

// StudentClassHandler handles class endpoints.
type StudentClassHandler struct {
	service studentClassService
	export  rosterExporter
}

// NewStudentClassHandler constructs a class handler.
func NewStudentClassHandler(svc studentClassService, export rosterExporter) *StudentClassHandler {
	return &StudentClassHandler{service: svc, export: export}
}

// List godoc
// @Summary List student classes
// @Tags Student Classes
// @Produce json
// @Param school_id query string false "Filter by school"
// @Param search query string false "Search keyword"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Param sort query string false "Sort column (name, school_name, created_at, updated_at)"
// @Param order query string false "ASC or DESC"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /student-classes [get]
func (h *StudentClassHandler) List(c *gin.Context) {
	schoolID, ok := uuidQuery(c, "school_id")
	if !ok {
		return
	}
	filter := models.StudentClassFilter{
		NameFilter: nameFilterFromQuery(c),
		SchoolID:   schoolID,
	}
	classes, info, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondList(c, classes, info)
}

// Get godoc
// @Summary Get student class by id
// @Tags Student Classes
// @Produce json
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /student-classes/{id} [get]
func (h *StudentClassHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "student class")
	if !ok {
		return
	}
	class, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, class, nil)
}

// Students godoc
// @Summary List users assigned to a class
// @Tags Student Classes
// @Produce json
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /student-classes/{id}/students [get]
func (h *StudentClassHandler) Students(c *gin.Context) {
	id, ok := pathID(c, "student class")
	if !ok {
		return
	}
	class, users, err := h.service.Members(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, users, nil, map[string]interface{}{"class": class.Name, "count": len(users)})
}

// Roster godoc
// @Summary Download class roster
// @Tags Student Classes
// @Produce text/csv,application/pdf,application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path string true "Class ID"
// @Param format query string false "csv (default), pdf or xlsx"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /student-classes/{id}/roster [get]
func (h *StudentClassHandler) Roster(c *gin.Context) {
	id, ok := pathID(c, "student class")
	if !ok {
		return
	}
	file, err := h.export.Roster(c.Request.Context(), id, c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, file.Filename, file.ContentType, file.Content)
}

// Create godoc
// @Summary Create student class
// @Tags Student Classes
// @Accept json
// @Produce json
// @Param payload body models.StudentClassRequest true "Class payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /student-classes [post]
func (h *StudentClassHandler) Create(c *gin.Context) {
	var req models.StudentClassRequest
	if !bindJSON(c, &req) {
		return
	}
	class, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetAuditResource(c, class.ID)
	response.Created(c, class)
}

// Update godoc
// @Summary Update student class
// @Tags Student Classes
// @Accept json
// @Produce json
// @Param id path string true "Class ID"
// @Param payload body models.StudentClassRequest true "Class payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /student-classes/{id} [put]
func (h *StudentClassHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "student class")
	if !ok {
		return
	}
	var req models.StudentClassRequest
	if !bindJSON(c, &req) {
		return
	}
	class, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, class, nil)
}

// Delete godoc
// @Summary Delete student class
// @Description Users in the class are kept; their student_class_id becomes null.
// @Tags Student Classes
// @Produce json
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope{data=models.StudentClassDeleteResult}
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /student-classes/{id} [delete]
func (h *StudentClassHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "student class")
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
