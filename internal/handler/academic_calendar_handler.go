package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-registry-api/internal/models"
	"github.com/noah-isme/sma-registry-api/pkg/response"
)

type academicCalendar interface {
	Current(ctx context.Context) (*models.CurrentAcademicPeriod, error)
}

// AcademicCalendarHandler serves the current academic period.
type AcademicCalendarHandler struct {
	calendar academicCalendar
}

// NewAcademicCalendarHandler constructs the handler.
func NewAcademicCalendarHandler(calendar academicCalendar) *AcademicCalendarHandler {
	return &AcademicCalendarHandler{calendar: calendar}
}

// Current godoc
// @Summary Current term and session
// @Description Returns the configured current academic term and session; either may be null.
// @Tags Academic
// @Produce json
// @Success 200 {object} response.Envelope{data=models.CurrentAcademicPeriod}
// @Security BearerAuth
// @Router /academic/current [get]
func (h *AcademicCalendarHandler) Current(c *gin.Context) {
	period, err := h.calendar.Current(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, period, nil)
}
