package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/noah-isme/sma-registry-api/internal/middleware"
	"github.com/noah-isme/sma-registry-api/internal/models"
	"github.com/noah-isme/sma-registry-api/internal/service"
	appErrors "github.com/noah-isme/sma-registry-api/pkg/errors"
	"github.com/noah-isme/sma-registry-api/pkg/response"
)

// nameFilterFromQuery reads search, page, limit, sort and order.
func nameFilterFromQuery(c *gin.Context) models.NameFilter {
	filter := models.NameFilter{
		Search:    strings.TrimSpace(c.Query("search")),
		SortBy:    c.Query("sort"),
		SortOrder: c.Query("order"),
	}
	filter.Page, filter.PageSize = pageFromQuery(c)
	return filter
}

func pageFromQuery(c *gin.Context) (int, int) {
	page, size := 1, models.DefaultPageSize
	if v, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		page = v
	}
	limit := c.Query("limit")
	if limit == "" {
		limit = c.Query("page_size")
	}
	if v, err := strconv.Atoi(limit); err == nil {
		size = v
	}
	return page, size
}

// pathID returns the :id parameter, answering 404 when it is not a uuid.
func pathID(c *gin.Context, entity string) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, entity+" not found"))
		return "", false
	}
	return id, true
}

// uuidQuery reads an optional uuid filter, answering 400 when it is malformed.
func uuidQuery(c *gin.Context, key string) (string, bool) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return "", true
	}
	if _, err := uuid.Parse(value); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, key+" must be a uuid"))
		return "", false
	}
	return value, true
}

func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return false
	}
	return true
}

// respondList writes a listing with its pagination and cache provenance.
func respondList(c *gin.Context, data interface{}, info service.ListInfo) {
	middleware.SetCacheHit(c, info.CacheHit)
	response.JSON(c, http.StatusOK, data, info.Pagination, middleware.ExtractMeta(c))
}
