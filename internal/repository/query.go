package repository

import (
	"fmt"
	"strings"

	"github.com/noah-isme/sma-registry-api/internal/models"
)

// normalizePage returns the page, page size and offset used for a listing.
func normalizePage(page, size int) (int, int, int) {
	page, size = models.NormalizePage(page, size)
	return page, size, (page - 1) * size
}

// orderClause resolves a requested sort key against an allowlist of key -> column.
func orderClause(sortBy, sortOrder string, allowed map[string]string, fallback string) string {
	column, ok := allowed[sortBy]
	if !ok {
		column = allowed[fallback]
	}
	order := strings.ToUpper(sortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}
	return fmt.Sprintf("ORDER BY %s %s", column, order)
}

// conditions accumulates positional WHERE fragments.
type conditions struct {
	parts []string
	args  []interface{}
}

// add appends a fragment whose single placeholder is written as ?.
func (c *conditions) add(fragment string, arg interface{}) {
	c.args = append(c.args, arg)
	c.parts = append(c.parts, strings.ReplaceAll(fragment, "?", fmt.Sprintf("$%d", len(c.args))))
}

func (c *conditions) apply(base string) string {
	if len(c.parts) == 0 {
		return base
	}
	return base + " AND " + strings.Join(c.parts, " AND ")
}

func likePattern(search string) string {
	return "%" + strings.ToLower(strings.TrimSpace(search)) + "%"
}
