package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/konbon-dev/konbon-api/internal/constants"
)

// PaginationParams is the normalized page window of a list request.
type PaginationParams struct {
	Page   int
	Limit  int
	Offset int
}

// PaginationResponse echoes the window back alongside the total row count.
type PaginationResponse struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

// GetPaginationParams reads page and limit from the query string, falling
// back to defaults on anything missing, unparseable, or out of range.
func GetPaginationParams(c *gin.Context) PaginationParams {
	page, err := strconv.Atoi(c.Query("page"))
	if err != nil || page < constants.MinPageSize {
		page = constants.MinPageSize
	}

	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit < constants.MinPageSize || limit > constants.MaxPageSize {
		limit = constants.DefaultPageSize
	}

	return PaginationParams{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
}
