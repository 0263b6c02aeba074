package utils

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/task-tracker-api/internal/constants"
)

// PaginationParams holds the pagination parameters
type PaginationParams struct {
	Page   int
	Limit  int
	Offset int
}

// PaginationResponse represents the pagination metadata in API responses
type PaginationResponse struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
	Count      int   `json:"count"`
	Total      int64 `json:"total"`
}

// NewPaginationParams clamps page and limit into their accepted ranges.
// A page below 1 becomes 1; a limit outside [1, MaxPageSize] becomes the default.
// A page whose offset would overflow int is capped, so it still lands past
// every record.
func NewPaginationParams(page, limit int) PaginationParams {
	if page < constants.MinPageSize {
		page = constants.MinPageSize
	}
	if limit < constants.MinPageSize || limit > constants.MaxPageSize {
		limit = constants.DefaultPageSize
	}
	if maxPage := math.MaxInt / limit; page > maxPage {
		page = maxPage
	}

	return PaginationParams{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
}

// GetPaginationParams extracts and validates pagination parameters from the request
func GetPaginationParams(c *gin.Context) PaginationParams {
	page, _ := strconv.Atoi(c.DefaultQuery("page", strconv.Itoa(constants.MinPageSize)))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(constants.DefaultPageSize)))

	return NewPaginationParams(page, limit)
}

// TotalPages returns ceil(total/limit).
func TotalPages(total int64, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	pages := int(total) / limit
	if int(total)%limit > 0 {
		pages++
	}
	return pages
}

// NewPaginationResponse builds the metadata for a page holding count records.
func NewPaginationResponse(params PaginationParams, count int, total int64) PaginationResponse {
	return PaginationResponse{
		Page:       params.Page,
		Limit:      params.Limit,
		TotalPages: TotalPages(total, params.Limit),
		Count:      count,
		Total:      total,
	}
}
