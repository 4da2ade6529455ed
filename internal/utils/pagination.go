package utils

import (
	"strconv"

	"github.com/yukikurage/projectdesk/internal/constants"
	"github.com/yukikurage/projectdesk/internal/repository"
)

// PaginationParams holds the pagination parameters
type PaginationParams struct {
	Page   int
	Limit  int
	Offset int
}

// PaginationResponse represents the pagination metadata in API responses
type PaginationResponse struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

// GetPaginationParams extracts and clamps the page and limit query values.
// Missing or out-of-range values fall back to the defaults.
func GetPaginationParams(query map[string]string) PaginationParams {
	page := constants.MinPageSize
	if v, ok := query["page"]; ok {
		page, _ = strconv.Atoi(v)
	}
	limit := constants.DefaultPageSize
	if v, ok := query["limit"]; ok {
		limit, _ = strconv.Atoi(v)
	}

	if page < constants.MinPageSize {
		page = constants.MinPageSize
	}
	if limit < constants.MinPageSize || limit > constants.MaxPageSize {
		limit = constants.DefaultPageSize
	}

	offset := (page - 1) * limit

	return PaginationParams{
		Page:   page,
		Limit:  limit,
		Offset: offset,
	}
}

// RepositoryPage converts the parameters to a repository page window
func (p PaginationParams) RepositoryPage() repository.Page {
	return repository.Page{Number: p.Page, Size: p.Limit}
}

// Response builds the pagination metadata for a result of total rows
func (p PaginationParams) Response(total int64) PaginationResponse {
	return PaginationResponse{Page: p.Page, Limit: p.Limit, Total: total}
}
