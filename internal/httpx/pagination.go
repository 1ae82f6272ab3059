package httpx

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

type Pagination struct {
	Page  int
	Limit int
}

func (p Pagination) Offset() int { return (p.Page - 1) * p.Limit }

// ParsePagination reads page/limit query params, falling back to the
// configured defaults and clamping limit to the configured maximum.
func ParsePagination(c *fiber.Ctx, defaultLimit, maxLimit int) Pagination {
	p := Pagination{Page: 1, Limit: defaultLimit}

	if v := c.Query("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			p.Page = n
		}
	}
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			p.Limit = n
		}
	}
	if p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	return p
}
