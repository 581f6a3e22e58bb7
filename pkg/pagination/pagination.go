package pagination

import (
	"errors"
	"math"
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

var ErrInvalidParams = errors.New("page and limit must be positive integers")

// Params holds validated pagination parameters. Limit 0 means the whole listing.
type Params struct {
	Page   int
	Limit  int
	Offset int
}

// Paged reports whether the caller asked for a window of the listing.
func (p Params) Paged() bool { return p.Limit > 0 }

// Parse reads page/limit from the query string. Without either parameter the
// full listing is requested; a page without a limit uses DefaultLimit.
func Parse(c *gin.Context) (Params, error) {
	rawPage, hasPage := c.GetQuery("page")
	rawLimit, hasLimit := c.GetQuery("limit")
	if !hasPage && !hasLimit {
		return Params{}, nil
	}

	page, limit := DefaultPage, DefaultLimit
	var err error
	if hasPage {
		if page, err = strconv.Atoi(rawPage); err != nil || page < 1 {
			return Params{}, ErrInvalidParams
		}
	}
	if hasLimit {
		if limit, err = strconv.Atoi(rawLimit); err != nil || limit < 1 {
			return Params{}, ErrInvalidParams
		}
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if page-1 > math.MaxInt/limit {
		return Params{}, ErrInvalidParams
	}

	return Params{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}, nil
}
