package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// Pagination bounds.
const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

// Pagination is the page descriptor attached to every list response.
type Pagination struct {
	Page  int   `json:"page"`  // 1-based page index.
	Limit int   `json:"limit"` // Page size.
	Total int64 `json:"total"` // Total matching rows.
	Pages int64 `json:"pages"` // Total page count.
}

// ParsePagination reads page and limit query parameters, clamping them to
// sane bounds. Out-of-range values fall back rather than erroring.
func ParsePagination(c *gin.Context) (page, limit int) {
	page = defaultPage
	if raw := c.Query("page"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 1 {
			page = n
		}
	}
	limit = defaultLimit
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 1 {
			limit = n
			if limit > maxLimit {
				limit = maxLimit
			}
		}
	}
	return page, limit
}

// NewPagination builds the page descriptor for a completed listing.
func NewPagination(page, limit int, total int64) Pagination {
	pages := total / int64(limit)
	if total%int64(limit) != 0 {
		pages++
	}
	return Pagination{Page: page, Limit: limit, Total: total, Pages: pages}
}

// ParseDateRange reads optional startDate and endDate query parameters as
// RFC 3339 or plain dates. When both are present the end must come after
// the start.
func ParseDateRange(c *gin.Context) (from, to *time.Time, err error) {
	parse := func(raw string) (*time.Time, error) {
		if t, errT := time.Parse(time.RFC3339, raw); errT == nil {
			return &t, nil
		}
		t, errD := time.Parse("2006-01-02", raw)
		if errD != nil {
			return nil, fmt.Errorf("invalid date %q", raw)
		}
		return &t, nil
	}
	if raw := c.Query("startDate"); raw != "" {
		if from, err = parse(raw); err != nil {
			return nil, nil, err
		}
	}
	if raw := c.Query("endDate"); raw != "" {
		if to, err = parse(raw); err != nil {
			return nil, nil, err
		}
	}
	if from != nil && to != nil && !to.After(*from) {
		return nil, nil, errors.New("endDate must be after startDate")
	}
	return from, to, nil
}

// OK writes a success envelope.
func OK(c *gin.Context, status int, data gin.H) {
	payload := gin.H{"success": true}
	for k, v := range data {
		payload[k] = v
	}
	c.JSON(status, payload)
}

// Fail writes an error envelope.
func Fail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "message": message})
}

// BindingError writes a 400 envelope for a failed request bind. Validator
// failures are expanded per field so clients can highlight inputs.
func BindingError(c *gin.Context, errBind error) {
	var verrs validator.ValidationErrors
	if errors.As(errBind, &verrs) {
		fields := make([]gin.H, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, gin.H{
				"field":   fe.Field(),
				"rule":    fe.Tag(),
				"message": validationMessage(fe),
			})
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "validation failed",
			"errors":  fields,
		})
		return
	}
	Fail(c, http.StatusBadRequest, "invalid request body")
}

// validationMessage renders one field failure in plain words.
func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

// ParseID reads a numeric path parameter.
func ParseID(c *gin.Context, name string) (uint64, error) {
	id, errParse := strconv.ParseUint(c.Param(name), 10, 64)
	if errParse != nil || id == 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return id, nil
}
