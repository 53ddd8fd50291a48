package common

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const (
	DefaultLimit  = 100
	MaxLimit      = 1000
	DefaultOffset = 0
	OrderDesc     = "DESC"
	OrderAsc      = "ASC"
)

type Pagination struct {
	Limit  int
	Offset int
	Order  string
}

type PaginationResponse struct {
	PreviousKey *string `json:"previous_key"`
	NextKey     *string `json:"next_key"`
	Total       string  `json:"total"`
}

// ParsePagination reads the pagination.* query parameters. A pagination.key
// is an opaque base64 offset handed out by a previous response; an explicit
// pagination.offset is used when no key is given.
func ParsePagination(c *fiber.Ctx) (*Pagination, error) {
	limit := c.QueryInt("pagination.limit", DefaultLimit)
	if limit < 1 || limit > MaxLimit {
		return nil, fmt.Errorf("pagination.limit must be between 1 and %d", MaxLimit)
	}

	offset := c.QueryInt("pagination.offset", DefaultOffset)
	if offset < 0 {
		return nil, errors.New("pagination.offset cannot be negative")
	}

	if key := c.Query("pagination.key"); key != "" {
		decoded, err := base64.StdEncoding.DecodeString(key)
		if err != nil {
			return nil, errors.New("pagination.key must be a valid base64 encoded string")
		}
		parsed, err := strconv.Atoi(string(decoded))
		if err != nil || parsed < 0 {
			return nil, errors.New("pagination.key must decode to a nonnegative integer")
		}
		offset = parsed
	}

	order := OrderDesc
	if !c.QueryBool("pagination.reverse", true) {
		order = OrderAsc
	}

	return &Pagination{
		Limit:  limit,
		Offset: offset,
		Order:  order,
	}, nil
}

func (p *Pagination) OrderBy(keys ...string) string {
	parts := make([]string, len(keys))
	for i, key := range keys {
		parts[i] = fmt.Sprintf("%s %s", key, p.Order)
	}
	return strings.Join(parts, ", ")
}

// Apply orders, offsets and limits the query by the given sort keys.
func (p *Pagination) Apply(query *gorm.DB, keys ...string) *gorm.DB {
	return query.Order(p.OrderBy(keys...)).Offset(p.Offset).Limit(p.Limit)
}

func (p *Pagination) ToResponse(total int64) (res PaginationResponse) {
	if total > int64(p.Offset+p.Limit) {
		nextKey := base64.StdEncoding.EncodeToString([]byte(strconv.Itoa(p.Offset + p.Limit)))
		res.NextKey = &nextKey
	}
	if p.Offset > 0 && p.Offset >= p.Limit {
		previousKey := base64.StdEncoding.EncodeToString([]byte(strconv.Itoa(p.Offset - p.Limit)))
		res.PreviousKey = &previousKey
	}
	res.Total = strconv.FormatInt(total, 10)
	return
}
