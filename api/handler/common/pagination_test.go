package common_test

import (
	"encoding/base64"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/declog/declog/api/handler/common"
)

func parseWith(t *testing.T, query string) (*common.Pagination, error) {
	t.Helper()

	var (
		pagination *common.Pagination
		parseErr   error
	)
	app := fiber.New()
	app.Get("/test", func(c *fiber.Ctx) error {
		pagination, parseErr = common.ParsePagination(c)
		return nil
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/test"+query, nil), -1)
	require.NoError(t, err)
	resp.Body.Close()

	return pagination, parseErr
}

func TestParsePaginationDefaults(t *testing.T) {
	p, err := parseWith(t, "")
	require.NoError(t, err)
	assert.Equal(t, common.DefaultLimit, p.Limit)
	assert.Equal(t, common.DefaultOffset, p.Offset)
	assert.Equal(t, common.OrderDesc, p.Order)
}

func TestParsePaginationExplicit(t *testing.T) {
	p, err := parseWith(t, "?pagination.limit=10&pagination.offset=30&pagination.reverse=false")
	require.NoError(t, err)
	assert.Equal(t, 10, p.Limit)
	assert.Equal(t, 30, p.Offset)
	assert.Equal(t, common.OrderAsc, p.Order)
}

func TestParsePaginationKey(t *testing.T) {
	key := base64.StdEncoding.EncodeToString([]byte("200"))
	p, err := parseWith(t, "?pagination.key="+key+"&pagination.offset=5")
	require.NoError(t, err)
	// the key wins over an explicit offset
	assert.Equal(t, 200, p.Offset)
}

func TestParsePaginationInvalid(t *testing.T) {
	_, err := parseWith(t, "?pagination.limit=0")
	assert.Error(t, err)

	_, err = parseWith(t, "?pagination.limit=1001")
	assert.Error(t, err)

	_, err = parseWith(t, "?pagination.offset=-1")
	assert.Error(t, err)

	_, err = parseWith(t, "?pagination.key=not-base64!!")
	assert.Error(t, err)

	garbage := base64.StdEncoding.EncodeToString([]byte("minus one"))
	_, err = parseWith(t, "?pagination.key="+garbage)
	assert.Error(t, err)
}

func TestPaginationToResponse(t *testing.T) {
	p := &common.Pagination{Limit: 100, Offset: 100, Order: common.OrderDesc}

	res := p.ToResponse(350)
	require.NotNil(t, res.NextKey)
	next, err := base64.StdEncoding.DecodeString(*res.NextKey)
	require.NoError(t, err)
	assert.Equal(t, "200", string(next))

	require.NotNil(t, res.PreviousKey)
	prev, err := base64.StdEncoding.DecodeString(*res.PreviousKey)
	require.NoError(t, err)
	assert.Equal(t, "0", string(prev))

	assert.Equal(t, "350", res.Total)
}

func TestPaginationToResponseLastPage(t *testing.T) {
	p := &common.Pagination{Limit: 100, Offset: 0, Order: common.OrderDesc}

	res := p.ToResponse(42)
	assert.Nil(t, res.NextKey)
	assert.Nil(t, res.PreviousKey)
	assert.Equal(t, "42", res.Total)
}

func TestOrderBy(t *testing.T) {
	p := &common.Pagination{Order: common.OrderDesc}
	assert.Equal(t, "sequence DESC", p.OrderBy("sequence"))
	assert.Equal(t, "height DESC, position DESC", p.OrderBy("height", "position"))
}
