package hrest

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPagination_PassesThroughValidValues(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/wallets/w/transactions?limit=50&offset=20", nil)
	limit, offset := pagination(req)
	assert.Equal(t, 50, limit)
	assert.Equal(t, 20, offset)
}

func TestPagination_Defaults(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/deposits/pending", nil)
	limit, offset := pagination(req)
	assert.Equal(t, 100, limit)
	assert.Equal(t, 0, offset)
}

func TestPagination_ClampsAbusiveValues(t *testing.T) {
	req := httptest.NewRequest("GET", "/?limit=1000000000&offset=-5", nil)
	limit, offset := pagination(req)
	assert.Equal(t, 1000, limit)
	assert.Equal(t, 0, offset)

	req = httptest.NewRequest("GET", "/?limit=-3", nil)
	limit, _ = pagination(req)
	assert.Equal(t, 100, limit)

	req = httptest.NewRequest("GET", "/?limit=abc&offset=xyz", nil)
	limit, offset = pagination(req)
	assert.Equal(t, 100, limit)
	assert.Equal(t, 0, offset)
}
