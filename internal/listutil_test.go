package internal

import (
	"net/http/httptest"
	"testing"

	"equiptrack-api/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseListParams_Defaults(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/equipment", nil)
	params := parseListParams(req)

	assert.Equal(t, 1, params.page)
	assert.Equal(t, 20, params.perPage)
	assert.Empty(t, params.q)
	assert.Nil(t, params.commentCount)
}

func TestParseListParams_Values(t *testing.T) {
	req := httptest.NewRequest("GET",
		"/api/equipment?q=%20laptop%20&category=Computers&status=Active&comment_count=2&page=3&per_page=50", nil)
	params := parseListParams(req)

	assert.Equal(t, "laptop", params.q)
	assert.Equal(t, "Computers", params.category)
	assert.Equal(t, "Active", params.status)
	require.NotNil(t, params.commentCount)
	assert.Equal(t, 2, *params.commentCount)
	assert.Equal(t, 3, params.page)
	assert.Equal(t, 50, params.perPage)
}

func TestParseListParams_IgnoresBadValues(t *testing.T) {
	req := httptest.NewRequest("GET",
		"/api/equipment?comment_count=many&page=-1&per_page=0", nil)
	params := parseListParams(req)

	assert.Nil(t, params.commentCount)
	assert.Equal(t, 1, params.page)
	assert.Equal(t, 20, params.perPage)
}

func TestParseListParams_PerPageCap(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/equipment?per_page=5000", nil)
	params := parseListParams(req)
	assert.Equal(t, 200, params.perPage)
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 1, totalPages(0, 0))
	assert.Equal(t, 0, totalPages(0, 20))
	assert.Equal(t, 1, totalPages(1, 20))
	assert.Equal(t, 1, totalPages(20, 20))
	assert.Equal(t, 2, totalPages(21, 20))
	assert.Equal(t, 5, totalPages(100, 20))
}

func intPtr(v int) *int { return &v }

func TestBuildEquipmentFilter(t *testing.T) {
	t.Run("no filters", func(t *testing.T) {
		where, args := buildEquipmentFilter(listParams{})
		assert.Empty(t, where)
		assert.Empty(t, args)
	})

	t.Run("free text", func(t *testing.T) {
		where, args := buildEquipmentFilter(listParams{q: "laptop"})
		assert.Contains(t, where, "ILIKE $1")
		assert.Equal(t, []interface{}{"%laptop%"}, args)
	})

	t.Run("all filters", func(t *testing.T) {
		where, args := buildEquipmentFilter(listParams{
			q: "x", category: "Computers", status: "Active", commentCount: intPtr(2),
		})
		assert.Contains(t, where, "e.category = $2")
		assert.Contains(t, where, "e.status = $3")
		assert.Contains(t, where, "cc.cnt = $4")
		assert.Len(t, args, 4)
	})

	t.Run("zero comments", func(t *testing.T) {
		where, args := buildEquipmentFilter(listParams{commentCount: intPtr(0)})
		assert.Contains(t, where, "cc.cnt IS NULL")
		assert.Empty(t, args)
	})

	t.Run("three or more comments", func(t *testing.T) {
		where, args := buildEquipmentFilter(listParams{commentCount: intPtr(7)})
		assert.Contains(t, where, "cc.cnt >= 3")
		assert.Empty(t, args)
	})
}

func TestCollectDynamicHeaders(t *testing.T) {
	item := func(pairs ...string) models.EquipmentListItem {
		var it models.EquipmentListItem
		for i := 0; i+1 < len(pairs); i += 2 {
			it.Extra.Set(pairs[i], pairs[i+1])
		}
		return it
	}

	items := []models.EquipmentListItem{
		item("Warranty", "2027", "id", "9", "Supplier", "Acme"),
		item("Serial", "X1", "Warranty", "2030", "created_at", "yesterday"),
	}

	headers := collectDynamicHeaders(items)

	// First-seen order, reserved names dropped, no duplicates.
	assert.Equal(t, []string{"Warranty", "Supplier", "Serial"}, headers)
}

func TestCollectDynamicHeaders_Empty(t *testing.T) {
	assert.Empty(t, collectDynamicHeaders(nil))
}
