package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePage(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{"", 1},
		{"abc", 1},
		{"0", 1},
		{"-3", 1},
		{"1.5", 1},
		{" 2 ", 2},
		{"7", 7},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ParsePage(tt.raw), "raw=%q", tt.raw)
	}
}

func TestPaginate_ClampsOutOfRangePage(t *testing.T) {
	m := Paginate(10, 99, DefaultPageSize)

	assert.Equal(t, 1, m.Page, "10 items fit on a single default-size page")
	assert.Equal(t, 1, m.TotalPages)
	assert.False(t, m.HasPrev)
	assert.False(t, m.HasNext)
}

func TestPaginate_EmptySetStillHasOnePage(t *testing.T) {
	m := Paginate(0, 1, DefaultPageSize)

	assert.Equal(t, 1, m.Page)
	assert.Equal(t, 1, m.TotalPages)
	assert.Equal(t, 0, m.TotalItems)

	start, end := m.Bounds()
	assert.Equal(t, 0, start)
	assert.Equal(t, 0, end)
}

func TestPaginate_MiddlePage(t *testing.T) {
	m := Paginate(25, 2, 10)

	assert.Equal(t, 2, m.Page)
	assert.Equal(t, 3, m.TotalPages)
	assert.True(t, m.HasPrev)
	assert.True(t, m.HasNext)

	start, end := m.Bounds()
	assert.Equal(t, 10, start)
	assert.Equal(t, 20, end)
}

func TestPaginate_LastPartialPage(t *testing.T) {
	m := Paginate(25, 3, 10)

	assert.Equal(t, 3, m.Page)
	assert.False(t, m.HasNext)

	start, end := m.Bounds()
	assert.Equal(t, 20, start)
	assert.Equal(t, 25, end)
}

func TestPaginate_WindowsCoverEveryItemOnce(t *testing.T) {
	const total, size = 37, 12

	covered := 0
	meta := Paginate(total, 1, size)
	for page := 1; page <= meta.TotalPages; page++ {
		start, end := Paginate(total, page, size).Bounds()
		assert.LessOrEqual(t, start, end)
		covered += end - start
	}
	assert.Equal(t, total, covered)
}

func TestFilter(t *testing.T) {
	products := []Product{
		{ID: 1, Code: "P0001", Description: "Red Widget"},
		{ID: 2, Code: "P0002", Description: "Blue Gadget"},
		{ID: 3, Code: "G-100", Description: "Green Widget"},
	}

	assert.Len(t, Filter(products, ""), 3)
	assert.Len(t, Filter(products, "  "), 3)

	widgets := Filter(products, "WIDGET")
	assert.Len(t, widgets, 2)
	assert.Equal(t, 1, widgets[0].ID)
	assert.Equal(t, 3, widgets[1].ID)

	byCode := Filter(products, "g-1")
	assert.Len(t, byCode, 1)
	assert.Equal(t, 3, byCode[0].ID)

	assert.Empty(t, Filter(products, "purple"))
}
