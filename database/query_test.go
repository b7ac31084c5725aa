package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var bookingSorts = SortColumns{
	"created_at":     "created_at",
	"booking_number": "booking_number",
}

func TestNewListParams(t *testing.T) {
	p := NewListParams(0, 1000, "created_at; DROP TABLE bookings", "asc", bookingSorts, "created_at")
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, MaxPageSize, p.PageSize)
	assert.Equal(t, "created_at", p.Sort)
	assert.False(t, p.Desc)

	p = NewListParams(3, 10, "BOOKING_NUMBER", "", bookingSorts, "created_at")
	assert.Equal(t, "booking_number", p.Sort)
	assert.True(t, p.Desc)
	assert.Equal(t, 20, p.Offset())
}
