package projection

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNew_DefaultsUpdatedAt(t *testing.T) {
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	p := New("order", created, time.Time{})
	assert.Equal(t, created, p.Metadata.UpdatedAt)

	later := created.Add(time.Hour)
	assert.Equal(t, later, New("order", created, later).Metadata.UpdatedAt)
}

func TestPage_HasMore(t *testing.T) {
	assert.True(t, Page[int]{Items: []int{1, 2}, Total: 5, Offset: 0, Limit: 2}.HasMore())
	assert.False(t, Page[int]{Items: []int{5}, Total: 5, Offset: 4, Limit: 2}.HasMore())
	assert.False(t, Page[int]{Total: 0, Limit: 20}.HasMore())
}
