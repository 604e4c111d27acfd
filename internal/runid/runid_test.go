package runid

import (
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_SortableAndParseable(t *testing.T) {
	now := time.Date(2024, 3, 1, 19, 0, 0, 0, time.UTC)
	a := New(now)
	b := New(now)
	c := New(now.Add(time.Second))

	assert.Len(t, a, 26)
	assert.Less(t, a, b)
	assert.Less(t, b, c)

	id, err := ulid.Parse(a)
	require.NoError(t, err)
	assert.Equal(t, now.UnixMilli(), int64(id.Time()))
}
