package fixture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	ds := New(DefaultSize, 42)

	require.Equal(t, DefaultSize, ds.Len())
	assert.Equal(t, int64(42), ds.Seed())

	for i, rec := range ds.Records() {
		assert.Equal(t, float64(i), rec.ID)
		assert.GreaterOrEqual(t, rec.Value, 0.0)
		assert.Less(t, rec.Value, 1.0)
	}
}

func TestNewDeterministic(t *testing.T) {
	a := New(100, 7)
	b := New(100, 7)
	c := New(100, 8)

	assert.Equal(t, a.Records(), b.Records())
	assert.NotEqual(t, a.Records(), c.Records())
}

func TestNewZeroSeed(t *testing.T) {
	ds := New(10, 0)

	assert.NotZero(t, ds.Seed())
	assert.Equal(t, 10, ds.Len())
}

func TestNewNegativeSize(t *testing.T) {
	ds := New(-5, 1)

	assert.Equal(t, 0, ds.Len())
	assert.NotNil(t, ds.Records())
}
