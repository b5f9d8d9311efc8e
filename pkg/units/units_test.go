package units

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBinarySizeConstants(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1<<10, KiB)
	assert.Equal(t, 1<<20, MiB)
	assert.Equal(t, 1<<30, GiB)
	assert.Equal(t, 1<<40, TiB)
}

func TestBinarySizeRelationships(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1024*KiB, MiB)
	assert.Equal(t, 1024*MiB, GiB)
	assert.Equal(t, 1024*GiB, TiB)
}
