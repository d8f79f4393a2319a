package offset_elevation_corrector

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCorrectElevation(t *testing.T) {
	c := NewOffsetElevationCorrector(-47.5)
	require.Equal(t, 52.5, c.CorrectElevation(2.35, 48.85, 100))
}
