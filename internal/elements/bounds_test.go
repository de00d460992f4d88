package elements

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseBounds(t *testing.T) {
	t.Run("parses corners", func(t *testing.T) {
		x1, y1, x2, y2, ok := ParseBounds("[50,200][300,260]")
		assert.True(t, ok)
		assert.Equal(t, []int{50, 200, 300, 260}, []int{x1, y1, x2, y2})
	})

	t.Run("accepts negative coordinates", func(t *testing.T) {
		x1, y1, _, _, ok := ParseBounds("[-10,-20][100,200]")
		assert.True(t, ok)
		assert.Equal(t, -10, x1)
		assert.Equal(t, -20, y1)
	})

	t.Run("rejects other shapes", func(t *testing.T) {
		for _, s := range []string{"", "[1,2]", "[1,2][3,4][5,6]", "1,2,3,4", "[a,b][c,d]"} {
			_, _, _, _, ok := ParseBounds(s)
			assert.False(t, ok, "input %q", s)
		}
	})

	t.Run("round trips through format", func(t *testing.T) {
		s := FormatBounds(0, 0, 1080, 1920)
		assert.Equal(t, "[0,0][1080,1920]", s)
		x1, y1, x2, y2, ok := ParseBounds(s)
		assert.True(t, ok)
		assert.Equal(t, "[0,0][1080,1920]", FormatBounds(x1, y1, x2, y2))
	})
}
