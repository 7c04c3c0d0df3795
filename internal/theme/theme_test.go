package theme

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSuccessLine_PlainForBuffers(t *testing.T) {
	var buf bytes.Buffer

	for _, color := range []bool{true, false} {
		got := New(&buf, color).SuccessLine("Done.")
		assert.Equal(t, "[ SUCCESS ] Done.", got)
	}
}
