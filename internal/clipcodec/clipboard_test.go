package clipcodec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryClipboard(t *testing.T) {
	var c Clipboard = &Memory{}
	text, err := c.Paste()
	require.NoError(t, err)
	require.Empty(t, text)

	require.NoError(t, c.Copy("a\tb"))
	text, err = c.Paste()
	require.NoError(t, err)
	require.Equal(t, "a\tb", text)
}
