package screenshot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)

	assert.False(t, s.Exists("100"))
	require.NoError(t, s.Save("100", []byte("png")))
	assert.True(t, s.Exists("100"))

	data, err := os.ReadFile(filepath.Join(dir, "steam", "100.png"))
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))
}
