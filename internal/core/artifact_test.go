package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInspectArtifact_Missing(t *testing.T) {
	p := filepath.Join(t.TempDir(), "out.ll")

	a, err := InspectArtifact(p)
	require.NoError(t, err)
	assert.False(t, a.Exists)
	assert.Equal(t, p, a.Path)
	assert.Empty(t, a.SHA256)
}

func TestInspectArtifact_DigestTracksContent(t *testing.T) {
	p := filepath.Join(t.TempDir(), "out.ll")
	require.NoError(t, os.WriteFile(p, []byte("define i32 @main() { ret i32 0 }\n"), 0o644))

	first, err := InspectArtifact(p)
	require.NoError(t, err)
	assert.True(t, first.Exists)
	assert.EqualValues(t, 33, first.Size)
	assert.Len(t, first.SHA256, 64)

	again, err := InspectArtifact(p)
	require.NoError(t, err)
	assert.Equal(t, first, again)

	require.NoError(t, os.WriteFile(p, []byte("define i32 @main() { ret i32 42 }\n"), 0o644))
	changed, err := InspectArtifact(p)
	require.NoError(t, err)
	assert.NotEqual(t, first.SHA256, changed.SHA256)
}

func TestInspectArtifact_DirectoryIsError(t *testing.T) {
	_, err := InspectArtifact(t.TempDir())
	require.Error(t, err)
}
