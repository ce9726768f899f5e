package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_AppliesDefaultsForOmittedKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "forge.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
max_textures = 8192
anisotropy = "x4"
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, uint32(8192), cfg.MaxTextures)
	assert.Equal(t, Anisotropy4x, cfg.Anisotropy)
	// Untouched keys keep Default()'s value.
	assert.Equal(t, Default().FramesInFlight, cfg.FramesInFlight)
	assert.Equal(t, Default().StagingUploadBudgetBytes, cfg.StagingUploadBudgetBytes)
}

func TestAnisotropy_Samples(t *testing.T) {
	assert.Equal(t, 1, AnisotropyNone.Samples())
	assert.Equal(t, 16, Anisotropy16x.Samples())
}
