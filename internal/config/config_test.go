package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_HistoricalLayout(t *testing.T) {
	cfg := Default()
	cfg.WorkDir = "/proj"

	require.NoError(t, cfg.Validate())
	assert.Equal(t, []string{"bash", "build.sh", "all"}, cfg.Build.Command)
	assert.Equal(t, "/proj/build/bin/galluzlang", cfg.ImplementationPath())
	assert.Equal(t, "/proj/out.ll", cfg.ArtifactPath())
	assert.Equal(t, "/proj/out.bin", cfg.BinaryPath())
	assert.Equal(t, "clang++", cfg.Native.Compiler)
	assert.Equal(t, "-O3", cfg.OptimizationFlag())
	assert.Equal(t, PolicyContinue, cfg.Policy)
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), DefaultFileName))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_OverridesOnlyGivenKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	yml := `
native:
  compiler: g++
  optimization_level: "2"
implementation:
  artifact: gen/out.ll
policy: fail-fast
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	cfg.WorkDir = "/w"

	assert.Equal(t, "g++", cfg.Native.Compiler)
	assert.Equal(t, "-O2", cfg.OptimizationFlag())
	assert.Equal(t, "/w/gen/out.ll", cfg.ArtifactPath())
	assert.Equal(t, "out.bin", cfg.Native.Binary)
	assert.Equal(t, PolicyFailFast, cfg.Policy)
	assert.Equal(t, "galluzlang", cfg.Implementation.Name)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	require.NoError(t, os.WriteFile(path, []byte("native: [unclosed"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("COMPILERUN_CXX", "g++-13")
	t.Setenv("COMPILERUN_OPT", "s")
	t.Setenv("COMPILERUN_WORKDIR", "/elsewhere")

	cfg := Default()
	cfg.ApplyEnv()

	assert.Equal(t, "g++-13", cfg.Native.Compiler)
	assert.Equal(t, "-Os", cfg.OptimizationFlag())
	assert.Equal(t, "/elsewhere", cfg.WorkDir)
}

func TestValidate_JoinsAllProblems(t *testing.T) {
	cfg := Default()
	cfg.Build.Command = nil
	cfg.Native.Binary = ""
	cfg.Policy = "sometimes"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "build.command is required")
	assert.Contains(t, err.Error(), "native.binary is required")
	assert.Contains(t, err.Error(), `invalid policy "sometimes"`)
}

func TestResolve_MakesWorkDirAbsolute(t *testing.T) {
	cfg := Default()
	cfg.WorkDir = "rel/../proj"
	require.NoError(t, cfg.Resolve())

	assert.True(t, filepath.IsAbs(cfg.WorkDir))
	assert.Equal(t, "proj", filepath.Base(cfg.WorkDir))
	assert.Equal(t, filepath.Join(cfg.WorkDir, "out.bin"), cfg.BinaryPath())
}

func TestOptimizationFlag_AcceptsPrefixedLevel(t *testing.T) {
	cfg := Default()
	cfg.Native.OptimizationLevel = "-O1"
	assert.Equal(t, "-O1", cfg.OptimizationFlag())

	cfg.Native.OptimizationLevel = ""
	assert.Equal(t, "", cfg.OptimizationFlag())
}

func TestAbsolutePathsAreKept(t *testing.T) {
	cfg := Default()
	cfg.WorkDir = "/w"
	cfg.Native.Binary = "/tmp/x.bin"
	assert.Equal(t, "/tmp/x.bin", cfg.BinaryPath())
}
