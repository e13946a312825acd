package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compilerun/internal/config"
)

func TestPlan_BuildModeCommands(t *testing.T) {
	cfg := config.Default()
	cfg.WorkDir = "/proj"

	stages := Plan(cfg, ModeBuild)
	require.Len(t, stages, 4)

	assert.Equal(t, []string{"bash", "build.sh", "all"}, stages[0].Command.Argv())
	assert.Equal(t, []string{"/proj/build/bin/galluzlang"}, stages[1].Command.Argv())
	assert.Equal(t, "/proj/out.ll", stages[1].Produces)
	assert.Equal(t, []string{"clang++", "-O3", "/proj/out.ll", "-o", "/proj/out.bin"}, stages[2].Command.Argv())
	assert.Equal(t, "/proj/out.bin", stages[2].Produces)
	assert.Equal(t, []string{"/proj/out.bin"}, stages[3].Command.Argv())
	assert.True(t, stages[3].ReportsExit)

	for _, s := range stages {
		assert.Equal(t, "/proj", s.Command.Dir)
		assert.Equal(t, string(s.Kind), s.Command.Name)
	}
}

func TestPlan_BootstrapModeOmitsNativeStages(t *testing.T) {
	cfg := config.Default()
	cfg.WorkDir = "/proj"

	stages := Plan(cfg, ModeBootstrap)
	require.Len(t, stages, 2)
	assert.Equal(t, StageBootstrapBuild, stages[0].Kind)
	assert.Equal(t, StageRunImplementation, stages[1].Kind)
	for _, s := range stages {
		assert.False(t, s.ReportsExit)
	}
}

func TestPlan_ExtraCompilerFlagsPrecedeInput(t *testing.T) {
	cfg := config.Default()
	cfg.WorkDir = "/proj"
	cfg.Native.Flags = []string{"-lm"}
	cfg.Native.OptimizationLevel = ""

	stages := Plan(cfg, ModeBuild)
	assert.Equal(t, []string{"clang++", "-lm", "/proj/out.ll", "-o", "/proj/out.bin"}, stages[2].Command.Argv())
}

func TestPlan_DoesNotAliasConfigSlices(t *testing.T) {
	cfg := config.Default()
	cfg.WorkDir = "/proj"
	stages := Plan(cfg, ModeBootstrap)

	stages[0].Command.Args[0] = "mutated"
	assert.Equal(t, "build.sh", cfg.Build.Command[1])
}

func TestPlanHash(t *testing.T) {
	cfg := config.Default()
	cfg.WorkDir = "/proj"

	h1 := PlanHash(ModeBuild, Plan(cfg, ModeBuild))
	h2 := PlanHash(ModeBuild, Plan(cfg, ModeBuild))
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)

	assert.NotEqual(t, h1, PlanHash(ModeBootstrap, Plan(cfg, ModeBootstrap)))

	cfg.Native.OptimizationLevel = "2"
	assert.NotEqual(t, h1, PlanHash(ModeBuild, Plan(cfg, ModeBuild)))
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		raw        string
		mode       Mode
		recognized bool
	}{
		{"", ModeBootstrap, true},
		{"build", ModeBuild, true},
		{"other", ModeBootstrap, false},
		{"BUILD", ModeBootstrap, false},
		{" build", ModeBootstrap, false},
		{"bootstrap", ModeBootstrap, false},
	}
	for _, tt := range tests {
		mode, ok := ParseMode(tt.raw)
		assert.Equal(t, tt.mode, mode, "mode for %q", tt.raw)
		assert.Equal(t, tt.recognized, ok, "recognized for %q", tt.raw)
	}
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("fail-fast")
	require.NoError(t, err)
	assert.Equal(t, PolicyFailFast, p)

	_, err = ParsePolicy("")
	assert.Error(t, err)

	// Every policy the config accepts parses to the matching constant.
	for raw, want := range map[string]Policy{
		config.PolicyContinue: PolicyContinue,
		config.PolicyFailFast: PolicyFailFast,
	} {
		p, err := ParsePolicy(raw)
		require.NoError(t, err)
		assert.Equal(t, want, p)
	}
}

func TestStageResult_Failed(t *testing.T) {
	tests := []struct {
		name string
		res  StageResult
		want bool
	}{
		{name: "clean exit", res: StageResult{Launched: true}, want: false},
		{name: "non-zero exit", res: StageResult{Launched: true, ExitCode: 3}, want: true},
		{name: "never launched", res: StageResult{ExitCode: 127}, want: true},
		{name: "launched with wait error", res: StageResult{Launched: true, Err: assert.AnError}, want: true},
		{name: "skipped", res: StageResult{Skipped: true}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.res.Failed())
		})
	}
}
