package pipeline

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"

	"compilerun/internal/config"
	"compilerun/internal/core"
)

// StageKind identifies a pipeline stage. Values appear in traces and run records.
type StageKind string

const (
	StageBootstrapBuild    StageKind = "bootstrap-build"
	StageRunImplementation StageKind = "run-implementation"
	StageNativeCompile     StageKind = "native-compile"
	StageExecute           StageKind = "execute"
)

// Stage is one planned process invocation.
type Stage struct {
	Kind    StageKind
	Command core.Command

	// Produces is the file this stage is expected to leave behind, if any.
	// It is inspected after the stage for reporting only.
	Produces string

	// ReportsExit marks the stage whose exit status is printed.
	ReportsExit bool
}

// Plan returns the ordered stages for mode. The build and implementation
// stages are always present; native-compile and execute only in ModeBuild.
//
// cfg is expected to be resolved (absolute WorkDir).
func Plan(cfg *config.Config, mode Mode) []Stage {
	env := cfg.Env
	dir := cfg.WorkDir

	stages := []Stage{
		{
			Kind: StageBootstrapBuild,
			Command: core.Command{
				Name: string(StageBootstrapBuild),
				Path: cfg.Build.Command[0],
				Args: append([]string(nil), cfg.Build.Command[1:]...),
				Dir:  dir,
				Env:  env,
			},
		},
		{
			Kind: StageRunImplementation,
			Command: core.Command{
				Name: string(StageRunImplementation),
				Path: cfg.ImplementationPath(),
				Args: append([]string(nil), cfg.Implementation.Args...),
				Dir:  dir,
				Env:  env,
			},
			Produces: cfg.ArtifactPath(),
		},
	}

	if mode != ModeBuild {
		return stages
	}

	var compileArgs []string
	if flag := cfg.OptimizationFlag(); flag != "" {
		compileArgs = append(compileArgs, flag)
	}
	compileArgs = append(compileArgs, cfg.Native.Flags...)
	compileArgs = append(compileArgs, cfg.ArtifactPath(), "-o", cfg.BinaryPath())

	return append(stages,
		Stage{
			Kind: StageNativeCompile,
			Command: core.Command{
				Name: string(StageNativeCompile),
				Path: cfg.Native.Compiler,
				Args: compileArgs,
				Dir:  dir,
				Env:  env,
			},
			Produces: cfg.BinaryPath(),
		},
		Stage{
			Kind: StageExecute,
			Command: core.Command{
				Name: string(StageExecute),
				Path: cfg.BinaryPath(),
				Dir:  dir,
				Env:  env,
			},
			ReportsExit: true,
		},
	)
}

// PlanHash identifies a plan by its mode and each stage's kind and argv.
// Every field is length-prefixed so that distinct plans cannot collide by
// concatenation.
func PlanHash(mode Mode, stages []Stage) string {
	h := sha256.New()
	writeField := func(data string) {
		var n [8]byte
		binary.BigEndian.PutUint64(n[:], uint64(len(data)))
		h.Write(n[:])
		h.Write([]byte(data))
	}

	writeField(string(mode))
	for _, s := range stages {
		writeField(string(s.Kind))
		argv := s.Command.Argv()
		var n [8]byte
		binary.BigEndian.PutUint64(n[:], uint64(len(argv)))
		h.Write(n[:])
		for _, a := range argv {
			writeField(a)
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}
