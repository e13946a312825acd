// Package config holds the explicit configuration of a compilerun pipeline:
// where the toolchain lives, which commands each stage runs and where the
// intermediate artifact and native binary are written.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultFileName is looked up in the working directory when no config path is given.
const DefaultFileName = "compilerun.yaml"

// Policy names accepted in configuration.
const (
	PolicyContinue = "continue"
	PolicyFailFast = "fail-fast"
)

// Config holds all compilerun configuration.
type Config struct {
	// WorkDir is the directory every stage runs in and every relative path
	// is resolved against.
	WorkDir string `yaml:"workdir"`

	// Build configures the bootstrap build of the language implementation.
	Build BuildConfig `yaml:"build"`

	// Implementation configures the freshly built compiler run.
	Implementation ImplementationConfig `yaml:"implementation"`

	// Native configures the native backend compiler.
	Native NativeConfig `yaml:"native"`

	// Env is added to the environment of every stage.
	Env map[string]string `yaml:"env"`

	// Policy selects failure handling: "continue" or "fail-fast".
	Policy string `yaml:"policy"`

	// StateDir holds run history. Relative to WorkDir.
	StateDir string `yaml:"state_dir"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// BuildConfig describes the project's own build procedure.
type BuildConfig struct {
	Command []string `yaml:"command"`

	// OutputDir is where the build leaves the implementation executable.
	OutputDir string `yaml:"output_dir"`
}

// ImplementationConfig describes how the built implementation is invoked.
type ImplementationConfig struct {
	// Name is the executable's file name inside Build.OutputDir.
	Name string   `yaml:"name"`
	Args []string `yaml:"args"`

	// Artifact is the intermediate code the implementation emits.
	Artifact string `yaml:"artifact"`
}

// NativeConfig describes the native backend compile.
type NativeConfig struct {
	Compiler          string   `yaml:"compiler"`
	OptimizationLevel string   `yaml:"optimization_level"`
	Flags             []string `yaml:"flags"`

	// Binary is the executable the native compiler produces.
	Binary string `yaml:"binary"`
}

// LoggingConfig configures driver logs (never child output).
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console, json
}

// Default returns the historical toolchain layout.
func Default() *Config {
	return &Config{
		WorkDir: ".",
		Build: BuildConfig{
			Command:   []string{"bash", "build.sh", "all"},
			OutputDir: filepath.Join("build", "bin"),
		},
		Implementation: ImplementationConfig{
			Name:     "galluzlang",
			Args:     []string{},
			Artifact: "out.ll",
		},
		Native: NativeConfig{
			Compiler:          "clang++",
			OptimizationLevel: "3",
			Flags:             []string{},
			Binary:            "out.bin",
		},
		Env:      map[string]string{},
		Policy:   PolicyContinue,
		StateDir: ".compilerun",
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads configuration from a YAML file on top of the defaults.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// ApplyEnv applies environment variable overrides.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("COMPILERUN_WORKDIR"); v != "" {
		c.WorkDir = v
	}
	if v := os.Getenv("COMPILERUN_CXX"); v != "" {
		c.Native.Compiler = v
	}
	if v := os.Getenv("COMPILERUN_OPT"); v != "" {
		c.Native.OptimizationLevel = v
	}
	if v := os.Getenv("COMPILERUN_POLICY"); v != "" {
		c.Policy = v
	}
	if v := os.Getenv("COMPILERUN_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.WorkDir) == "" {
		errs = append(errs, errors.New("workdir is required"))
	}
	if len(c.Build.Command) == 0 || strings.TrimSpace(c.Build.Command[0]) == "" {
		errs = append(errs, errors.New("build.command is required"))
	}
	if strings.TrimSpace(c.Implementation.Name) == "" {
		errs = append(errs, errors.New("implementation.name is required"))
	}
	if strings.TrimSpace(c.Implementation.Artifact) == "" {
		errs = append(errs, errors.New("implementation.artifact is required"))
	}
	if strings.TrimSpace(c.Native.Compiler) == "" {
		errs = append(errs, errors.New("native.compiler is required"))
	}
	if strings.TrimSpace(c.Native.Binary) == "" {
		errs = append(errs, errors.New("native.binary is required"))
	}
	if strings.ContainsAny(c.Native.OptimizationLevel, " \t") {
		errs = append(errs, fmt.Errorf("invalid native.optimization_level %q", c.Native.OptimizationLevel))
	}
	switch c.Policy {
	case PolicyContinue, PolicyFailFast:
	default:
		errs = append(errs, fmt.Errorf("invalid policy %q (expected %s|%s)", c.Policy, PolicyContinue, PolicyFailFast))
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("invalid logging.level %q", c.Logging.Level))
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("invalid logging.format %q", c.Logging.Format))
	}
	return errors.Join(errs...)
}

// Resolve makes WorkDir absolute. After Resolve no path helper consults the
// process working directory.
func (c *Config) Resolve() error {
	abs, err := filepath.Abs(c.WorkDir)
	if err != nil {
		return fmt.Errorf("resolving workdir: %w", err)
	}
	c.WorkDir = filepath.Clean(abs)
	return nil
}

func (c *Config) under(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(c.WorkDir, p)
}

// ImplementationPath is the built language implementation executable.
func (c *Config) ImplementationPath() string {
	return c.under(filepath.Join(c.Build.OutputDir, c.Implementation.Name))
}

// ArtifactPath is the intermediate artifact location.
func (c *Config) ArtifactPath() string { return c.under(c.Implementation.Artifact) }

// BinaryPath is the native binary location.
func (c *Config) BinaryPath() string { return c.under(c.Native.Binary) }

// StatePath is the run history root.
func (c *Config) StatePath() string { return c.under(c.StateDir) }

// OptimizationFlag renders the optimization level as a compiler flag,
// e.g. "-O3". An empty level disables the flag.
func (c *Config) OptimizationFlag() string {
	if c.Native.OptimizationLevel == "" {
		return ""
	}
	return "-O" + strings.TrimPrefix(c.Native.OptimizationLevel, "-O")
}
