package core

import (
	"sort"
	"strings"
)

// Command is a single external process invocation.
//
// Commands carry no shell semantics: Path is executed directly with Args.
// A relative Path containing a separator is evaluated relative to Dir.
type Command struct {
	// Name is the logical label used in logs and traces.
	Name string `json:"name" yaml:"name"`

	// Path is the program to execute. A bare name is looked up in PATH.
	Path string `json:"path" yaml:"path"`

	// Args are the arguments passed after Path.
	Args []string `json:"args,omitempty" yaml:"args,omitempty"`

	// Dir is the working directory of the process.
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`

	// Env is added on top of the inherited host environment.
	Env map[string]string `json:"env,omitempty" yaml:"env,omitempty"`
}

// Argv returns the full argument vector, program first.
func (c Command) Argv() []string {
	argv := make([]string, 0, len(c.Args)+1)
	argv = append(argv, c.Path)
	return append(argv, c.Args...)
}

// String renders the command line for humans. Arguments containing
// whitespace are single-quoted.
func (c Command) String() string {
	argv := c.Argv()
	parts := make([]string, len(argv))
	for i, a := range argv {
		if a == "" || strings.ContainsAny(a, " \t\n'\"") {
			parts[i] = "'" + strings.ReplaceAll(a, "'", `'\''`) + "'"
			continue
		}
		parts[i] = a
	}
	return strings.Join(parts, " ")
}

// envPairs renders Env as KEY=VALUE entries in sorted key order.
func (c Command) envPairs() []string {
	if len(c.Env) == 0 {
		return nil
	}
	keys := make([]string, 0, len(c.Env))
	for k := range c.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+c.Env[k])
	}
	return out
}
