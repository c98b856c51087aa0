// Package config carries the interpreter's constants and optional
// per-directory options.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Options are interpreter settings read from an optional lox.yml next to
// the script (or in the working directory for the REPL).
type Options struct {
	// Prompt is printed before each REPL line when stdin is a terminal
	Prompt string `yaml:"prompt"`

	// Disassemble dumps each compiled chunk before it runs
	Disassemble bool `yaml:"disassemble"`

	// Trace disassembles every instruction as it executes
	Trace bool `yaml:"trace"`
}

// DefaultOptions returns the settings used when no options file exists
func DefaultOptions() Options {
	return Options{Prompt: "> "}
}

// LoadOptions reads dir/lox.yml. A missing file yields the defaults with a
// nil error; a malformed file yields the defaults and the decode error.
func LoadOptions(dir string) (Options, error) {
	opts := DefaultOptions()

	data, err := os.ReadFile(filepath.Join(dir, OptionsFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return opts, nil
		}
		return opts, err
	}

	if err := yaml.Unmarshal(data, &opts); err != nil {
		return DefaultOptions(), err
	}
	if opts.Prompt == "" {
		opts.Prompt = DefaultOptions().Prompt
	}
	return opts, nil
}
