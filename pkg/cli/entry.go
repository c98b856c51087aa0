// Package cli implements the lox command: a REPL when run with no
// arguments, whole-file execution when given a script path.
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"

	"github.com/funvibe/lox/internal/config"
	"github.com/funvibe/lox/internal/vm"
)

// Entry runs the interpreter and returns the process exit code.
// args is the command line without the program name.
func Entry(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	switch len(args) {
	case 0:
		return repl(stdin, stdout, stderr)
	case 1:
		return runFile(args[0], stdout, stderr)
	default:
		fmt.Fprintln(stderr, "Usage: lox [script]")
		return config.ExitUsage
	}
}

// runFile executes a whole script as one interpreter session
func runFile(path string, stdout, stderr io.Writer) int {
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stderr, "Could not read %s: %v\n", path, err)
		return config.ExitUsage
	}

	opts := loadOptions(filepath.Dir(path), stderr)

	machine := newSession(opts, stdout, stderr)
	defer machine.Free()

	return exitCode(machine.Interpret(string(source)))
}

// repl reads one line at a time. Each line is a fresh session: globals do
// not persist between lines, and a failed line does not end the loop.
func repl(stdin io.Reader, stdout, stderr io.Writer) int {
	opts := loadOptions(".", stderr)
	prompt := replPrompt(stdin, opts)

	scanner := bufio.NewScanner(stdin)
	for {
		if prompt != "" {
			fmt.Fprint(stdout, prompt)
		}
		if !scanner.Scan() {
			break
		}

		machine := newSession(opts, stdout, stderr)
		_ = machine.Interpret(scanner.Text())
		machine.Free()
	}

	return config.ExitOK
}

func newSession(opts config.Options, stdout, stderr io.Writer) *vm.VM {
	machine := vm.New()
	machine.SetOutput(stdout)
	machine.SetErrorOutput(stderr)
	machine.SetOptions(opts)
	machine.RegisterBuiltins()
	return machine
}

func loadOptions(dir string, stderr io.Writer) config.Options {
	opts, err := config.LoadOptions(dir)
	if err != nil {
		fmt.Fprintf(stderr, "Ignoring %s: %v\n", config.OptionsFileName, err)
	}
	return opts
}

// replPrompt returns the prompt string, or "" when stdin is not a terminal
func replPrompt(stdin io.Reader, opts config.Options) string {
	f, ok := stdin.(*os.File)
	if !ok {
		return ""
	}
	if isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()) {
		return opts.Prompt
	}
	return ""
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return config.ExitOK
	case errors.Is(err, vm.ErrCompile):
		return config.ExitCompileError
	default:
		return config.ExitRuntimeError
	}
}
