package config

// Version is the current Lox interpreter version.
// Set at build time via -ldflags or by writing to this file.
var Version = "0.1.0"

const SourceFileExt = ".lox"

// Process exit codes, following the sysexits conventions the reference
// interpreters use.
const (
	ExitOK           = 0
	ExitUsage        = 64
	ExitCompileError = 65
	ExitRuntimeError = 70
)

// OptionsFileName is the optional per-directory interpreter options file
const OptionsFileName = "lox.yml"
