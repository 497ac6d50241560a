// Package env holds the run configuration external to the core: thread
// count, input/output paths, and the small SET-style option table (spec
// §6 "Environment config").
package env

import (
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cast"

	"github.com/adarshpannu/flare/errs"
)

// Settings holds the options a query can SET at compile time (spec §6:
// "options PARALLEL_DEGREE: int, PARSE_ONLY: bool").
type Settings struct {
	ParallelDegree int
	ParseOnly      bool
}

// Env is the ambient configuration threaded through compilation and
// scheduling: thread pool size, I/O roots, and SET options.
type Env struct {
	NThreads      int    `toml:"nthreads"`
	InputPathname string `toml:"input_pathname"`
	OutputDir     string `toml:"output_dir"`
	Settings      Settings
}

// New builds an Env with the given thread count and I/O roots and default
// settings (parallel_degree mirrors nthreads until overridden).
func New(nthreads int, inputPathname, outputDir string) *Env {
	return &Env{
		NThreads:      nthreads,
		InputPathname: inputPathname,
		OutputDir:     outputDir,
		Settings:      Settings{ParallelDegree: nthreads},
	}
}

// LoadTOML populates an Env from a TOML config file, the way the teacher's
// own config loading works, layered under whatever New already set: a
// file value is used only for a field New left at its zero value.
func LoadTOML(path string, e *Env) error {
	var fromFile Env
	if _, err := toml.DecodeFile(path, &fromFile); err != nil {
		return errs.ErrIO.New(err.Error())
	}
	if e.NThreads == 0 {
		e.NThreads = fromFile.NThreads
	}
	if e.InputPathname == "" {
		e.InputPathname = fromFile.InputPathname
	}
	if e.OutputDir == "" {
		e.OutputDir = fromFile.OutputDir
	}
	return nil
}

// SetOption applies a SET name = value statement (spec §6). Recognized
// names are PARALLEL_DEGREE and PARSE_ONLY; anything else is
// errs.ErrInvalidOption.
func (e *Env) SetOption(name string, value string) error {
	switch strings.ToUpper(name) {
	case "PARALLEL_DEGREE":
		n, err := cast.ToIntE(value)
		if err != nil {
			return errs.ErrInvalidOption.New(name + " must be an integer")
		}
		e.Settings.ParallelDegree = n
	case "PARSE_ONLY":
		e.Settings.ParseOnly = isTruthy(value)
	default:
		return errs.ErrInvalidOption.New(name)
	}
	return nil
}

// isTruthy implements the source's truthy-string table: TRUE|T|YES|Y
// (case-insensitive), everything else is false.
func isTruthy(s string) bool {
	switch strings.ToUpper(s) {
	case "TRUE", "T", "YES", "Y":
		return true
	default:
		return false
	}
}
