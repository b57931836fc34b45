package cli

import (
	"errors"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/token"

	"github.com/roach88/qwire/internal/compiler"
)

// LoadMode controls how errors are handled during spec loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// LoadResult contains the results of loading specs from a directory.
type LoadResult struct {
	// Program is nil when parsing or linking failed.
	Program   *compiler.Program
	Specs     []*compiler.Spec
	CUEValue  cue.Value // The raw CUE value for additional processing
	FileCount int       // Number of CUE files found
}

// LoadError represents an error that occurred before compilation.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error code constants for failures outside the compiler. Compiler errors
// keep their own E2xx codes.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path or op not found
	ErrCodeBuildFailed = "E006" // Cost, verify or store failure
	ErrCodeWriteFailed = "E007" // File write error
)

// LoadSpecs loads, parses and links the CUE definitions in dir.
//
// A nil result means the directory could not be loaded at all. Otherwise
// the result holds what parsed; Program is set only when every definition
// parsed and linked. In LoadModeFailFast only the first error is returned.
func LoadSpecs(dir string, mode LoadMode) (*LoadResult, []error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("specs directory not found: %s", dir)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	files, err := compiler.FindCUEFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("scanning directory: %v", err)}}
	}
	if len(files) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}}
	}

	value, err := compiler.LoadDir(cuecontext.New(), dir)
	if err != nil {
		var ce *compiler.CompileError
		if errors.As(err, &ce) {
			return nil, []error{ce}
		}
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: err.Error()}}
	}

	result := &LoadResult{CUEValue: value, FileCount: len(files)}
	specs, errs := compiler.ParseAll(value)
	result.Specs = specs
	if len(errs) > 0 {
		if mode == LoadModeFailFast {
			return result, errs[:1]
		}
		return result, errs
	}
	if len(specs) == 0 {
		return result, []error{&LoadError{Code: ErrCodeGeneric, Message: "no definitions found in specs"}}
	}

	program, err := compiler.Link(specs)
	if err != nil {
		return result, []error{err}
	}
	result.Program = program
	return result, nil
}

// errorCode returns the code and message to report for a load or compile
// error.
func errorCode(err error) (string, string) {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return compileErr.Code, compileErr.Message
	}
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code, loadErr.Message
	}
	return ErrCodeGeneric, err.Error()
}

// errorPos returns the source position of err, if it has one.
func errorPos(err error) token.Pos {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return compileErr.Pos
	}
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Pos
	}
	return token.NoPos
}
