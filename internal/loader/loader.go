// Package loader compiles CUE declaration documents into canon
// declarations.
//
// The engine itself never parses text; the loader is a construction-side
// collaborator that lets the CLI (and tests) express declarations as
// .cue files. A document has a single top-level `declaration` struct
// whose form/relation/trace/constraint/test members are structs keyed by
// id, in source order:
//
//	declaration: {
//		title:   "Two tangent circles"
//		epsilon: 1e-9
//		form: circle_a: {
//			kind: "Circle"
//			params: radius: 2.0
//			curvature_class: "constant-positive"
//		}
//		relation: tangency: {kind: "tangent", a: "circle_a", b: "circle_b"}
//	}
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/canon/internal/canon"
)

// Load error codes.
const (
	ErrCodeNotFound    = "L001" // directory or file missing
	ErrCodeNoFiles     = "L002" // no CUE files in directory
	ErrCodeLoadFailed  = "L003" // CUE load/build failure
	ErrCodeBadDocument = "L004" // document shape violation
)

// LoadError describes a failure to load or compile a declaration
// document.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadDir loads the CUE package in dir and compiles its `declaration`
// value.
func LoadDir(dir string) (*canon.Declaration, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("declaration directory not found: %s", dir)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing declaration directory: %v", err)}
	}
	if !info.IsDir() {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}
	}

	cueFiles, err := findCUEFiles(dir)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error scanning directory: %v", err)}
	}
	if len(cueFiles) == 0 {
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("building CUE value: %v", err)}
	}

	return Compile(value)
}

// LoadString compiles a declaration document from CUE source text.
// Used by tests and embedding callers.
func LoadString(src string) (*canon.Declaration, error) {
	ctx := cuecontext.New()
	value := ctx.CompileString(src)
	if err := value.Err(); err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("compiling CUE source: %v", err)}
	}
	return Compile(value)
}

// findCUEFiles lists the non-hidden .cue files directly in dir.
func findCUEFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if filepath.Ext(entry.Name()) == ".cue" {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	return files, nil
}

// Compile extracts the `declaration` struct from a built CUE value.
func Compile(value cue.Value) (*canon.Declaration, error) {
	declVal := value.LookupPath(cue.ParsePath("declaration"))
	if !declVal.Exists() {
		return nil, &LoadError{
			Code:    ErrCodeBadDocument,
			Message: "document has no top-level \"declaration\" struct",
			Pos:     value.Pos(),
		}
	}
	return CompileDeclaration(declVal)
}
