// SPDX-License-Identifier: MPL-2.0

package decl

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/skeleton-dev/skeleton/pkg/cueutil"
)

// FileName is the canonical declaration file name. Files named
// "<anything>.skeleton.cue" are declaration files too.
const FileName = "skeleton.cue"

// ErrNoDeclarations is returned when a search finds no declaration files.
var ErrNoDeclarations = errors.New("no declaration files found")

//go:embed decl_schema.cue
var schemaBytes []byte

var fileSchema = cueutil.MustCompileSchema(schemaBytes, "#File")

// File is the decoded form of a declaration file.
type File struct {
	App          *App          `json:"app,omitempty"`
	Declarations []Declaration `json:"declarations"`
}

// Schema returns the embedded CUE schema for declaration files.
func Schema() []byte {
	return schemaBytes
}

// Parse decodes declaration file content. filename is used in error messages
// and recorded as the Source of every declaration.
func Parse(data []byte, filename string) (Set, error) {
	f, err := cueutil.Decode[File](fileSchema, data, cueutil.WithFilename(filename))
	if err != nil {
		return Set{}, err
	}
	s := Set{Declarations: make([]Declaration, 0, len(f.Declarations))}
	for _, d := range f.Declarations {
		d.Source = filename
		s.Declarations = append(s.Declarations, d)
	}
	if f.App != nil {
		app := *f.App
		app.Source = filename
		s.App = &app
	}
	return s, nil
}

// IsDeclarationFile reports whether name is a declaration file name. Hidden
// files are never declaration files; ".skeleton.cue" is the project config.
func IsDeclarationFile(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	return name == FileName || strings.HasSuffix(name, "."+FileName)
}

// ParseFile reads and decodes the declaration file at path.
func ParseFile(path string) (Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Set{}, fmt.Errorf("read declaration file: %w", err)
	}
	return Parse(data, path)
}
