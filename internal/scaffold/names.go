// SPDX-License-Identifier: MPL-2.0

package scaffold

import (
	"fmt"
	"go/token"
	"strings"
	"unicode"

	"github.com/iancoleman/strcase"

	"github.com/skeleton-dev/skeleton/pkg/decl"
)

// Names holds the spellings of one user-supplied name.
type Names struct {
	// Kebab is used for node ids, routes and directories: "movie-search".
	Kebab string
	// Snake is used for file names: "movie_search".
	Snake string
	// Flat is used for package names: "moviesearch".
	Flat string
	// Pascal is used for exported identifiers: "MovieSearch".
	Pascal string
	// Camel is used for unexported identifiers: "movieSearch".
	Camel string
}

// NewNames derives every spelling of name. Words may be separated by spaces,
// dashes, underscores or case changes.
func NewNames(name string) (Names, error) {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, strings.TrimSpace(name))
	n := Names{
		Kebab:  strcase.ToKebab(cleaned),
		Snake:  strcase.ToSnake(cleaned),
		Pascal: strcase.ToCamel(cleaned),
		Camel:  strcase.ToLowerCamel(cleaned),
	}
	n.Flat = strings.ReplaceAll(n.Snake, "_", "")

	if n.Kebab == "" || !unicode.IsLetter(rune(n.Kebab[0])) || !token.IsIdentifier(n.Flat) || token.IsKeyword(n.Flat) {
		return Names{}, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if ok, _ := decl.NodeID(n.Kebab).IsValid(); !ok {
		return Names{}, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return n, nil
}
