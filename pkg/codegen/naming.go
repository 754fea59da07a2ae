// SPDX-License-Identifier: MPL-2.0

package codegen

import (
	"go/token"
	"strings"
	"unicode"

	"github.com/iancoleman/strcase"
)

// reservedParams cannot be used as constructor parameter names: they are
// taken by the fixed parameters, the imported packages or predeclared
// identifiers the body relies on.
var reservedParams = map[string]bool{
	"b": true, "parent": true, "p": true,
	"container": true, "decl": true, "router": true,
	"nil": true, "error": true, "any": true, "string": true,
	"true": true, "false": true, "len": true, "new": true, "make": true,
}

// words normalizes an id or capability name so strcase splits it on every
// non-alphanumeric rune.
func words(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return '_'
	}, s)
}

// exported returns an exported Go identifier for s.
func exported(s string) string {
	id := strcase.ToCamel(words(s))
	if id == "" || !unicode.IsLetter(rune(id[0])) {
		id = "X" + id
	}
	return id
}

// paramName returns an unexported identifier for s that is not a keyword or
// reserved name.
func paramName(s string) string {
	id := strcase.ToLowerCamel(words(s))
	if id == "" || !unicode.IsLetter(rune(id[0])) {
		id = "x" + id
	}
	if token.IsKeyword(id) || reservedParams[id] {
		id += "Provider"
	}
	return id
}

// fileName returns the snake_case file stem for s.
func fileName(s string) string {
	return strcase.ToSnake(words(s))
}
