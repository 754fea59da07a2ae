// SPDX-License-Identifier: MPL-2.0

// Package cueutil validates input against embedded CUE schemas.
//
// Declaration files and the CLI configuration go through one flow: the
// schema is compiled once into a Schema, user input is unified with one of
// its definitions, validated and decoded into Go values. Every violation is
// reported with a JSON path into the input (declarations[2].kind).
//
// # Usage
//
//	//go:embed decl_schema.cue
//	var schemaBytes []byte
//
//	var fileSchema = cueutil.MustCompileSchema(schemaBytes, "#File")
//
//	f, err := cueutil.Decode[File](fileSchema, data, cueutil.WithFilename(path))
//	if err != nil {
//	    return nil, err // *cueutil.SchemaError for schema violations
//	}
package cueutil
