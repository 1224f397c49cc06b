// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"fmt"
	"strconv"
	"strings"

	cueerrors "cuelang.org/go/cue/errors"
)

type (
	// FieldError is one schema violation, located by a dotted field path
	// such as "toolchain.run_args[0]". Path is empty for file-level errors
	// (syntax errors, mostly).
	FieldError struct {
		Path    string
		Message string
	}

	// SchemaError collects every violation CUE reported for one manifest.
	SchemaError struct {
		File   string
		Fields []FieldError
		cause  error
	}

	// FileTooLargeError rejects a manifest before it reaches the CUE
	// compiler.
	FileTooLargeError struct {
		File  string
		Size  int64
		Limit int64
	}
)

func (f FieldError) String() string {
	if f.Path == "" {
		return f.Message
	}
	return f.Path + ": " + f.Message
}

func (e *SchemaError) Error() string {
	switch len(e.Fields) {
	case 0:
		return fmt.Sprintf("%s: %v", e.File, e.cause)
	case 1:
		return e.File + ": " + e.Fields[0].String()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d schema violations:", e.File, len(e.Fields))
	for _, f := range e.Fields {
		b.WriteString("\n  ")
		b.WriteString(f.String())
	}
	return b.String()
}

func (e *SchemaError) Unwrap() error { return e.cause }

func (e *FileTooLargeError) Error() string {
	return fmt.Sprintf("%s: %d bytes is over the %d byte manifest limit", e.File, e.Size, e.Limit)
}

// newSchemaError converts a CUE error into a SchemaError for file. Errors
// that carry no CUE positions are kept as the cause with no fields.
func newSchemaError(err error, file string) error {
	if err == nil {
		return nil
	}
	se := &SchemaError{File: file, cause: err}
	for _, ce := range cueerrors.Errors(err) {
		path := fieldPath(cueerrors.Path(ce))
		msg := ce.Error()
		if path != "" {
			// CUE repeats the location in front of some messages.
			if rest, ok := strings.CutPrefix(msg, path); ok {
				msg = strings.TrimSpace(strings.TrimPrefix(rest, ":"))
			}
		}
		se.Fields = append(se.Fields, FieldError{Path: path, Message: msg})
	}
	return se
}

// fieldPath renders ["toolchain", "run_args", "0"] as "toolchain.run_args[0]".
// A numeric first selector stays a field name.
func fieldPath(sel []string) string {
	var b strings.Builder
	for i, s := range sel {
		if _, err := strconv.Atoi(s); err == nil && i > 0 {
			b.WriteString("[" + s + "]")
			continue
		}
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(s)
	}
	return b.String()
}

// CheckFileSize returns a *FileTooLargeError when data exceeds limit.
func CheckFileSize(data []byte, limit int64, file string) error {
	if size := int64(len(data)); size > limit {
		return &FileTooLargeError{File: file, Size: size, Limit: limit}
	}
	return nil
}
