package models

// FormatID names an output module convention a library can be emitted in.
type FormatID string

const (
	FormatESM  FormatID = "esm"
	FormatCJS  FormatID = "cjs"
	FormatUMD  FormatID = "umd"
	FormatIIFE FormatID = "iife"
)

// Wrapping is the module wrapper strategy the emitter applies to a format.
type Wrapping string

const (
	WrapESM  Wrapping = "esm"
	WrapCJS  Wrapping = "cjs"
	WrapUMD  Wrapping = "umd"
	WrapIIFE Wrapping = "iife"
)

func (w Wrapping) Valid() bool {
	switch w {
	case WrapESM, WrapCJS, WrapUMD, WrapIIFE:
		return true
	}
	return false
}

// ErrorKind is the machine readable category of a target validation failure.
type ErrorKind string

const (
	KindUnknownFormat        ErrorKind = "unknown_format"
	KindMissingGlobalBinding ErrorKind = "missing_global_binding"
	KindFileNameCollision    ErrorKind = "file_name_collision"
	KindDuplicateFormat      ErrorKind = "duplicate_format"
	KindInvalidGlobalName    ErrorKind = "invalid_global_name"
	KindInvalidSpec          ErrorKind = "invalid_spec"
)
