package apperr

import (
	"context"
	"errors"
	"fmt"
)

// ExitInterrupted is returned when the operation was cancelled, usually by ctrl+c
const ExitInterrupted = 130

// Kind classifies a failure so front ends can map it to a stable exit code
type Kind int

const (
	Unknown Kind = iota
	NoJavaFound
	UnsupportedPlatform
	UnknownVersion
	NetworkError
	HttpStatusError
	ChecksumMismatch
	DiskWriteError
	PlanError
)

var kindNames = map[Kind]string{
	Unknown:             "error",
	NoJavaFound:         "no suitable Java installation found",
	UnsupportedPlatform: "unsupported platform",
	UnknownVersion:      "unknown JavaFX version",
	NetworkError:        "network error",
	HttpStatusError:     "unexpected HTTP status",
	ChecksumMismatch:    "checksum mismatch",
	DiskWriteError:      "disk write error",
	PlanError:           "cannot build launch plan",
}

var exitCodes = map[Kind]int{
	Unknown:             1,
	NoJavaFound:         10,
	UnsupportedPlatform: 11,
	UnknownVersion:      12,
	NetworkError:        13,
	HttpStatusError:     14,
	ChecksumMismatch:    15,
	DiskWriteError:      16,
	PlanError:           17,
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is a classified failure returned by the core components
type Error struct {
	Kind Kind
	Op   string // operation that failed, e.g. "resolve"
	Path string // file or URL involved, if any
	Err  error
}

// New creates a classified error
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// WithPath creates a classified error carrying the path or URL involved
func WithPath(kind Kind, op, path string, err error) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Path != "" {
		msg += " (" + e.Path + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the first classified error in the chain
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

// Is reports whether err carries the given kind
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// ExitCode maps an error to the process exit code; nil maps to 0
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if errors.Is(err, context.Canceled) {
		return ExitInterrupted
	}
	return exitCodes[KindOf(err)]
}
