package errors

import (
	"errors"
	"fmt"
)

type ErrorType string

const (
	ErrorTypeDirectoryUnreadable   ErrorType = "DIRECTORY_UNREADABLE"
	ErrorTypeAttributeUnavailable  ErrorType = "ATTRIBUTE_UNAVAILABLE"
	ErrorTypeRenameFailed          ErrorType = "RENAME_FAILED"
	ErrorTypeScriptExecutionFailed ErrorType = "SCRIPT_EXECUTION_FAILED"
	ErrorTypeCleanupFailed         ErrorType = "CLEANUP_FAILED"
)

type Error struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	Path    string    `json:"path,omitempty"`
	Err     error     `json:"-"`
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Path != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Path)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsType reports whether err, or anything it wraps, is an *Error of type t.
func IsType(err error, t ErrorType) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Type == t
	}
	return false
}

func DirectoryUnreadable(path string, err error) *Error {
	return &Error{
		Type:    ErrorTypeDirectoryUnreadable,
		Message: "reading directory",
		Path:    path,
		Err:     err,
	}
}

func AttributeUnavailable(path string, err error) *Error {
	return &Error{
		Type:    ErrorTypeAttributeUnavailable,
		Message: "reading file attributes",
		Path:    path,
		Err:     err,
	}
}

func RenameFailed(path string, err error) *Error {
	return &Error{
		Type:    ErrorTypeRenameFailed,
		Message: "renaming to composed form",
		Path:    path,
		Err:     err,
	}
}

func ScriptExecutionFailed(script string, err error) *Error {
	return &Error{
		Type:    ErrorTypeScriptExecutionFailed,
		Message: "running rename script",
		Path:    script,
		Err:     err,
	}
}

func CleanupFailed(path string, err error) *Error {
	return &Error{
		Type:    ErrorTypeCleanupFailed,
		Message: "removing rename script",
		Path:    path,
		Err:     err,
	}
}
