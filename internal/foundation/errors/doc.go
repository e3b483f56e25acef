// Package errors provides the classified error primitives used across lava.
//
// A ClassifiedError carries a category and a severity next to the message,
// the wrapped cause and free-form context. The CLI adapter turns those into
// a user-facing line and a process exit code.
//
// Example usage:
//
//	err := errors.FileSystemError("cannot create destination").
//		WithContext("path", dest).
//		WithCause(mkdirErr).
//		Build()
package errors
