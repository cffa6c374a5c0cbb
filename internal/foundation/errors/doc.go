// Package errors provides the classified error type used across extassets.
//
// Errors carry a category (config, filesystem, render, ...), a severity and
// structured context so the CLI can pick an exit code and the preview server
// can report the last failed build as JSON.
//
//	err := errors.ConfigError("source directory not found").
//		WithContext("source_directory", dir).
//		Build()
//
// A soft skip (reference outside every mapping, disallowed extension) is never
// an error; only conditions that must stop the build are represented here.
package errors
