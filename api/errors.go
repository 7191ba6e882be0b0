package api

import (
	"errors"
	"fmt"

	"github.com/samber/oops"
)

// Application error codes.
const (
	EINVALID  = "invalid"
	EEXTRACT  = "extract"
	EINTERNAL = "internal"
)

var (
	// ErrInvalidExtractor is returned at construction time when an argument
	// is neither a known accessor name, an expression nor a function.
	ErrInvalidExtractor = errors.New("invalid extractor")

	// ErrExtractorEvaluation is returned when an extractor fails on a
	// resource during aggregation.
	ErrExtractorEvaluation = errors.New("extractor evaluation failed")

	// ErrInvalidOptions is returned when options do not apply to the
	// aggregation they configure.
	ErrInvalidOptions = errors.New("invalid options")
)

// InvalidExtractor builds an ErrInvalidExtractor for the argument at index.
func InvalidExtractor(index int, arg any, format string, args ...any) error {
	return oops.
		Code(EINVALID).
		In("extract").
		With("argument", index, "type", fmt.Sprintf("%T", arg)).
		Wrapf(ErrInvalidExtractor, format, args...)
}

// InvalidOptions wraps a validation failure of the aggregation options.
func InvalidOptions(err error) error {
	return oops.
		Code(EINVALID).
		In("options").
		Wrapf(fmt.Errorf("%w: %w", ErrInvalidOptions, err), "invalid options")
}

// ExtractorEvaluation wraps the failure of attribute on the resource at index.
// Both ErrExtractorEvaluation and cause match with errors.Is.
func ExtractorEvaluation(index int, attribute string, cause error) error {
	return oops.
		Code(EEXTRACT).
		In("aggregate").
		With("index", index, "attribute", attribute).
		Wrapf(fmt.Errorf("%w: %w", ErrExtractorEvaluation, cause), "resource[%d].%s", index, attribute)
}

// ErrorCode returns the application error code of err.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}

	if oopsErr, ok := oops.AsOops(err); ok {
		if code := oopsErr.Code(); code != "" {
			return code
		}
	}

	return EINTERNAL
}

// ErrorMessage returns the human readable message of err.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// IsInvalid reports whether err was caused by a malformed request,
// as opposed to a failure while aggregating.
func IsInvalid(err error) bool {
	return ErrorCode(err) == EINVALID
}
