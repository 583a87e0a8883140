package timeseries

import (
	"fmt"

	goerrors "github.com/goliatone/go-errors"
)

// TextCodeInvalidDateLabel marks records whose date cannot be parsed as a bucket label.
const TextCodeInvalidDateLabel = "INVALID_DATE_LABEL"

// TextCodeInvalidPayload marks aggregation responses that are not a payload.
const TextCodeInvalidPayload = "INVALID_PAYLOAD"

// IsInvalidDateLabel reports whether err was caused by a malformed record date.
func IsInvalidDateLabel(err error) bool {
	var e *goerrors.Error
	if !goerrors.As(err, &e) {
		return false
	}
	return e.TextCode == TextCodeInvalidDateLabel
}

func invalidDateLabel(label string, source error) error {
	return goerrors.Wrap(source, goerrors.CategoryBadInput, fmt.Sprintf("timeseries: invalid date label %q", label)).
		WithTextCode(TextCodeInvalidDateLabel).
		WithMetadata(map[string]any{"label": label, "layout": LabelLayout})
}

func badInput(message, code string) error {
	return goerrors.New(message, goerrors.CategoryBadInput).WithTextCode(code)
}
