package dashboard

import (
	"net/http"

	goerrors "github.com/goliatone/go-errors"
)

// HTTPStatus maps an error returned by the chart service onto a status code.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case goerrors.IsCategory(err, goerrors.CategoryBadInput),
		goerrors.IsCategory(err, goerrors.CategoryValidation):
		return http.StatusBadRequest
	case goerrors.IsCategory(err, goerrors.CategoryNotFound):
		return http.StatusNotFound
	case goerrors.IsCategory(err, goerrors.CategoryExternal):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ErrorPayload is the JSON body written for a failed chart request.
func ErrorPayload(err error) map[string]any {
	payload := map[string]any{"error": err.Error()}
	var gerr *goerrors.Error
	if goerrors.As(err, &gerr) {
		payload["category"] = gerr.Category.String()
		if gerr.TextCode != "" {
			payload["code"] = gerr.TextCode
		}
		if len(gerr.ValidationErrors) > 0 {
			payload["fields"] = gerr.ValidationMap()
		}
	}
	return payload
}
