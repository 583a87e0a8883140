package dashboard

import (
	"io"
	"strings"
)

// Renderer describes the template renderer contract needed by the controller.
type Renderer interface {
	Render(name string, data any, out ...io.Writer) (string, error)
}

// DeltaClass is the CSS modifier for a delta text: growth is "positive",
// anything else with a value "negative".
func DeltaClass(delta string) string {
	switch {
	case delta == "":
		return ""
	case strings.HasPrefix(delta, "+"):
		return "positive"
	default:
		return "negative"
	}
}
