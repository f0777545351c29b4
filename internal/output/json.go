package output

import (
	"encoding/json"
	"io"

	"github.com/garagon/skillaudit/internal/types"
)

// JSONFormatter writes the full report with two-space indentation.
type JSONFormatter struct{}

func (f *JSONFormatter) Format(w io.Writer, report *types.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(report)
}
