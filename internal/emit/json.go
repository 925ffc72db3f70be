package emit

import (
	"encoding/json"
	"io"

	"github.com/robert-at-pretension-io/export-config/internal/facts"
)

// JSON writes the flat fact tables.
func JSON(w io.Writer, tables facts.Tables) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(tables)
}
