package save

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/parallelssh/pssh/internal/dispatch"
)

// Final writes every response in data to path as a single JSON array,
// for collaborators that collect all results before writing rather
// than persisting incrementally via Writer. pretty controls indentation.
func Final(path string, data []dispatch.Response, pretty bool) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file %s: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("write output file %s: %w", path, err)
	}
	return nil
}
