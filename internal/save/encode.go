package save

import (
	"encoding/json"

	"github.com/parallelssh/pssh/internal/dispatch"
)

// jsonIndent renders one Response as a pretty-printed JSON object
// with a consistent indent, matching the source tool's
// pretty-by-default incremental save format.
func jsonIndent(r dispatch.Response) (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
