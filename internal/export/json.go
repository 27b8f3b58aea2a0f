package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/PossumXI/Asgard/Skylark/internal/mission"
)

// WriteJSON dumps seq as indented JSON for archival and debugging.
func WriteJSON(w io.Writer, seq *mission.Sequence) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(seq); err != nil {
		return fmt.Errorf("export: encoding JSON: %w", err)
	}
	return nil
}
