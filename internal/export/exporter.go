// Package export persists the issuance record to disk.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/solforge/mintforge/internal/issue"
	"github.com/solforge/mintforge/internal/logging"
)

// DefaultPath is where the record lands unless the operator overrides
// it.
const DefaultPath = "token-details.json"

// ErrExport wraps any serialization or write failure. The on-chain
// issuance is already final at this point; an export failure only
// means no local record was produced.
var ErrExport = errors.New("export: write failed")

// Write serializes rec as indented JSON to path, overwriting any prior
// file there.
func Write(rec *issue.Record, path string) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal: %v", ErrExport, err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrExport, err)
	}

	log := logging.WithComponent("export")
	log.Info().Str("path", path).Msg("token details exported")
	return nil
}
