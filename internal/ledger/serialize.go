package ledger

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/gowebpki/jcs"
)

// SerializeEvents renders events as newline-delimited JSON with a trailing
// LF. Each line is canonicalized (RFC 8785) so identical logs serialize to
// identical bytes regardless of how they were built.
func SerializeEvents(events []Event) ([]byte, error) {
	var buf bytes.Buffer
	for idx, e := range events {
		raw, err := json.Marshal(e)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize event %d: %w", idx, err)
		}
		canonical, err := jcs.Transform(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to canonicalize event %d: %w", idx, err)
		}
		buf.Write(canonical)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// Serialize renders the ledger's event log in the on-disk format.
func (l *Ledger) Serialize() ([]byte, error) {
	return SerializeEvents(l.events)
}
