// internal/writer/types.go
package writer

import "github.com/tamzrod/laempli/internal/status"

// Plan is the fully-built write plan for the indicator block.
type Plan struct {
	Endpoint string
	UnitID   uint8
	BaseSlot uint16 // first holding register of the block
	Name     string // client name, written on full asserts only
}

// StatusWriter is the delivery-only contract for the indicator block.
// It receives a snapshot and writes it verbatim.
// No interpretation of the snapshot.
type StatusWriter interface {
	WriteStatus(s status.Snapshot) error
}
