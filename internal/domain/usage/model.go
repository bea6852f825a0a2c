package usage

import (
	"time"

	"github.com/google/uuid"
)

// Item carries the part name as written at submission time, so the
// report stays readable even if the catalog entry is later renamed.
type Item struct {
	PartID   int64  `json:"part_id"`
	PartName string `json:"part_name"`
	Quantity int64  `json:"quantity"`
}

// Report is a record of parts consumed in the field. Immutable once
// created; it doubles as the audit record for the debit it caused.
type Report struct {
	ID          uuid.UUID
	EngineerID  string
	SONumber    string
	Description string
	Items       []Item
	ReportDate  time.Time
}
