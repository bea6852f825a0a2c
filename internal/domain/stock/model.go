package stock

import "time"

// Entry is the authoritative per-(engineer, part) quantity. Created on
// first credit, never deleted. Quantity never goes below zero.
type Entry struct {
	EngineerID string
	PartID     int64
	PartName   string
	Quantity   int64
	MinStock   int64
	LastSync   time.Time
}

// Adjustment is one append-only audit row for a single credit.
// Debits are documented by the usage report that caused them.
type Adjustment struct {
	ID               int64
	EngineerID       string
	PartID           int64
	PreviousQuantity int64
	NewQuantity      int64
	Delta            int64
	Reason           string
	CreatedAt        time.Time
}
