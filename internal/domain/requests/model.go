package requests

import (
	"regexp"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusDelivered Status = "delivered"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// transitions is the full status machine. pending->approved/rejected and
// approved->delivered are applied by the reviewer tooling; this engine
// owns the cancel and confirm edges.
var transitions = map[Status][]Status{
	StatusPending:   {StatusApproved, StatusRejected, StatusCancelled},
	StatusApproved:  {StatusDelivered, StatusCancelled},
	StatusDelivered: {StatusCompleted},
}

func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (s Status) Terminal() bool {
	return s == StatusRejected || s == StatusCompleted || s == StatusCancelled
}

// Item is one requested part/quantity pair. Part ids are unique within a
// request.
type Item struct {
	PartID   int64 `json:"part_id"`
	Quantity int64 `json:"quantity"`
}

// Request is an engineer's monthly parts request. Each timestamp is set
// exactly once, by the transition that owns it.
type Request struct {
	ID          uuid.UUID
	EngineerID  string
	Period      string // YYYY-MM
	Items       []Item
	Status      Status
	SubmittedAt time.Time
	ReviewedAt  *time.Time
	DeliveredAt *time.Time
	ConfirmedAt *time.Time
	CancelledAt *time.Time
}

// AggregateDeltas merges item quantities by part. Duplicate part ids are
// rejected at validation, but the credit path sums them anyway rather
// than trusting that.
func (r *Request) AggregateDeltas() map[int64]int64 {
	out := make(map[int64]int64, len(r.Items))
	for _, it := range r.Items {
		out[it.PartID] += it.Quantity
	}
	return out
}

var periodRe = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// ValidPeriod reports whether p is a YYYY-MM period code.
func ValidPeriod(p string) bool { return periodRe.MatchString(p) }
