package booking

import (
	"booking-engine/internal/pkg/errs"
)

type Status string

// Full booking status vocabulary. Which of these block a resource is decided
// by a StatusPartition, never by conditionals scattered through conflict
// code.
const (
	StatusPending             Status = "pending"
	StatusPendingPayment      Status = "pending_payment"
	StatusPendingDocuments    Status = "pending_documents"
	StatusApproved            Status = "approved"
	StatusConfirmed           Status = "confirmed"
	StatusInProgress          Status = "in_progress"
	StatusRescheduleRequested Status = "reschedule_requested"
	StatusRescheduled         Status = "rescheduled"
	StatusCancelled           Status = "cancelled"
	StatusDenied              Status = "denied"
	StatusNoShow              Status = "no_show"
	StatusCompleted           Status = "completed"
)

func (s Status) String() string { return string(s) }

// StatusPartition splits the booking status vocabulary into blocking statuses
// (the booking occupies its resource) and non-blocking terminal ones. The
// partition is data: it is built from configuration and handed to the
// conflict path, so the sets can change without touching detection logic.
type StatusPartition struct {
	blocking map[Status]struct{}
	known    map[Status]struct{}
	ordered  []Status
}

func NewStatusPartition(blocking, nonBlocking []Status) (StatusPartition, error) {
	p := StatusPartition{
		blocking: make(map[Status]struct{}, len(blocking)),
		known:    make(map[Status]struct{}, len(blocking)+len(nonBlocking)),
	}

	for _, s := range blocking {
		if _, dup := p.known[s]; dup {
			return StatusPartition{}, errs.Mark(
				errs.New("status "+s.String()+" appears twice in partition"),
				errs.ErrValidation,
			)
		}
		p.blocking[s] = struct{}{}
		p.known[s] = struct{}{}
		p.ordered = append(p.ordered, s)
	}
	for _, s := range nonBlocking {
		if _, dup := p.known[s]; dup {
			return StatusPartition{}, errs.Mark(
				errs.New("status "+s.String()+" appears twice in partition"),
				errs.ErrValidation,
			)
		}
		p.known[s] = struct{}{}
	}
	return p, nil
}

// DefaultStatusPartition is the shipped configuration of the partition.
func DefaultStatusPartition() StatusPartition {
	p, err := NewStatusPartition(
		[]Status{
			StatusPending,
			StatusPendingPayment,
			StatusPendingDocuments,
			StatusApproved,
			StatusConfirmed,
			StatusInProgress,
			StatusRescheduleRequested,
			StatusRescheduled,
		},
		[]Status{
			StatusCancelled,
			StatusDenied,
			StatusNoShow,
			StatusCompleted,
		},
	)
	if err != nil {
		panic(err)
	}
	return p
}

func (p StatusPartition) IsBlocking(s Status) bool {
	_, ok := p.blocking[s]
	return ok
}

func (p StatusPartition) IsKnown(s Status) bool {
	_, ok := p.known[s]
	return ok
}

// BlockingStatuses returns the blocking set in declaration order, as strings,
// for use in store-level IN filters.
func (p StatusPartition) BlockingStatuses() []string {
	out := make([]string, len(p.ordered))
	for i, s := range p.ordered {
		out[i] = s.String()
	}
	return out
}
