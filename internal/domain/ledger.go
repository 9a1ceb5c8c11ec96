package domain

import (
	"fmt"
	"time"
)

// SeatLedger tracks total and currently-used seats of each type for one
// organization. All mutations go through Acquire/Release so the
// 0 <= used <= total invariant is enforced in one place.
type SeatLedger struct {
	OrgID          int32     `json:"org_id"`
	PaidTotal      int32     `json:"paid_total"`
	PaidUsed       int32     `json:"paid_used"`
	SponsoredTotal int32     `json:"sponsored_total"`
	SponsoredUsed  int32     `json:"sponsored_used"`
	Version        int32     `json:"version"`
	UpdatedOn      time.Time `json:"updated_on"`
}

// Available returns the number of unassigned seats of the given type.
func (l *SeatLedger) Available(t SeatType) int32 {
	switch t {
	case SeatTypePaid:
		return l.PaidTotal - l.PaidUsed
	case SeatTypeSponsored:
		return l.SponsoredTotal - l.SponsoredUsed
	default:
		return 0
	}
}

// Acquire takes one seat of the given type, failing with
// ErrCapacityExhausted when none remain.
func (l *SeatLedger) Acquire(t SeatType) error {
	switch t {
	case SeatTypePaid:
		if l.PaidUsed >= l.PaidTotal {
			return fmt.Errorf("%w: all %d paid seats are in use", ErrCapacityExhausted, l.PaidTotal)
		}
		l.PaidUsed++
	case SeatTypeSponsored:
		if l.SponsoredUsed >= l.SponsoredTotal {
			return fmt.Errorf("%w: all %d sponsored seats are in use", ErrCapacityExhausted, l.SponsoredTotal)
		}
		l.SponsoredUsed++
	case SeatTypeNone:
		// nothing to acquire
	default:
		return fmt.Errorf("%w: unknown seat type %q", ErrValidation, t)
	}
	return nil
}

// Release returns one seat of the given type to the pool. Used counters
// never go below zero.
func (l *SeatLedger) Release(t SeatType) {
	switch t {
	case SeatTypePaid:
		if l.PaidUsed > 0 {
			l.PaidUsed--
		}
	case SeatTypeSponsored:
		if l.SponsoredUsed > 0 {
			l.SponsoredUsed--
		}
	}
}
