package domain

import (
	"fmt"
	"time"
)

// SponsorPool is a named, externally funded allocation of sponsored seats
// tied to a partner. Funded is the lifetime number of seats the sponsor paid
// for; Remaining is decremented by one for each successful assignment, so
// Funded - Remaining always equals the number of members currently funded by
// the pool.
type SponsorPool struct {
	ID        int32     `json:"id"`
	OrgID     int32     `json:"org_id"`
	Name      string    `json:"name"`
	Partner   string    `json:"partner,omitempty"`
	Funded    int32     `json:"funded"`
	Remaining int32     `json:"remaining"`
	Version   int32     `json:"version"`
	CreatedOn time.Time `json:"created_on"`
}

// Take consumes one seat from the pool.
func (p *SponsorPool) Take() error {
	if p.Remaining <= 0 {
		return fmt.Errorf("%w: sponsor pool %q has no seats left", ErrCapacityExhausted, p.Name)
	}
	p.Remaining--
	return nil
}

// Refund returns one seat to the pool, capped at the funded amount.
func (p *SponsorPool) Refund() {
	if p.Remaining < p.Funded {
		p.Remaining++
	}
}

// Assigned is the number of seats currently consumed from the pool.
func (p *SponsorPool) Assigned() int32 {
	return p.Funded - p.Remaining
}
