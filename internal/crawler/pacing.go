package crawler

import (
	"math/rand/v2"
	"time"
)

// Pacer hands out human-like pauses. A disabled pacer never pauses.
type Pacer struct {
	enabled bool
}

// NewPacer returns a pacer; enabled switches the pauses on.
func NewPacer(enabled bool) *Pacer {
	return &Pacer{enabled: enabled}
}

func (p *Pacer) between(lo, hi time.Duration) time.Duration {
	if p == nil || !p.enabled {
		return 0
	}
	if hi <= lo {
		return lo
	}
	return lo + rand.N(hi-lo)
}

// BeforeClick is the hesitation before pressing an element.
func (p *Pacer) BeforeClick() time.Duration {
	return p.between(500*time.Millisecond, 1500*time.Millisecond)
}

// AfterClick is the pause while the page reacts to a click.
func (p *Pacer) AfterClick() time.Duration {
	return p.between(2*time.Second, 4*time.Second)
}

// AfterEntry is the pause after the entry page has loaded.
func (p *Pacer) AfterEntry() time.Duration {
	return p.between(2*time.Second, 5*time.Second)
}

// BeforeCapture lets animations finish before a snapshot.
func (p *Pacer) BeforeCapture() time.Duration {
	return p.between(2*time.Second, 2*time.Second)
}
