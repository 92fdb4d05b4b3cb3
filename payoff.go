package lsmc

// PayoffKind selects the option variant. Dispatch happens at
// configuration time; the kernels branch on a plain tag rather than an
// interface so the hot path stays devirtualized.
type PayoffKind int

const (
	// Put pays K - S at exercise.
	Put PayoffKind = iota
	// Call pays S - K at exercise.
	Call
)

// String returns the option variant name.
func (k PayoffKind) String() string {
	if k == Call {
		return "call"
	}
	return "put"
}

// Payoff evaluates intrinsic value and the in-the-money predicate for
// one option variant. The zero value is a put with strike zero.
type Payoff struct {
	Kind   PayoffKind
	Strike float64
}

// Value returns the immediate exercise payoff at asset price s.
func (p Payoff) Value(s float64) float64 {
	var v float64
	if p.Kind == Call {
		v = s - p.Strike
	} else {
		v = p.Strike - s
	}
	if v < 0 {
		return 0
	}
	return v
}

// InTheMoney reports whether immediate exercise at price s has positive
// payoff.
func (p Payoff) InTheMoney(s float64) bool {
	if p.Kind == Call {
		return s > p.Strike
	}
	return s < p.Strike
}
