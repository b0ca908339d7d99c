package phonofix

// FailPolicy controls how build-time and conversion failures propagate.
type FailPolicy string

const (
	// FailRaise propagates backend and build errors to the caller.
	FailRaise FailPolicy = "raise"

	// FailDegrade recovers failures locally: a missing backend yields a
	// pass-through corrector, a failed fuzzy stage falls back to exact
	// matching, and events describe what was skipped.
	FailDegrade FailPolicy = "degrade"
)

// IsValid reports whether p is a recognised fail policy.
func (p FailPolicy) IsValid() bool {
	switch p {
	case FailRaise, FailDegrade:
		return true
	}
	return false
}

// Mode selects the diagnostic level of a corrector.
type Mode string

const (
	// ModeProduction emits only final corrections and errors, and forces
	// the fail policy to FailDegrade.
	ModeProduction Mode = "production"

	// ModeEvaluation emits additional warning events for rejected
	// near-miss candidates, and forces the fail policy to FailRaise.
	ModeEvaluation Mode = "evaluation"
)

// IsValid reports whether m is a recognised mode.
func (m Mode) IsValid() bool {
	switch m {
	case ModeProduction, ModeEvaluation:
		return true
	}
	return false
}

// Apply resolves the effective fail policy for the mode: evaluation always
// raises, production always degrades, and an unset mode leaves p unchanged.
func (m Mode) Apply(p FailPolicy) FailPolicy {
	switch m {
	case ModeEvaluation:
		return FailRaise
	case ModeProduction:
		return FailDegrade
	}
	return p
}
