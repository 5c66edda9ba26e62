package invoice

// TransitionPolicy selects how strictly the paid transition is guarded.
// The two observed behaviors of the original service disagreed on whether an
// invoice must be pending before it can be marked paid; deployments pick one
// policy explicitly instead of inheriting that ambiguity.
type TransitionPolicy string

const (
	// PolicyPermissive allows marking any invoice paid regardless of its
	// current status. A payment transaction is always recorded.
	PolicyPermissive TransitionPolicy = "permissive"

	// PolicyStrict only allows pending invoices to be marked paid. Any
	// other starting status is an invalid transition and records nothing.
	PolicyStrict TransitionPolicy = "strict"
)

// Valid reports whether p is a known policy.
func (p TransitionPolicy) Valid() bool {
	return p == PolicyPermissive || p == PolicyStrict
}

// CanMarkPaid reports whether an invoice in the given status may transition
// to paid under this policy.
func (p TransitionPolicy) CanMarkPaid(from Status) bool {
	if p == PolicyStrict {
		return from == StatusPending
	}
	return true
}
