package witgen

import (
	errorsv1 "gopkg.in/src-d/go-errors.v1"
)

// Error kinds produced during witness generation (spec.md §7: "kinds, not
// type names").
var (
	// KindUnsatisfiedIdentity: a polynomial identity evaluated to a nonzero
	// constant once every reference it touches was known.
	KindUnsatisfiedIdentity = errorsv1.NewKind("identity %s does not evaluate to zero: got %s")

	// KindUnderconstrained: the final pass found a row where an identity
	// fails with unknown cells read as zero, or a committed cell that never
	// reached Known.
	KindUnderconstrained = errorsv1.NewKind("row %d is underconstrained: %s")

	// KindIncompleteMachineCall: a plookup/permutation identity was
	// dispatched to a secondary machine but the machine could not resolve
	// every unknown argument.
	KindIncompleteMachineCall = errorsv1.NewKind("machine call for identity %d is incomplete")

	// KindConnectUnsupported is unreachable in ordinary operation: the
	// condenser already rejects Connect identities (source.KindConnectUnsupported)
	// before an Analyzed program can exist. Kept as a defense-in-depth
	// backstop for an Analyzed constructed by hand (e.g. in a test) rather
	// than through the analyzer.
	KindConnectUnsupported = errorsv1.NewKind("connect identity %d has no witness-generation lowering")

	// KindLoopRejected: a looping-mode proposed row failed verification
	// against the actual identities.
	KindLoopRejected = errorsv1.NewKind("proposed looping row at period %d rejected at row %d")
)
