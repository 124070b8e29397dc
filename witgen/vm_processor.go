package witgen

import (
	"context"
	"fmt"

	"github.com/AztecProtocol/powdr/analyzed"
	"github.com/AztecProtocol/powdr/field"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// finalizeInterval mirrors the periodic-finalization cadence spec.md §5
	// describes: every 10000 rows the processor compacts everything except a
	// trailing window into read-only storage.
	finalizeInterval = 10000
	// maxPeriod bounds both the trailing window kept mutable around a
	// finalization boundary and the longest period loop detection searches
	// for.
	maxPeriod = 4
	// loopDetectionInterval is how often (in rows) the processor checks for
	// a repeating pattern before falling back to full identity evaluation.
	loopDetectionInterval = 100
)

// UnknownStrategy controls how loopUntilNoProgress treats a cell that is
// still Unknown: StrategyUnknown leaves it alone (the ordinary row-by-row
// pass), StrategyZero treats it as if it were Known to be zero (the final
// consistency pass, and the two-sided check in verifyProposedRow).
type UnknownStrategy int

const (
	StrategyUnknown UnknownStrategy = iota
	StrategyZero
)

// zeroStrategyLookup treats every not-yet-Known cell as if it were Known to
// be zero. Used for the final per-row consistency pass and for verifying a
// loop-proposed row (spec.md §4.2's "UnknownStrategy: Unknown vs Zero"): by
// those points every cell that will ever become known already has, so any
// remaining Unknown genuinely means "unconstrained, defaults to zero" rather
// than "not yet computed".
type zeroStrategyLookup struct{ inner Lookup }

func (z zeroStrategyLookup) Get(ref analyzed.AlgebraicReference) CellValue {
	c := z.inner.Get(ref)
	if c.State != Known {
		return CellValue{State: Known, Value: field.Zero}
	}
	return c
}

// IncompleteReason explains why RunQuery returned before reaching the last
// row, when driven as a secondary machine answering an OuterQuery (spec.md
// §4.2 step 4).
type IncompleteReason int

const (
	ReasonNone IncompleteReason = iota
	// ReasonBlockMachineLookupIncomplete: the latch fired but the caller's
	// own OuterQuery is not yet marked complete.
	ReasonBlockMachineLookupIncomplete
	// ReasonUnknownLatch: the latch selector could not be evaluated to a
	// constant yet.
	ReasonUnknownLatch
)

// OuterAssignment is one value this machine resolved for the i-th
// expression on the calling side of a plookup/permutation link, produced
// while answering an OuterQuery (spec.md §4.2 step 2 "process_outer_query").
type OuterAssignment struct {
	Index int
	Value field.Element
}

// OuterQuery is a pending plookup/permutation call from a caller machine
// into this one (spec.md §4.2's "an optional OuterQuery (present only for
// secondary machines being queried)"). Identity names the link; Left holds
// the caller's known argument values (a nil entry is still Unknown to the
// caller); Latch selects which row answers the call; Complete records
// whether the caller already considers the call fully resolved.
type OuterQuery struct {
	Identity *analyzed.Identity
	Left     []*field.Element
	Latch    *analyzed.AlgebraicExpression
	Complete bool
}

// RunResult is RunQuery's outcome.
type RunResult struct {
	Complete bool
	Reason   IncompleteReason
	Outer    []OuterAssignment
}

// VmProcessor drives the main row-by-row witness computation loop for one
// machine's scope (spec.md §4.2 "VM Processor").
type VmProcessor struct {
	Program    *analyzed.Analyzed
	Scope      []analyzed.PolyID
	Identities []*analyzed.Identity // polynomial identities in this machine's scope

	IdentityProc *IdentityProcessor
	QueryProc    *QueryProcessor

	Data   *FinalizableData
	Stats  Stats
	Logger zerolog.Logger

	withoutNext []*analyzed.Identity
	withNext    []*analyzed.Identity

	// previouslySetInputs tracks, per input polynomial, the row at which its
	// current run of OuterQuery-seeded assignments began (spec.md §4.2 step
	// 3 "Track each such assignment's starting row in previously_set_inputs").
	previouslySetInputs map[analyzed.PolyID]int
	// nextRow lets a secondary machine resume the row loop across repeated
	// RunQuery invocations (one per outer call) instead of restarting at 0.
	nextRow int
}

// NewVmProcessor builds a processor over scope, partitioning identities by
// whether they reference the next row (spec.md §4.2's two-pass compute_row:
// non-next-ref identities first, then next-ref identities).
func NewVmProcessor(program *analyzed.Analyzed, scope []analyzed.PolyID, identities []*analyzed.Identity, idProc *IdentityProcessor, queryProc *QueryProcessor) *VmProcessor {
	vp := &VmProcessor{
		Program:             program,
		Scope:               scope,
		Identities:          identities,
		IdentityProc:        idProc,
		QueryProc:           queryProc,
		Data:                NewFinalizableData(scope),
		Logger:              log.Logger,
		previouslySetInputs: map[analyzed.PolyID]int{},
	}
	for _, id := range identities {
		if id.Kind == analyzed.PolynomialIdentity && ContainsNextRef(id.Expression()) {
			vp.withNext = append(vp.withNext, id)
		} else {
			vp.withoutNext = append(vp.withoutNext, id)
		}
	}
	return vp
}

// Name implements Machine.
func (vp *VmProcessor) Name() string { return "vm" }

// Run computes every row of witness data as a primary machine (no outer
// query), then performs the final zero-strategy consistency pass.
func (vp *VmProcessor) Run(ctx context.Context) error {
	_, err := vp.RunQuery(ctx, nil)
	return err
}

// RunQuery is the row loop's primary entry point (spec.md §4.2). With
// outer == nil it runs as a primary machine to completion, including the
// final pass. With outer set, it runs as a secondary machine answering one
// outer call: it stops as soon as outer's latch selector evaluates to one
// (or can't yet be evaluated), reporting accumulated OuterAssignments either
// way.
//
// Loop detection and looping mode are scoped to outer == nil: interleaving
// a latch check with a proposed-row verification pass is not implemented,
// so a secondary machine always falls back to per-row computation.
func (vp *VmProcessor) RunQuery(ctx context.Context, outer *OuterQuery) (RunResult, error) {
	numRows := vp.Program.Degree
	if vp.Data.Len() == 0 {
		vp.Data.EnsureHasNextRow(0)
	}

	var outerAssignments []OuterAssignment
	row := vp.nextRow
	for row < numRows {
		select {
		case <-ctx.Done():
			return RunResult{}, ctx.Err()
		default:
		}

		vp.Data.EnsureHasNextRow(row)

		if outer == nil && row > 0 && row%loopDetectionInterval == 0 {
			if period, ok := vp.detectLoop(row); ok {
				vp.Stats.LoopsDetected++
				consumed, err := vp.tryLoopingMode(row, period, numRows)
				if err != nil {
					return RunResult{}, err
				}
				if consumed > 0 {
					row += consumed
					continue
				}
			}
		}

		rowOuter, err := vp.computeRow(row, StrategyUnknown, outer)
		if err != nil {
			return RunResult{}, err
		}
		outerAssignments = append(outerAssignments, rowOuter...)

		if outer != nil {
			latch, ok := vp.evalLatch(row, outer.Latch)
			if !ok {
				vp.nextRow = row
				return RunResult{Reason: ReasonUnknownLatch, Outer: outerAssignments}, nil
			}
			if latch.Equal(field.One) {
				vp.nextRow = row + 1
				if outer.Complete {
					return RunResult{Complete: true, Outer: outerAssignments}, nil
				}
				return RunResult{Reason: ReasonBlockMachineLookupIncomplete, Outer: outerAssignments}, nil
			}
		}

		if row > 0 && row%finalizeInterval == 0 {
			vp.finalizeUpTo(row - maxPeriod)
		}

		row++
		vp.Stats.RowsProcessed++
	}
	vp.nextRow = row

	if outer != nil {
		return RunResult{Complete: true, Outer: outerAssignments}, nil
	}
	if err := vp.finalPass(numRows); err != nil {
		return RunResult{}, err
	}
	return RunResult{Complete: true}, nil
}

// evalLatch reduces latch against row's current cell state. ok is false iff
// latch is non-nil but did not reduce to a constant yet (spec.md §4.2 step 4
// "If a latch is expected but cannot yet be evaluated"). A nil latch (no
// outer query active) is reported as the constant zero, i.e. it never
// fires.
func (vp *VmProcessor) evalLatch(row int, latch *analyzed.AlgebraicExpression) (field.Element, bool) {
	if latch == nil {
		return field.Zero, true
	}
	cur, next := vp.Data.MutableRowPair(row)
	reduced := Reduce(latch, RowPair{Current: cur, Next: next})
	if reduced.Kind != analyzed.AlgConstant {
		return field.Zero, false
	}
	return reduced.Constant, true
}

// computeRow runs the non-next-ref identities to a fixed point, then the
// next-ref identities to a fixed point (spec.md §4.2's compute_row(r)).
func (vp *VmProcessor) computeRow(row int, strategy UnknownStrategy, outer *OuterQuery) ([]OuterAssignment, error) {
	cur, next := vp.Data.MutableRowPair(row)
	rp := RowPair{Current: cur, Next: next}
	var lookup Lookup = rp
	if strategy == StrategyZero {
		lookup = zeroStrategyLookup{rp}
	}

	var outerAssignments []OuterAssignment

	pass1, err := vp.loopUntilNoProgress(row, cur, next, lookup, vp.withoutNext, outer)
	if err != nil {
		return outerAssignments, err
	}
	outerAssignments = append(outerAssignments, pass1...)

	pass2, err := vp.loopUntilNoProgress(row, cur, next, lookup, vp.withNext, outer)
	if err != nil {
		return outerAssignments, err
	}
	outerAssignments = append(outerAssignments, pass2...)

	return outerAssignments, nil
}

// loopUntilNoProgress repeats the full per-row step list until one
// iteration makes no further progress (spec.md §4.2's "loop_until_no_progress
// repeats until no progress": 1. evaluate identities; 2. process_outer_query
// if the latch is one; 3. set_inputs_if_unset; 4. the query processor;
// 5. apply_updates / detect whether anything changed).
func (vp *VmProcessor) loopUntilNoProgress(row int, cur, next *Row, lookup Lookup, identities []*analyzed.Identity, outer *OuterQuery) ([]OuterAssignment, error) {
	var collected []OuterAssignment
	for {
		progress := false

		for _, id := range identities {
			result, err := vp.IdentityProc.Process(id, lookup)
			if err != nil {
				return collected, vp.annotateFailure(err, cur, id)
			}
			vp.Stats.IdentitiesEvaluated++
			for _, a := range result.Assignments {
				target := cur
				if a.Ref.Next {
					target = next
				}
				if target.SetKnown(a.Ref.Poly, a.Value) {
					progress = true
					vp.Stats.Assignments++
				}
			}
			for _, c := range result.Constraints {
				target := cur
				if c.Ref.Next {
					target = next
				}
				if target.SetRangeConstraint(c.Ref.Poly, c.Constraint) {
					progress = true
					vp.Stats.RangeConstraints++
				}
			}
		}

		if outer != nil {
			latch, ok := vp.evalLatch(row, outer.Latch)
			if ok && latch.Equal(field.One) {
				assigns, changed, err := vp.processOuterQuery(cur, next, lookup, outer)
				if err != nil {
					return collected, err
				}
				collected = append(collected, assigns...)
				if changed {
					progress = true
				}
			}

			if vp.setInputsIfUnset(row, cur, outer) {
				progress = true
			}
		}

		for name, def := range vp.Program.Definitions {
			if def.Symbol.Kind != analyzed.KindPolynomial || def.Symbol.SubKind != analyzed.Committed {
				continue
			}
			poly := def.Symbol.PolyID()
			if cur.Get(poly).State != Unknown {
				continue
			}
			res, err := vp.QueryProc.Process(def, poly, row)
			if err != nil {
				return collected, fmt.Errorf("query for %s at row %d: %w", name, row, err)
			}
			if res.Resolved && cur.SetKnown(res.Assignment.Ref.Poly, res.Assignment.Value) {
				progress = true
				vp.Stats.QueriesResolved++
			}
		}

		if !progress {
			return collected, nil
		}
	}
}

// processOuterQuery links this machine's Right-hand expressions against the
// caller-supplied Left values of an active OuterQuery (spec.md §4.2 step 2).
// A Left argument the caller already knows is equated against our reduced
// Right expression and solved for the one witness reference it pins down
// (the same affine pattern-match processPolynomial uses). A Left argument
// still unknown to the caller is reported back as an OuterAssignment once
// our side resolves its Right expression to a constant.
func (vp *VmProcessor) processOuterQuery(cur, next *Row, lookup Lookup, outer *OuterQuery) ([]OuterAssignment, bool, error) {
	var assigns []OuterAssignment
	changed := false
	exprs := outer.Identity.Right.Expressions

	for i, e := range exprs {
		if i >= len(outer.Left) {
			break
		}
		reduced := Reduce(e, lookup)

		if outer.Left[i] != nil {
			if reduced.Kind == analyzed.AlgConstant {
				continue
			}
			free := FreeRefs(reduced)
			if len(free) != 1 {
				continue
			}
			link := analyzed.NewBinaryOp(analyzed.AlgSub, reduced, analyzed.NewConstant(*outer.Left[i]))
			if val, ok := matchAffine(link, free[0]); ok {
				target := cur
				if free[0].Next {
					target = next
				}
				if target.SetKnown(free[0].Poly, val) {
					changed = true
					vp.Stats.Assignments++
				}
			}
			continue
		}

		if reduced.Kind == analyzed.AlgConstant {
			assigns = append(assigns, OuterAssignment{Index: i, Value: reduced.Constant})
			changed = true
		}
	}
	return assigns, changed, nil
}

// setInputsIfUnset assigns each OuterQuery input polynomial that maps
// directly onto one of this machine's own witness columns, if that cell is
// not already Known to the same value (spec.md §4.2 step 3). Assigning a
// different value than what's already committed rolls back every row since
// the input's last assignment run before overwriting (the mechanism
// previouslySetInputs exists for).
func (vp *VmProcessor) setInputsIfUnset(row int, cur *Row, outer *OuterQuery) bool {
	changed := false
	exprs := outer.Identity.Left.Expressions
	for i, e := range exprs {
		if i >= len(outer.Left) || outer.Left[i] == nil {
			continue
		}
		if e.Kind != analyzed.AlgReference || e.Reference.Next {
			continue
		}
		poly := e.Reference.Poly
		want := *outer.Left[i]
		cell := cur.Get(poly)

		if cell.State == Known {
			if cell.Value.Equal(want) {
				continue
			}
			vp.rollbackInput(poly, row)
			cur.Reset(poly)
		}

		if cur.SetKnown(poly, want) {
			changed = true
			if _, ok := vp.previouslySetInputs[poly]; !ok {
				vp.previouslySetInputs[poly] = row
			}
		}
	}
	return changed
}

// rollbackInput resets every row from poly's recorded assignment start up to
// (but excluding) row back to Unknown, for when a later OuterQuery call
// supplies a different value for the same input column (spec.md §4.2 step 3
// "all rows from the recorded start up to (but excluding) the current row
// are rolled back to Unknown").
func (vp *VmProcessor) rollbackInput(poly analyzed.PolyID, row int) {
	start, ok := vp.previouslySetInputs[poly]
	if !ok {
		return
	}
	for r := start; r < row; r++ {
		vp.Data.Get(r).Reset(poly)
	}
	delete(vp.previouslySetInputs, poly)
}

func (vp *VmProcessor) annotateFailure(err error, row *Row, id *analyzed.Identity) error {
	return fmt.Errorf("%w\nrow: %s", err, row.Render())
}

// detectLoop checks whether the last 2*maxPeriod rows contain a repeating
// pattern of some period p <= maxPeriod, per spec.md §4.2 step 2: "row[r-i-p]
// == row[r-i]" for every i in the checked window.
func (vp *VmProcessor) detectLoop(row int) (int, bool) {
	for p := 1; p <= maxPeriod; p++ {
		if row-2*p < 0 {
			continue
		}
		matches := true
		for i := 0; i < p; i++ {
			if !vp.Data.Get(row-i).Equal(vp.Data.Get(row - i - p)) {
				matches = false
				break
			}
		}
		if matches {
			return p, true
		}
	}
	return 0, false
}

// tryLoopingMode proposes that rows [row, numRows) repeat row[r-period],
// committing each proposed row as soon as verifyProposedRow accepts it
// (spec.md §4.2 step 3 "try_proposed_row"). It returns the number of rows it
// filled this way; a verification failure at row r stops the batch there
// (rows already committed earlier in the batch stay committed) and re-runs
// compute_row(r-1) to restore forward propagation through next-references,
// per try_proposed_row's documented failure handling.
func (vp *VmProcessor) tryLoopingMode(row, period, numRows int) (int, error) {
	filled := 0
	for r := row; r < numRows; r++ {
		vp.Data.EnsureHasNextRow(r)
		source := vp.Data.Get(r - period)
		proposed := source.Clone()

		ok, err := vp.verifyProposedRow(r, proposed)
		if err != nil {
			return filled, err
		}
		if !ok {
			vp.Stats.LoopsRejected++
			vp.Logger.Debug().Int("row", r).Int("period", period).
				Msg("proposed looping row rejected, falling back to per-row computation")
			if _, err := vp.computeRow(r-1, StrategyUnknown, nil); err != nil {
				return filled, err
			}
			return filled, nil
		}

		vp.commitProposedRow(r, proposed)
		filled++
	}
	return filled, nil
}

// verifyProposedRow implements try_proposed_row's two-sided check, both
// under strategy Zero: identities without a next-row reference are checked
// against proposed alone; identities with one are checked against (row
// r-1, proposed) (spec.md §4.2 "try_proposed_row"). Plookup/Permutation
// identities are not part of this check: looping mode is only entered for
// machines with no active outer query (see RunQuery), so an unresolved
// machine call here would not be meaningful.
func (vp *VmProcessor) verifyProposedRow(r int, proposed *Row) (bool, error) {
	selfLookup := zeroStrategyLookup{RowPair{Current: proposed, Next: proposed}}
	if !identitiesHoldUnderZero(vp.withoutNext, selfLookup) {
		return false, nil
	}

	prev := vp.Data.Get(r - 1)
	pairLookup := zeroStrategyLookup{RowPair{Current: prev, Next: proposed}}
	if !identitiesHoldUnderZero(vp.withNext, pairLookup) {
		return false, nil
	}
	return true, nil
}

func identitiesHoldUnderZero(identities []*analyzed.Identity, lookup Lookup) bool {
	for _, id := range identities {
		if id.Kind != analyzed.PolynomialIdentity {
			continue
		}
		reduced := Reduce(id.Expression(), lookup)
		if reduced.Kind != analyzed.AlgConstant || !reduced.Constant.IsZero() {
			return false
		}
	}
	return true
}

// commitProposedRow installs proposed as row r's content. Row r was already
// materialized as a fresh Unknown row by EnsureHasNextRow, so this overwrites
// that placeholder in place rather than pushing a duplicate.
func (vp *VmProcessor) commitProposedRow(r int, proposed *Row) {
	vp.Data.rows[vp.rowIndex(r)] = proposed
}

// rowIndex converts an absolute row index into an index into the mutable
// tail slice, used only by commitProposedRow's direct row-splice.
func (vp *VmProcessor) rowIndex(r int) int {
	return r - len(vp.Data.finalized)
}

// finalizeUpTo compacts every row before upTo into read-only storage,
// freeing the mutable prefix (spec.md §5 "Memory").
func (vp *VmProcessor) finalizeUpTo(upTo int) {
	from := len(vp.Data.finalized)
	if upTo <= from {
		return
	}
	vp.Data.Finalize(from, upTo)
	vp.Stats.Finalizations++
}

// finalPass first matches the wrap-around row numRows against row 0: a cell
// Known in row 0 is copied into the wrap row where that is not yet Known, and
// a wrap cell Known to a different value is an error. It then re-evaluates
// every row under the zero UnknownStrategy: any cell
// still Unknown after the main loop is treated as zero, and every identity
// must still hold. It also requires every committed witness cell to have
// actually reached Known (spec.md §8's "every committed cell is Known"): a
// cell merely range-constrained (e.g. `x*(x-1)=0` pinning x to {0,1} without
// ever assigning it) can make every identity hold under zero-fill while
// still leaving the column unconstrained in the sense that matters -- the
// prover would not know which witness to supply. A violation in either check
// means the program is genuinely underconstrained (spec.md §4.2's "panic
// with diagnostics" case): this implementation returns a KindUnderconstrained
// error instead of a literal panic, carrying the same row-rendering +
// failing-identity diagnostic.
func (vp *VmProcessor) finalPass(numRows int) error {
	first, wrap := vp.Data.Get(0), vp.Data.Get(numRows)
	for _, poly := range vp.Scope {
		fc, wc := first.Get(poly), wrap.Get(poly)
		if fc.State != Known {
			continue
		}
		if wc.State == Known && !wc.Value.Equal(fc.Value) {
			return fmt.Errorf("wrap-around row %d does not match row 0 for %s_%d: %s", numRows, poly.SubKind, poly.ID, wrap.Render())
		}
		wrap.SetKnown(poly, fc.Value)
	}
	for row := 0; row < numRows; row++ {
		cur, next := vp.Data.MutableRowPair(row)
		lookup := zeroStrategyLookup{RowPair{Current: cur, Next: next}}
		for _, id := range vp.Identities {
			if id.Kind != analyzed.PolynomialIdentity {
				continue
			}
			reduced := Reduce(id.Expression(), lookup)
			if reduced.Kind == analyzed.AlgConstant && !reduced.Constant.IsZero() {
				return KindUnderconstrained.New(row,
					fmt.Sprintf("identity %d fails under zero-fill: %s", id.ID, cur.Render()))
			}
		}
		for _, poly := range vp.Scope {
			if poly.SubKind != analyzed.Committed {
				continue
			}
			if cur.Get(poly).State != Known {
				return KindUnderconstrained.New(row,
					fmt.Sprintf("%s_%d never resolved to a known value: %s", poly.SubKind, poly.ID, cur.Render()))
			}
		}
	}
	return nil
}
