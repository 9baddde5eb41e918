package model

import (
	"fmt"
	"slices"

	"github.com/katalvlaran/gradsample/vectorize"
)

// evaluation caches log p and its gradient at one position.
type evaluation struct {
	lp     LogP
	lpOK   bool // lp valid
	grad   []float64
	gradOK bool // grad valid
}

func (e *evaluation) reset() {
	e.lpOK, e.gradOK = false, false
}

// VarAdapter drives a Target through a vectorize.Mapper: the mapped variables
// always hold the position in effect, committed or staged.
//
// Evaluations are cached per position, so reverting to the committed position
// does not re-evaluate the target.
type VarAdapter struct {
	mapper *vectorize.Mapper
	target Target

	committed []float64
	current   []float64
	state     State

	cur, com evaluation // caches for current and committed positions

	reverts, densityEvals, gradEvals int
}

var _ Adapter = (*VarAdapter)(nil)

// NewVarAdapter returns a Committed adapter positioned at the variables'
// current values.
func NewVarAdapter(m *vectorize.Mapper, t Target) (*VarAdapter, error) {
	if m == nil || t == nil {
		return nil, fmt.Errorf("model: NewVarAdapter: nil mapper or target")
	}
	x := m.ToVector()

	return &VarAdapter{
		mapper:    m,
		target:    t,
		committed: x,
		current:   slices.Clone(x),
		cur:       evaluation{grad: make([]float64, len(x))},
		com:       evaluation{grad: make([]float64, len(x))},
	}, nil
}

// Mapper returns the variable layout.
func (a *VarAdapter) Mapper() *vectorize.Mapper { return a.mapper }

// Dimensions implements Adapter.
func (a *VarAdapter) Dimensions() int { return len(a.current) }

// Vector implements Adapter.
func (a *VarAdapter) Vector() []float64 { return slices.Clone(a.current) }

// CommittedVector implements Adapter.
func (a *VarAdapter) CommittedVector() []float64 { return slices.Clone(a.committed) }

// State implements Adapter.
func (a *VarAdapter) State() State { return a.state }

// Reverts counts trials discarded so far, including the implicit reverts of
// SetTrial over a staged trial.
func (a *VarAdapter) Reverts() int { return a.reverts }

// Evaluations returns how many times the target's density and gradient ran.
func (a *VarAdapter) Evaluations() (density, gradient int) { return a.densityEvals, a.gradEvals }

// SetTrial implements Adapter.
func (a *VarAdapter) SetTrial(x []float64) error {
	if len(x) != len(a.current) {
		return fmt.Errorf("model: SetTrial: len %d, want %d: %w", len(x), len(a.current), vectorize.ErrDimensionMismatch)
	}
	if a.state == Staged {
		a.Revert()
	}
	if err := a.mapper.FromVector(x); err != nil {
		// FromVector may have written the variables ahead of the failing one.
		_ = a.mapper.FromVector(a.committed)
		return fmt.Errorf("model: SetTrial: %w", err)
	}
	copy(a.current, x)
	a.cur.reset()
	a.state = Staged

	return nil
}

// Commit implements Adapter.
func (a *VarAdapter) Commit() {
	if a.state != Staged {
		return
	}
	copy(a.committed, a.current)
	a.com.lp, a.com.lpOK, a.com.gradOK = a.cur.lp, a.cur.lpOK, a.cur.gradOK
	copy(a.com.grad, a.cur.grad)
	a.state = Committed
}

// Revert implements Adapter.
func (a *VarAdapter) Revert() {
	if a.state != Staged {
		return
	}
	// The committed position was written successfully before, so it fits.
	_ = a.mapper.FromVector(a.committed)
	copy(a.current, a.committed)
	a.cur.lp, a.cur.lpOK, a.cur.gradOK = a.com.lp, a.com.lpOK, a.com.gradOK
	copy(a.cur.grad, a.com.grad)
	a.state = Committed
	a.reverts++
}

// LogDensity implements Adapter.
func (a *VarAdapter) LogDensity() LogP {
	if !a.cur.lpOK {
		a.cur.lp = a.target.LogDensity(slices.Clone(a.current))
		a.cur.lpOK = true
		a.densityEvals++
		a.syncCommitted()
	}

	return a.cur.lp
}

// Gradient implements Adapter.
func (a *VarAdapter) Gradient() ([]float64, bool) {
	if !a.LogDensity().Feasible() {
		return nil, false
	}
	if !a.cur.gradOK {
		clear(a.cur.grad)
		a.target.Gradient(a.cur.grad, slices.Clone(a.current))
		a.cur.gradOK = true
		a.gradEvals++
		a.syncCommitted()
	}

	return slices.Clone(a.cur.grad), true
}

// syncCommitted mirrors fresh evaluations into the committed cache while no
// trial is staged.
func (a *VarAdapter) syncCommitted() {
	if a.state != Committed {
		return
	}
	a.com.lp, a.com.lpOK, a.com.gradOK = a.cur.lp, a.cur.lpOK, a.cur.gradOK
	copy(a.com.grad, a.cur.grad)
}
