package model

import (
	"errors"
	"math"
	"strconv"
)

// ErrInfeasible marks a position outside the support of the distribution.
// LogP carries the condition as a value; callers that must surface it as an
// error wrap this sentinel.
var ErrInfeasible = errors.New("model: position is infeasible")

// LogP is a log-density evaluation result: a finite value or Infeasible.
// The zero value is Infeasible.
type LogP struct {
	v  float64
	ok bool
}

// Finite returns a feasible LogP holding v. NaN and ±Inf are normalized to
// Infeasible so that downstream arithmetic never sees them.
func Finite(v float64) LogP {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return LogP{}
	}

	return LogP{v: v, ok: true}
}

// Infeasible returns the zero-probability marker.
func Infeasible() LogP { return LogP{} }

// Value returns the log-density and whether it is feasible.
func (l LogP) Value() (float64, bool) { return l.v, l.ok }

// Feasible reports whether l holds a finite log-density.
func (l LogP) Feasible() bool { return l.ok }

// Add returns l + o; infeasible if either operand is.
func (l LogP) Add(o LogP) LogP {
	if !l.ok || !o.ok {
		return LogP{}
	}

	return Finite(l.v + o.v)
}

func (l LogP) String() string {
	if !l.ok {
		return "infeasible"
	}

	return strconv.FormatFloat(l.v, 'g', -1, 64)
}
