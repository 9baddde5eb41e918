package model

// State of an Adapter in the stage/commit/revert protocol.
type State int

const (
	// Committed: the position in effect is the committed one.
	Committed State = iota
	// Staged: a trial position is in effect and may be committed or reverted.
	Staged
)

func (s State) String() string {
	switch s {
	case Committed:
		return "committed"
	case Staged:
		return "staged"
	default:
		return "unknown"
	}
}

// Adapter evaluates a model at a staged or committed flat position.
//
// Implementations must honor the transactional contract:
//   - SetTrial from Staged performs Revert before staging the new position.
//   - Commit and Revert are no-ops in Committed.
//   - LogDensity and Gradient describe the position currently in effect.
type Adapter interface {
	// Dimensions is the length of the flat position vector.
	Dimensions() int
	// Vector returns a copy of the position in effect.
	Vector() []float64
	// CommittedVector returns a copy of the last committed position.
	CommittedVector() []float64
	// SetTrial stages x. It fails only on a length mismatch or when the
	// position cannot be written to the model.
	SetTrial(x []float64) error
	// Commit makes the staged trial the committed position.
	Commit()
	// Revert discards the staged trial.
	Revert()
	// LogDensity evaluates log p at the position in effect.
	LogDensity() LogP
	// Gradient returns ∇log p at the position in effect; ok is false where
	// the position is infeasible.
	Gradient() (grad []float64, ok bool)
	// State reports the protocol state.
	State() State
}

// Target is a log-density over a flat vector.
type Target interface {
	// LogDensity evaluates log p(x).
	LogDensity(x []float64) LogP
	// Gradient writes ∇log p(x) into dst. It is only called at feasible x.
	Gradient(dst, x []float64)
}

// Funcs adapts two closures to Target.
type Funcs struct {
	LogP func(x []float64) LogP
	Grad func(dst, x []float64)
}

var _ Target = Funcs{}

// LogDensity implements Target.
func (f Funcs) LogDensity(x []float64) LogP { return f.LogP(x) }

// Gradient implements Target.
func (f Funcs) Gradient(dst, x []float64) { f.Grad(dst, x) }
