package mode

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

// bfgs is an optimize.NextDirectioner that keeps its inverse-Hessian
// estimate reachable after the search, which gonum's own BFGS does not.
type bfgs struct {
	dim     int
	first   bool // next NextDirection rescales the initial estimate
	updates int  // accepted rank-two updates

	x, grad mat.VecDense // previous iterate and gradient
	s, y    mat.VecDense // x_{k+1}-x_k and g_{k+1}-g_k
	tmp     mat.VecDense

	invHess *mat.SymDense
}

var _ optimize.NextDirectioner = (*bfgs)(nil)

// InitDirection starts from the identity estimate: steepest descent, with a
// first step of unit length.
func (b *bfgs) InitDirection(loc *optimize.Location, dir []float64) (stepSize float64) {
	dim := len(loc.X)
	b.dim = dim
	b.first = true
	b.updates = 0

	b.x.CloneFromVec(mat.NewVecDense(dim, loc.X))
	grad := mat.NewVecDense(dim, loc.Gradient)
	b.grad.CloneFromVec(grad)
	b.s.Reset()
	b.y.Reset()
	b.tmp.Reset()
	b.invHess = mat.NewSymDense(dim, nil)
	for i := 0; i < dim; i++ {
		b.invHess.SetSym(i, i, 1)
	}

	d := mat.NewVecDense(dim, dir)
	d.ScaleVec(-1, grad)

	return 1 / mat.Norm(d, 2)
}

// NextDirection applies the BFGS inverse update
//
//	H⁺ = H + (sᵀy + yᵀHy)/(sᵀy)² · ssᵀ − (Hysᵀ + syᵀH)/(sᵀy)
//
// and returns the direction −H⁺g. Updates with sᵀy ≤ 0 are skipped so that
// H stays positive definite.
func (b *bfgs) NextDirection(loc *optimize.Location, dir []float64) (stepSize float64) {
	dim := b.dim
	x := mat.NewVecDense(dim, loc.X)
	grad := mat.NewVecDense(dim, loc.Gradient)

	b.s.SubVec(x, &b.x)
	b.y.SubVec(grad, &b.grad)
	sDotY := mat.Dot(&b.s, &b.y)

	if sDotY > 0 {
		if b.first {
			// Nocedal & Wright (2006), eq. 6.20: rescale H₀ = (sᵀy / yᵀy)·I.
			scale := sDotY / mat.Dot(&b.y, &b.y)
			for i := 0; i < dim; i++ {
				for j := i; j < dim; j++ {
					if i == j {
						b.invHess.SetSym(i, i, scale)
					} else {
						b.invHess.SetSym(i, j, 0)
					}
				}
			}
			b.first = false
		}
		yHy := mat.Inner(&b.y, b.invHess, &b.y)
		b.tmp.MulVec(b.invHess, &b.y)
		b.invHess.SymRankOne(b.invHess, (1+yHy/sDotY)/sDotY, &b.s)
		b.invHess.RankTwo(b.invHess, -1/sDotY, &b.tmp, &b.s)
		b.updates++
	}

	b.x.CopyVec(x)
	b.grad.CopyVec(grad)

	d := mat.NewVecDense(dim, dir)
	d.MulVec(b.invHess, grad)
	d.ScaleVec(-1, d)

	return 1
}

// estimate returns a copy of the inverse Hessian of the objective, or nil
// when no update has been accepted yet.
func (b *bfgs) estimate() *mat.SymDense {
	if b.updates == 0 || b.invHess == nil {
		return nil
	}
	out := mat.NewSymDense(b.dim, nil)
	out.CopySym(b.invHess)

	return out
}
