package main

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/katalvlaran/gradsample/hmc"
	"github.com/katalvlaran/gradsample/matrix"
	"github.com/katalvlaran/gradsample/model"
	"github.com/katalvlaran/gradsample/vectorize"
)

// example is a ready-to-sample model: its variables (holding start values)
// and its target density over their flat layout.
type example struct {
	vars   []vectorize.Variable
	target model.Target
}

// normalExample is a standard normal scalar started far in the tail.
func normalExample(uint64) (example, error) {
	x := vectorize.NewScalar("x", 5)
	return example{
		vars: []vectorize.Variable{x},
		target: model.Funcs{
			LogP: func(v []float64) model.LogP { return model.Finite(-0.5 * v[0] * v[0]) },
			Grad: func(dst, v []float64) { dst[0] = -v[0] },
		},
	}, nil
}

// gaussianExample is x ~ N(0, 10²) of size 3 and y ~ N(0, 0.1²), two scales
// four orders of magnitude apart.
func gaussianExample(uint64) (example, error) {
	x, err := vectorize.NewVar("x", []int{3}, []float64{0, 0, 0})
	if err != nil {
		return example{}, err
	}
	y := vectorize.NewScalar("y", 0)
	cov, err := matrix.NewDiagonal([]float64{100, 100, 100, 0.01})
	if err != nil {
		return example{}, err
	}
	g, err := model.NewGaussian(make([]float64, 4), cov)
	if err != nil {
		return example{}, err
	}

	return example{vars: []vectorize.Variable{x, y}, target: g}, nil
}

// powerLaw is the likelihood of measured ≈ a·Re^b with Gaussian noise of
// standard deviation sd, over the flat layout (sd, a, b).
type powerLaw struct {
	re, measured []float64
}

func (p *powerLaw) LogDensity(v []float64) model.LogP {
	sd, a, b := v[0], v[1], v[2]
	noise := distuv.Normal{Mu: 0, Sigma: sd}
	lp := 0.0
	for i, re := range p.re {
		lp += noise.LogProb(p.measured[i] - a*math.Pow(re, b))
	}

	return model.Finite(lp)
}

func (p *powerLaw) Gradient(dst, v []float64) {
	sd, a, b := v[0], v[1], v[2]
	inv2 := 1 / (sd * sd)
	clear(dst)
	for i, re := range p.re {
		pow := math.Pow(re, b)
		r := p.measured[i] - a*pow
		dst[0] += -1/sd + r*r*inv2/sd
		dst[1] += r * inv2 * pow
		dst[2] += r * inv2 * a * pow * math.Log(re)
	}
}

// powerLawExample fits a·Re^b to synthetic data 10.2·Re^0.5 + N(0, 55²) on
// Re = 200, 225, ..., 2975 under uniform priors sd∈[5,100], a∈[0,100],
// b∈[0.05,2]. The priors are flat, so inside the box the posterior is the
// likelihood up to a constant. The data depend on seed.
func powerLawExample(seed uint64) (example, error) {
	src := rand.NewPCG(hmc.DeriveSeed(seed, 1), hmc.DeriveSeed(seed, 2))
	noise := distuv.Normal{Mu: 0, Sigma: 55, Src: src}
	lik := &powerLaw{}
	for re := 200.0; re < 3000; re += 25 {
		lik.re = append(lik.re, re)
		lik.measured = append(lik.measured, 10.2*math.Sqrt(re)+noise.Rand())
	}
	bounded, err := model.NewBounded(lik, []float64{5, 0, 0.05}, []float64{100, 100, 2})
	if err != nil {
		return example{}, fmt.Errorf("powerlaw: %w", err)
	}

	return example{
		vars: []vectorize.Variable{
			vectorize.NewScalar("sd", 55),
			vectorize.NewScalar("a", 10),
			vectorize.NewScalar("b", 0.5),
		},
		target: bounded,
	}, nil
}
