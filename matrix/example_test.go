package matrix_test

import (
	"fmt"

	"github.com/katalvlaran/gradsample/matrix"
)

// ExampleInverse turns a covariance into the matching precision matrix.
func ExampleInverse() {
	cov, _ := matrix.NewDenseFrom(2, 2, []float64{4, 0, 0, 0.25})
	prec, _ := matrix.Inverse(cov)
	fmt.Print(prec)

	// Output:
	// [0.25, 0]
	// [0, 4]
}

// ExampleQuadForm computes the kinetic energy ½·pᵀΣp of a momentum.
func ExampleQuadForm() {
	cov, _ := matrix.NewIdentity(2)
	q, _ := matrix.QuadForm(cov, []float64{3, 4})
	fmt.Println(0.5 * q)

	// Output:
	// 12.5
}
