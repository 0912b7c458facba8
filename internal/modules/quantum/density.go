package quantum

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/cblas128"
	"gonum.org/v1/gonum/mat"

	"github.com/qlens/qlens/internal/modules/state"
)

// ConsistencyTolerance bounds how far the defensive trace and
// Hermiticity invariants may drift before an evaluation is halted.
const ConsistencyTolerance = 1e-6

// Density is a 2^n x 2^n density matrix over n qubits. It is either the
// outer product of a state vector or supplied directly by the caller.
type Density struct {
	m      *mat.CDense
	qubits int
}

// NewDensityFromVector builds rho = psi psi-dagger from a state vector.
func NewDensityFromVector(v state.Vector) (*Density, error) {
	qubits, ok := v.QubitCount()
	if !ok {
		return nil, fmt.Errorf("%w: dimension %d is not a power of 2", ErrValidation, len(v))
	}
	dim := len(v)
	data := make([]complex128, dim*dim)
	for r := 0; r < dim; r++ {
		for c := 0; c < dim; c++ {
			data[r*dim+c] = v[r] * cmplx.Conj(v[c])
		}
	}
	return &Density{m: mat.NewCDense(dim, dim, data), qubits: qubits}, nil
}

// NewDensity wraps an explicitly supplied matrix. It must be square
// with power-of-2 dimension and trace within tolerance of 1.
func NewDensity(rows [][]complex128) (*Density, error) {
	dim := len(rows)
	if dim == 0 || dim&(dim-1) != 0 {
		return nil, fmt.Errorf("%w: density dimension %d is not a power of 2", ErrValidation, dim)
	}
	qubits := 0
	for 1<<uint(qubits+1) <= dim {
		qubits++
	}
	data := make([]complex128, dim*dim)
	var trace complex128
	for r, row := range rows {
		if len(row) != dim {
			return nil, fmt.Errorf("%w: density row %d has %d entries, want %d", ErrValidation, r, len(row), dim)
		}
		copy(data[r*dim:], row)
		trace += row[r]
	}
	if math.Abs(real(trace)-1) > ConsistencyTolerance || math.Abs(imag(trace)) > ConsistencyTolerance {
		return nil, fmt.Errorf("%w: density trace %.9f deviates from 1", ErrValidation, real(trace))
	}
	return &Density{m: mat.NewCDense(dim, dim, data), qubits: qubits}, nil
}

// Qubits returns the number of qubits the matrix describes.
func (d *Density) Qubits() int {
	return d.qubits
}

// Dim returns the matrix dimension 2^n.
func (d *Density) Dim() int {
	r, _ := d.m.Dims()
	return r
}

// At returns one matrix element.
func (d *Density) At(r, c int) complex128 {
	return d.m.At(r, c)
}

// Rows returns the matrix in row-slice wire form.
func (d *Density) Rows() [][]complex128 {
	dim := d.Dim()
	out := make([][]complex128, dim)
	for r := 0; r < dim; r++ {
		row := make([]complex128, dim)
		for c := 0; c < dim; c++ {
			row[c] = d.m.At(r, c)
		}
		out[r] = row
	}
	return out
}

// Purity returns Tr(rho^2), which is 1 exactly when the matrix is the
// outer product of a pure state.
func (d *Density) Purity() float64 {
	dim := d.Dim()
	var sum complex128
	for r := 0; r < dim; r++ {
		for c := 0; c < dim; c++ {
			sum += d.m.At(r, c) * d.m.At(c, r)
		}
	}
	return real(sum)
}

// EvolveDensity applies the circuit to a density matrix, computing
// U rho U-dagger per gate so Hermiticity and trace are preserved. The
// input is never mutated; a new terminal density is returned.
func EvolveDensity(c Circuit, in *Density) (*Density, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if c.Qubits != in.qubits {
		return nil, fmt.Errorf("%w: density describes %d qubits, circuit has %d",
			ErrValidation, in.qubits, c.Qubits)
	}

	dim := in.Dim()
	cur := mat.NewCDense(dim, dim, nil)
	cur.Copy(in.m)

	for i := range c.Gates {
		udata, err := BuildUnitary(&c.Gates[i], c.Qubits)
		if err != nil {
			return nil, fmt.Errorf("gate %d: %w", i, err)
		}
		u := mat.NewCDense(dim, dim, udata)

		// U rho, then (U rho) U-dagger.
		tmp := mat.NewCDense(dim, dim, nil)
		cblas128.Gemm(blas.NoTrans, blas.NoTrans, 1, u.RawCMatrix(), cur.RawCMatrix(), 0, tmp.RawCMatrix())
		next := mat.NewCDense(dim, dim, nil)
		cblas128.Gemm(blas.NoTrans, blas.ConjTrans, 1, tmp.RawCMatrix(), u.RawCMatrix(), 0, next.RawCMatrix())
		cur = next
	}
	return &Density{m: cur, qubits: in.qubits}, nil
}

// Reduced is the 2x2 reduced density matrix of one qubit.
type Reduced [2][2]complex128

// Reduce computes the partial trace over every qubit except q, summing
// the remaining basis combinations out of the full matrix.
func (d *Density) Reduce(q int) (Reduced, error) {
	if q < 0 || q >= d.qubits {
		return Reduced{}, fmt.Errorf("%w: qubit %d outside [0,%d)", ErrValidation, q, d.qubits)
	}
	bit := 1 << uint(q)
	dim := d.Dim()

	var r Reduced
	for i := 0; i < dim; i++ {
		if i&bit != 0 {
			continue
		}
		j := i | bit
		r[0][0] += d.m.At(i, i)
		r[0][1] += d.m.At(i, j)
		r[1][0] += d.m.At(j, i)
		r[1][1] += d.m.At(j, j)
	}
	if err := r.Validate(); err != nil {
		return Reduced{}, err
	}
	return r, nil
}

// ReduceVector computes qubit q's reduced matrix directly from a state
// vector, without materializing the full density matrix:
// rho_q[a][b] = sum over the other qubits of psi[..a..] conj(psi[..b..]).
func ReduceVector(v state.Vector, q int) (Reduced, error) {
	qubits, ok := v.QubitCount()
	if !ok {
		return Reduced{}, fmt.Errorf("%w: dimension %d is not a power of 2", ErrValidation, len(v))
	}
	if q < 0 || q >= qubits {
		return Reduced{}, fmt.Errorf("%w: qubit %d outside [0,%d)", ErrValidation, q, qubits)
	}
	bit := 1 << uint(q)

	var r Reduced
	for i := range v {
		if i&bit != 0 {
			continue
		}
		j := i | bit
		r[0][0] += v[i] * cmplx.Conj(v[i])
		r[0][1] += v[i] * cmplx.Conj(v[j])
		r[1][0] += v[j] * cmplx.Conj(v[i])
		r[1][1] += v[j] * cmplx.Conj(v[j])
	}
	if err := r.Validate(); err != nil {
		return Reduced{}, err
	}
	return r, nil
}

// Trace returns rho00 + rho11.
func (r Reduced) Trace() complex128 {
	return r[0][0] + r[1][1]
}

// Purity returns Tr(rho^2), which is 1 exactly for pure states.
func (r Reduced) Purity() float64 {
	var sum complex128
	for a := 0; a < 2; a++ {
		for b := 0; b < 2; b++ {
			sum += r[a][b] * r[b][a]
		}
	}
	return real(sum)
}

// Validate enforces the defensive invariants: trace within tolerance of
// 1 and Hermiticity. A violation means the evaluation upstream produced
// an inconsistent state and must halt rather than report numbers.
func (r Reduced) Validate() error {
	tr := r.Trace()
	if math.Abs(real(tr)-1) > ConsistencyTolerance || math.Abs(imag(tr)) > ConsistencyTolerance {
		return fmt.Errorf("%w: reduced trace %.9f deviates from 1", ErrInternal, real(tr))
	}
	if cmplx.Abs(r[1][0]-cmplx.Conj(r[0][1])) > ConsistencyTolerance {
		return fmt.Errorf("%w: reduced matrix is not Hermitian", ErrInternal)
	}
	if math.Abs(imag(r[0][0])) > ConsistencyTolerance || math.Abs(imag(r[1][1])) > ConsistencyTolerance {
		return fmt.Errorf("%w: reduced diagonal is not real", ErrInternal)
	}
	return nil
}
