package expr

import (
	"fmt"
	"math"
	"strings"
)

// Matrix is a dense rectangular matrix of symbolic entries.
type Matrix struct {
	Rows, Cols int
	Data       [][]Expr
}

// NewMatrix wraps row data, validating that rows are non-empty and of
// equal length.
func NewMatrix(data [][]Expr) (*Matrix, error) {
	if len(data) == 0 || len(data[0]) == 0 {
		return nil, fmt.Errorf("%w: matrix must have at least one row and column", ErrEval)
	}
	cols := len(data[0])
	for i, row := range data {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: row %d has %d entries, expected %d", ErrEval, i+1, len(row), cols)
		}
	}
	return &Matrix{Rows: len(data), Cols: cols, Data: data}, nil
}

// Identity returns the n x n identity matrix.
func Identity(n int) *Matrix {
	data := make([][]Expr, n)
	for i := range data {
		data[i] = make([]Expr, n)
		for j := range data[i] {
			if i == j {
				data[i][j] = N(1)
			} else {
				data[i][j] = N(0)
			}
		}
	}
	return &Matrix{Rows: n, Cols: n, Data: data}
}

func (m *Matrix) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, row := range m.Data {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('[')
		for j, e := range row {
			if j > 0 {
				b.WriteString(", ")
			}
			b.WriteString(e.String())
		}
		b.WriteByte(']')
	}
	b.WriteByte(']')
	return b.String()
}

// Simplify simplifies every entry.
func (m *Matrix) Simplify() *Matrix {
	out := m.clone()
	for i := range out.Data {
		for j := range out.Data[i] {
			out.Data[i][j] = out.Data[i][j].Simplify()
		}
	}
	return out
}

func (m *Matrix) clone() *Matrix {
	data := make([][]Expr, m.Rows)
	for i := range data {
		data[i] = make([]Expr, m.Cols)
		copy(data[i], m.Data[i])
	}
	return &Matrix{Rows: m.Rows, Cols: m.Cols, Data: data}
}

// IsSquare reports whether the matrix is square.
func (m *Matrix) IsSquare() bool { return m.Rows == m.Cols }

// Transpose returns the transpose.
func (m *Matrix) Transpose() *Matrix {
	data := make([][]Expr, m.Cols)
	for i := range data {
		data[i] = make([]Expr, m.Rows)
		for j := range data[i] {
			data[i][j] = m.Data[j][i]
		}
	}
	return &Matrix{Rows: m.Cols, Cols: m.Rows, Data: data}
}

// Trace returns the sum of the diagonal entries.
func (m *Matrix) Trace() (Expr, error) {
	if !m.IsSquare() {
		return nil, fmt.Errorf("%w: trace requires a square matrix, got %dx%d", ErrEval, m.Rows, m.Cols)
	}
	terms := make([]Expr, m.Rows)
	for i := range terms {
		terms[i] = m.Data[i][i]
	}
	return AddOf(terms...).Simplify(), nil
}

// Add returns m + other entrywise.
func (m *Matrix) Add(other *Matrix) (*Matrix, error) {
	if m.Rows != other.Rows || m.Cols != other.Cols {
		return nil, fmt.Errorf("%w: cannot add %dx%d and %dx%d matrices",
			ErrEval, m.Rows, m.Cols, other.Rows, other.Cols)
	}
	out := m.clone()
	for i := range out.Data {
		for j := range out.Data[i] {
			out.Data[i][j] = AddOf(m.Data[i][j], other.Data[i][j]).Simplify()
		}
	}
	return out, nil
}

// Subtract returns m - other entrywise.
func (m *Matrix) Subtract(other *Matrix) (*Matrix, error) {
	if m.Rows != other.Rows || m.Cols != other.Cols {
		return nil, fmt.Errorf("%w: cannot subtract %dx%d from %dx%d matrices",
			ErrEval, other.Rows, other.Cols, m.Rows, m.Cols)
	}
	out := m.clone()
	for i := range out.Data {
		for j := range out.Data[i] {
			out.Data[i][j] = AddOf(m.Data[i][j], MulOf(N(-1), other.Data[i][j])).Simplify()
		}
	}
	return out, nil
}

// Multiply returns the matrix product m * other.
func (m *Matrix) Multiply(other *Matrix) (*Matrix, error) {
	if m.Cols != other.Rows {
		return nil, fmt.Errorf("%w: cannot multiply %dx%d by %dx%d matrices",
			ErrEval, m.Rows, m.Cols, other.Rows, other.Cols)
	}
	data := make([][]Expr, m.Rows)
	for i := range data {
		data[i] = make([]Expr, other.Cols)
		for j := range data[i] {
			terms := make([]Expr, m.Cols)
			for k := 0; k < m.Cols; k++ {
				terms[k] = MulOf(m.Data[i][k], other.Data[k][j])
			}
			data[i][j] = AddOf(terms...).Simplify()
		}
	}
	return &Matrix{Rows: m.Rows, Cols: other.Cols, Data: data}, nil
}

// Scale multiplies every entry by s.
func (m *Matrix) Scale(s Expr) *Matrix {
	out := m.clone()
	for i := range out.Data {
		for j := range out.Data[i] {
			out.Data[i][j] = MulOf(s, m.Data[i][j]).Simplify()
		}
	}
	return out
}

// Determinant expands symbolically along the first row.
func (m *Matrix) Determinant() (Expr, error) {
	if !m.IsSquare() {
		return nil, fmt.Errorf("%w: determinant requires a square matrix, got %dx%d", ErrEval, m.Rows, m.Cols)
	}
	return m.det().Simplify(), nil
}

func (m *Matrix) det() Expr {
	switch m.Rows {
	case 1:
		return m.Data[0][0]
	case 2:
		return AddOf(
			MulOf(m.Data[0][0], m.Data[1][1]),
			MulOf(N(-1), m.Data[0][1], m.Data[1][0]),
		)
	}
	terms := make([]Expr, 0, m.Cols)
	for j := 0; j < m.Cols; j++ {
		sign := N(1)
		if j%2 == 1 {
			sign = N(-1)
		}
		terms = append(terms, MulOf(sign, m.Data[0][j], m.minor(0, j).det()))
	}
	return AddOf(terms...)
}

func (m *Matrix) minor(row, col int) *Matrix {
	data := make([][]Expr, 0, m.Rows-1)
	for i := 0; i < m.Rows; i++ {
		if i == row {
			continue
		}
		r := make([]Expr, 0, m.Cols-1)
		for j := 0; j < m.Cols; j++ {
			if j == col {
				continue
			}
			r = append(r, m.Data[i][j])
		}
		data = append(data, r)
	}
	return &Matrix{Rows: m.Rows - 1, Cols: m.Cols - 1, Data: data}
}

// Inverse returns the adjugate divided by the determinant. Singular
// matrices yield ErrSingular.
func (m *Matrix) Inverse() (*Matrix, error) {
	if !m.IsSquare() {
		return nil, fmt.Errorf("%w: inverse requires a square matrix, got %dx%d", ErrEval, m.Rows, m.Cols)
	}
	det, err := m.Determinant()
	if err != nil {
		return nil, err
	}
	if n, ok := det.Eval(); ok && n.IsZero() {
		return nil, fmt.Errorf("%w: matrix determinant is zero", ErrSingular)
	}
	invDet := PowOf(det, N(-1))
	data := make([][]Expr, m.Rows)
	for i := range data {
		data[i] = make([]Expr, m.Cols)
		for j := range data[i] {
			sign := N(1)
			if (i+j)%2 == 1 {
				sign = N(-1)
			}
			// Adjugate: transposed cofactors.
			data[i][j] = MulOf(sign, m.minor(j, i).det(), invDet).Simplify()
		}
	}
	return &Matrix{Rows: m.Rows, Cols: m.Cols, Data: data}, nil
}

// floatData evaluates every entry numerically. Entries with free
// symbols make the operation fail.
func (m *Matrix) floatData() ([][]float64, error) {
	out := make([][]float64, m.Rows)
	for i := range out {
		out[i] = make([]float64, m.Cols)
		for j := range out[i] {
			v, err := EvalFloat(m.Data[i][j], nil)
			if err != nil {
				return nil, fmt.Errorf("entry (%d,%d): %w", i+1, j+1, err)
			}
			out[i][j] = v
		}
	}
	return out, nil
}

const rankEps = 1e-10

// RREF returns the reduced row echelon form computed over floats.
func (m *Matrix) RREF() (*Matrix, error) {
	data, err := m.floatData()
	if err != nil {
		return nil, err
	}
	rrefInPlace(data)
	out := make([][]Expr, m.Rows)
	for i := range out {
		out[i] = make([]Expr, m.Cols)
		for j := range out[i] {
			v := data[i][j]
			if math.Abs(v-math.Round(v)) < rankEps {
				out[i][j] = N(int64(math.Round(v)))
			} else {
				out[i][j] = Float(v)
			}
		}
	}
	return &Matrix{Rows: m.Rows, Cols: m.Cols, Data: out}, nil
}

// Rank returns the number of nonzero rows in the RREF.
func (m *Matrix) Rank() (int, error) {
	data, err := m.floatData()
	if err != nil {
		return 0, err
	}
	rrefInPlace(data)
	rank := 0
	for _, row := range data {
		for _, v := range row {
			if math.Abs(v) > rankEps {
				rank++
				break
			}
		}
	}
	return rank, nil
}

// rrefInPlace runs Gauss-Jordan elimination with partial pivoting.
func rrefInPlace(a [][]float64) {
	rows, cols := len(a), len(a[0])
	lead := 0
	for r := 0; r < rows && lead < cols; r++ {
		pivot := r
		for i := r; i < rows; i++ {
			if math.Abs(a[i][lead]) > math.Abs(a[pivot][lead]) {
				pivot = i
			}
		}
		if math.Abs(a[pivot][lead]) < rankEps {
			for i := r; i < rows; i++ {
				a[i][lead] = 0
			}
			lead++
			r--
			continue
		}
		a[r], a[pivot] = a[pivot], a[r]
		div := a[r][lead]
		for j := 0; j < cols; j++ {
			a[r][j] /= div
		}
		for i := 0; i < rows; i++ {
			if i == r {
				continue
			}
			factor := a[i][lead]
			for j := 0; j < cols; j++ {
				a[i][j] -= factor * a[r][j]
			}
		}
		lead++
	}
}

const (
	qrMaxIter = 500
	qrTol     = 1e-12
)

// Eigenvalues returns the real eigenvalues of a square numeric matrix.
// 2x2 matrices use the closed form; larger matrices use unshifted QR
// iteration and fail if off-diagonal mass does not decay, which is the
// complex-eigenvalue case.
func (m *Matrix) Eigenvalues() ([]Expr, error) {
	vals, err := m.eigenvalueFloats()
	if err != nil {
		return nil, err
	}
	out := make([]Expr, len(vals))
	for i, v := range vals {
		out[i] = snapFloat(v)
	}
	return out, nil
}

// eigenvalueFloats computes the real eigenvalues sorted ascending.
func (m *Matrix) eigenvalueFloats() ([]float64, error) {
	if !m.IsSquare() {
		return nil, fmt.Errorf("%w: eigenvalues require a square matrix, got %dx%d", ErrEval, m.Rows, m.Cols)
	}
	data, err := m.floatData()
	if err != nil {
		return nil, err
	}
	n := m.Rows
	if n == 1 {
		return []float64{data[0][0]}, nil
	}
	if n == 2 {
		tr := data[0][0] + data[1][1]
		det := data[0][0]*data[1][1] - data[0][1]*data[1][0]
		disc := tr*tr - 4*det
		if disc < 0 {
			return nil, fmt.Errorf("%w: eigenvalues are complex: %g ± %gi",
				ErrNoRule, tr/2, math.Sqrt(-disc)/2)
		}
		sq := math.Sqrt(disc)
		return []float64{(tr - sq) / 2, (tr + sq) / 2}, nil
	}

	a := data
	for iter := 0; iter < qrMaxIter; iter++ {
		q, r := qrDecompose(a)
		a = matMulFloat(r, q)
		off := 0.0
		for i := 1; i < n; i++ {
			for j := 0; j < i; j++ {
				off += math.Abs(a[i][j])
			}
		}
		if off < qrTol {
			break
		}
		if iter == qrMaxIter-1 {
			return nil, fmt.Errorf("%w: eigenvalue iteration did not converge; matrix may have complex eigenvalues", ErrNoRule)
		}
	}
	vals := make([]float64, n)
	for i := range vals {
		vals[i] = a[i][i]
	}
	sortFloats(vals)
	return vals, nil
}

// eigenGroupEps clusters nearby iterated eigenvalues into one repeated
// eigenvalue.
const eigenGroupEps = 1e-8

// EigenPair is one eigenvalue with its algebraic multiplicity and a
// basis for its eigenspace. A defective eigenvalue carries fewer
// vectors than its multiplicity.
type EigenPair struct {
	Value        Expr
	Multiplicity int
	Vectors      []*Matrix
}

// Eigenvectors groups the real eigenvalues by multiplicity and solves
// the null space of A - lambda*I for each group.
func (m *Matrix) Eigenvectors() ([]EigenPair, error) {
	vals, err := m.eigenvalueFloats()
	if err != nil {
		return nil, err
	}
	data, err := m.floatData()
	if err != nil {
		return nil, err
	}
	n := m.Rows

	var pairs []EigenPair
	for i := 0; i < len(vals); {
		mult := 1
		for i+mult < len(vals) && math.Abs(vals[i+mult]-vals[i]) < eigenGroupEps {
			mult++
		}
		sum := 0.0
		for k := 0; k < mult; k++ {
			sum += vals[i+k]
		}
		lambda := sum / float64(mult)

		shifted := make([][]float64, n)
		for r := range shifted {
			shifted[r] = make([]float64, n)
			copy(shifted[r], data[r])
			shifted[r][r] -= lambda
		}
		pairs = append(pairs, EigenPair{
			Value:        snapFloat(lambda),
			Multiplicity: mult,
			Vectors:      nullSpaceBasis(shifted),
		})
		i += mult
	}
	return pairs, nil
}

// nullSpaceBasis solves a*x = 0 by row reduction, one basis vector per
// free column. a is clobbered.
func nullSpaceBasis(a [][]float64) []*Matrix {
	rows, cols := len(a), len(a[0])
	rrefInPlace(a)

	pivotRow := make(map[int]int, rows)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if math.Abs(a[r][c]) > rankEps {
				pivotRow[c] = r
				break
			}
		}
	}

	var basis []*Matrix
	for f := 0; f < cols; f++ {
		if _, ok := pivotRow[f]; ok {
			continue
		}
		col := make([][]Expr, cols)
		for c := 0; c < cols; c++ {
			switch r, ok := pivotRow[c]; {
			case c == f:
				col[c] = []Expr{N(1)}
			case ok:
				col[c] = []Expr{snapFloat(-a[r][f])}
			default:
				col[c] = []Expr{N(0)}
			}
		}
		basis = append(basis, &Matrix{Rows: cols, Cols: 1, Data: col})
	}
	return basis
}

func snapFloat(v float64) Expr {
	if math.Abs(v-math.Round(v)) < 1e-9 {
		return N(int64(math.Round(v)))
	}
	return Float(v)
}

func sortFloats(v []float64) {
	for i := 1; i < len(v); i++ {
		for j := i; j > 0 && v[j] < v[j-1]; j-- {
			v[j], v[j-1] = v[j-1], v[j]
		}
	}
}

// qrDecompose computes a QR factorization by modified Gram-Schmidt.
func qrDecompose(a [][]float64) (q, r [][]float64) {
	n := len(a)
	q = make([][]float64, n)
	r = make([][]float64, n)
	cols := make([][]float64, n)
	for i := range q {
		q[i] = make([]float64, n)
		r[i] = make([]float64, n)
	}
	for j := 0; j < n; j++ {
		cols[j] = make([]float64, n)
		for i := 0; i < n; i++ {
			cols[j][i] = a[i][j]
		}
	}
	for j := 0; j < n; j++ {
		v := cols[j]
		for k := 0; k < j; k++ {
			dot := 0.0
			for i := 0; i < n; i++ {
				dot += q[i][k] * v[i]
			}
			r[k][j] = dot
			for i := 0; i < n; i++ {
				v[i] -= dot * q[i][k]
			}
		}
		norm := 0.0
		for i := 0; i < n; i++ {
			norm += v[i] * v[i]
		}
		norm = math.Sqrt(norm)
		r[j][j] = norm
		if norm < qrTol {
			norm = 1
		}
		for i := 0; i < n; i++ {
			q[i][j] = v[i] / norm
		}
	}
	return q, r
}

func matMulFloat(a, b [][]float64) [][]float64 {
	n := len(a)
	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			sum := 0.0
			for k := 0; k < n; k++ {
				sum += a[i][k] * b[k][j]
			}
			out[i][j] = sum
		}
	}
	return out
}
