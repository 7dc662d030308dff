package action

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/wlattner/automl/data"
)

// qrSweeps is the fixed number of QR iteration sweeps used to extract
// eigenvalues/eigenvectors from the correlation matrix.
const qrSweeps = 10

// PCA projects feature columns onto the eigenvectors of their correlation
// matrix (used as a covariance proxy), keeping the smallest leading prefix
// whose cumulative relative variance reaches (>=) PreservationPercentage.
type PCA struct {
	PreservationPercentage float64

	initValid  bool
	means      []float64
	featureIdx []string // original feature order, parallel to means
	vectors    [][]float64 // kept eigenvectors, one per output column
	nKept      int
}

// NewPCA validates 0 < p <= 100.
func NewPCA(preservationPercentage float64) *PCA {
	pca := &PCA{PreservationPercentage: preservationPercentage}
	pca.initValid = preservationPercentage > 0 && preservationPercentage <= 100
	return pca
}

func (pca *PCA) ID() string { return "PCA" }

func (pca *PCA) Build(train *data.Package) error {
	if !pca.initValid {
		return nil
	}

	keys := train.SampleKeys()
	names := train.FDB.Header.Names
	n, p := len(keys), len(names)
	if n == 0 || p == 0 {
		pca.initValid = false
		return nil
	}

	X := mat.NewDense(n, p, nil)
	for i, k := range keys {
		row, err := train.FDB.NumericRow(k)
		if err != nil {
			pca.initValid = false
			return nil
		}
		for j, v := range row {
			X.Set(i, j, v)
		}
	}

	means := make([]float64, p)
	for j := 0; j < p; j++ {
		col := mat.Col(nil, j, X)
		sum := 0.0
		for _, v := range col {
			sum += v
		}
		means[j] = sum / float64(n)
		for i := 0; i < n; i++ {
			X.Set(i, j, X.At(i, j)-means[j])
		}
	}
	pca.means = means
	pca.featureIdx = names

	corr := correlationMatrix(X, n, p)

	eigenvalues, eigenvectors := qrIterationEigen(corr, p)

	type ev struct {
		val float64
		vec []float64
	}
	pairs := make([]ev, p)
	for i := range pairs {
		pairs[i] = ev{val: eigenvalues[i], vec: eigenvectors[i]}
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		return math.Abs(pairs[i].val) > math.Abs(pairs[j].val)
	})

	total := 0.0
	for _, pr := range pairs {
		total += math.Abs(pr.val)
	}
	if total == 0 {
		pca.initValid = false
		return nil
	}

	cum := 0.0
	var kept [][]float64
	for _, pr := range pairs {
		cum += 100.0 * math.Abs(pr.val) / total
		kept = append(kept, pr.vec)
		if cum >= pca.PreservationPercentage {
			break
		}
	}

	pca.vectors = kept
	pca.nKept = len(kept)
	return nil
}

// Run projects each sample onto the kept eigenvectors, emitting columns
// named "A::B::Feature{i+1}". Passes pkg through unchanged if Build found
// no vectors.
func (pca *PCA) Run(pkg *data.Package) (*data.Package, error) {
	if !pca.initValid || pca.nKept == 0 {
		return pkg, nil
	}

	names := make([]string, pca.nKept)
	for i := range names {
		names[i] = fmt.Sprintf("A::B::Feature%d", i+1)
	}

	records := make(map[string][]string, len(pkg.FDB.Keys()))
	keys := pkg.FDB.Keys()
	for _, k := range keys {
		row, err := pkg.FDB.NumericRow(k)
		if err != nil {
			return pkg, nil
		}
		centered := make([]float64, len(row))
		for i, v := range row {
			centered[i] = v - pca.means[i]
		}
		projected := make([]string, pca.nKept)
		for c, vec := range pca.vectors {
			sum := 0.0
			for i, v := range centered {
				if i < len(vec) {
					sum += v * vec[i]
				}
			}
			projected[c] = fmt.Sprintf("%g", sum)
		}
		records[k] = projected
	}

	header := data.Header{Names: names}
	for range names {
		header.Types = append(header.Types, "numeric")
	}

	newFDB, err := data.NewTabularData(header, records, keys)
	if err != nil {
		return pkg, nil
	}
	return data.NewPackage(newFDB, pkg.LDB, pkg.LabelName)
}

func (pca *PCA) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"preservationPercentage": pca.PreservationPercentage,
		"componentsKept":         pca.nKept,
	}
}

func (pca *PCA) IsFeatureSpaceAction() bool { return true }

// correlationMatrix builds a Pearson correlation matrix of X's columns,
// used as the covariance proxy.
func correlationMatrix(X *mat.Dense, n, p int) *mat.Dense {
	std := make([]float64, p)
	for j := 0; j < p; j++ {
		ss := 0.0
		for i := 0; i < n; i++ {
			v := X.At(i, j)
			ss += v * v
		}
		std[j] = math.Sqrt(ss / float64(n))
	}

	corr := mat.NewDense(p, p, nil)
	for a := 0; a < p; a++ {
		for b := 0; b < p; b++ {
			if std[a] == 0 || std[b] == 0 {
				corr.Set(a, b, 0)
				continue
			}
			cov := 0.0
			for i := 0; i < n; i++ {
				cov += X.At(i, a) * X.At(i, b)
			}
			cov /= float64(n)
			corr.Set(a, b, cov/(std[a]*std[b]))
		}
	}
	return corr
}

// qrIterationEigen runs qrSweeps sweeps of classical Gram-Schmidt QR
// iteration over A (p x p), returning the diagonal of the final iterate as
// eigenvalues and the columns of the accumulated Q product as eigenvectors.
func qrIterationEigen(A *mat.Dense, p int) (eigenvalues []float64, eigenvectors [][]float64) {
	Ak := mat.DenseCopyOf(A)
	Qacc := mat.NewDense(p, p, nil)
	for i := 0; i < p; i++ {
		Qacc.Set(i, i, 1)
	}

	for sweep := 0; sweep < qrSweeps; sweep++ {
		Q, R := classicalGramSchmidt(Ak, p)

		var nextQacc mat.Dense
		nextQacc.Mul(Qacc, Q)
		Qacc = &nextQacc

		var nextA mat.Dense
		nextA.Mul(R, Q)
		Ak = &nextA
	}

	eigenvalues = make([]float64, p)
	for i := 0; i < p; i++ {
		eigenvalues[i] = Ak.At(i, i)
	}

	eigenvectors = make([][]float64, p)
	for col := 0; col < p; col++ {
		vec := make([]float64, p)
		for row := 0; row < p; row++ {
			vec[row] = Qacc.At(row, col)
		}
		eigenvectors[col] = vec
	}

	return eigenvalues, eigenvectors
}

// classicalGramSchmidt factors A = QR using the classical (non-modified)
// Gram-Schmidt process.
func classicalGramSchmidt(A *mat.Dense, p int) (*mat.Dense, *mat.Dense) {
	Q := mat.NewDense(p, p, nil)
	R := mat.NewDense(p, p, nil)

	cols := make([][]float64, p)
	for j := 0; j < p; j++ {
		cols[j] = mat.Col(nil, j, A)
	}

	qCols := make([][]float64, p)
	for j := 0; j < p; j++ {
		v := append([]float64(nil), cols[j]...)
		for k := 0; k < j; k++ {
			dot := dotProduct(qCols[k], cols[j])
			R.Set(k, j, dot)
			for i := range v {
				v[i] -= dot * qCols[k][i]
			}
		}
		norm := math.Sqrt(dotProduct(v, v))
		R.Set(j, j, norm)
		if norm > 1e-12 {
			for i := range v {
				v[i] /= norm
			}
		}
		qCols[j] = v
		for i := 0; i < p; i++ {
			Q.Set(i, j, v[i])
		}
	}

	return Q, R
}

func dotProduct(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}
