package gpr

import (
	"errors"
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/lucasmaystre/spentfuelgpr/kern"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// uniformModels returns one model per isotope built by fn.
func uniformModels(fn func(Isotope) *TrainedKernel) map[Isotope]*TrainedKernel {
	models := make(map[Isotope]*TrainedKernel, len(Isotopes))
	for _, iso := range Isotopes {
		tk := fn(iso)
		tk.Isotope = iso
		models[iso] = tk
	}
	return models
}

// randomFixture builds a 4-feature training set of n rows and models with
// distinct parameters per isotope.
func randomFixture(n int) (*mat.Dense, map[Isotope]*TrainedKernel) {
	rng := rand.New(rand.NewSource(7))
	training := mat.NewDense(n, 4, nil)
	training.Apply(func(_, _ int, _ float64) float64 { return rng.Float64() }, training)
	models := uniformModels(func(Isotope) *TrainedKernel {
		size := n/2 + rng.Intn(n/2+1)
		alpha := make([]float64, size)
		for i := range alpha {
			alpha[i] = rng.NormFloat64()
		}
		return &TrainedKernel{
			Type:       kern.TypeASQE,
			Params:     []float64{0.5 + rng.Float64(), 0.2 + rng.Float64(), 0.2 + rng.Float64(), 0.2 + rng.Float64(), 0.2 + rng.Float64(), 0.01},
			Alpha:      alpha,
			SubsetSize: size,
		}
	})
	return training, models
}

func TestPredictLinearCombination(t *testing.T) {
	// Two training rows, the second carries zero weight.
	training := mat.NewDense(2, 1, []float64{0, 1})
	const w = 3.0
	models := uniformModels(func(Isotope) *TrainedKernel {
		return &TrainedKernel{
			Type:       kern.TypeASQE,
			Params:     []float64{2, 1, 0},
			Alpha:      []float64{w, 0},
			SubsetSize: 2,
		}
	})
	res, err := Predict([]float64{1}, models, training)
	require.NoError(t, err)
	for _, iso := range Isotopes {
		assert.InDelta(t, w*4*math.Exp(-0.5), res[iso], 1e-12, "%s", iso)
	}
}

func TestPredictCompleteness(t *testing.T) {
	training, models := randomFixture(20)
	res, err := Predict(midpoint(training, models), models, training)
	require.NoError(t, err)
	require.NoError(t, res.Validate())

	got := make([]string, 0, len(res))
	for iso := range res {
		got = append(got, string(iso))
	}
	want := make([]string, len(Isotopes))
	for i, iso := range Isotopes {
		want[i] = string(iso)
	}
	sort.Strings(got)
	sort.Strings(want)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("isotope keys mismatch (-want +got):\n%s", diff)
	}
}

func TestPredictIdempotentAcrossWorkers(t *testing.T) {
	training, models := randomFixture(40)
	query := midpoint(training, models)

	first, err := Predict(query, models, training)
	require.NoError(t, err)
	again, err := Predict(query, models, training)
	require.NoError(t, err)
	assert.Equal(t, first, again)

	for _, workers := range []int{2, 4, 32} {
		res, err := NewPredictor(WithWorkers(workers), WithLogger(zap.NewNop())).Predict(query, models, training)
		require.NoError(t, err)
		assert.Equal(t, first, res, "workers = %d", workers)
	}
}

// midpoint returns the centre of the tightest training envelope across
// models. Subsets are prefixes, so it lies inside every envelope.
func midpoint(training *mat.Dense, models map[Isotope]*TrainedKernel) []float64 {
	size := math.MaxInt
	for _, tk := range models {
		size = min(size, tk.SubsetSize)
	}
	_, dim := training.Dims()
	q := make([]float64, dim)
	for d := range q {
		lo, hi := math.Inf(1), math.Inf(-1)
		for i := 0; i < size; i++ {
			lo = math.Min(lo, training.At(i, d))
			hi = math.Max(hi, training.At(i, d))
		}
		q[d] = (lo + hi) / 2
	}
	return q
}

func boundsFixture() (*mat.Dense, map[Isotope]*TrainedKernel) {
	training := mat.NewDense(3, 4, []float64{
		0.03, 500, 20, 10,
		0.05, 600, 40, 30,
		0.04, 550, 30, 50,
	})
	models := uniformModels(func(Isotope) *TrainedKernel {
		return &TrainedKernel{
			Type:       kern.TypeASQE,
			Params:     []float64{1, 0.01, 100, 10, 20, 0},
			Alpha:      []float64{1, -1, 0.5},
			SubsetSize: 3,
		}
	})
	return training, models
}

func TestPredictBoundsInclusive(t *testing.T) {
	training, models := boundsFixture()
	for _, q := range [][]float64{
		{0.03, 500, 20, 10},
		{0.05, 600, 40, 50},
		{0.03, 600, 20, 50},
	} {
		_, err := Predict(q, models, training)
		assert.NoError(t, err, "query %v", q)
	}
}

func TestPredictBoundsRejected(t *testing.T) {
	training, models := boundsFixture()
	for _, tc := range []struct {
		query []float64
		dim   int
		value float64
	}{
		{[]float64{0.05 + 1e-12, 550, 30, 30}, 0, 0.05 + 1e-12},
		{[]float64{0.04, 500 - 1e-9, 30, 30}, 1, 500 - 1e-9},
		{[]float64{0.04, 550, 40.000001, 30}, 2, 40.000001},
		{[]float64{0.04, 550, 30, math.Nextafter(10, 0)}, 3, math.Nextafter(10, 0)},
	} {
		_, err := Predict(tc.query, models, training)
		require.ErrorIs(t, err, ErrOutOfBounds)
		var oob *OutOfBoundsError
		require.True(t, errors.As(err, &oob))
		assert.Equal(t, Isotopes[0], oob.Isotope)
		assert.Equal(t, tc.dim, oob.Dim)
		assert.Equal(t, FeatureNames[tc.dim], oob.Feature)
		assert.Equal(t, tc.value, oob.Value)
		assert.Contains(t, err.Error(), FeatureNames[tc.dim])
	}

	for dim := range FeatureNames {
		query := []float64{0.04, 550, 30, 30}
		query[dim] = math.NaN()
		_, err := Predict(query, models, training)
		require.ErrorIs(t, err, ErrOutOfBounds)
		var oob *OutOfBoundsError
		require.True(t, errors.As(err, &oob))
		assert.Equal(t, dim, oob.Dim)
		assert.True(t, math.IsNaN(oob.Value))
	}
}

func TestPredictFirstFailureInOrder(t *testing.T) {
	training := mat.NewDense(4, 1, []float64{0, 1, 2, 3})
	narrow := map[Isotope]bool{"U233": true, "Np241": true}
	models := uniformModels(func(iso Isotope) *TrainedKernel {
		size := 4
		if narrow[iso] {
			size = 2
		}
		return &TrainedKernel{
			Type:       kern.TypeASQE,
			Params:     []float64{1, 1, 0},
			Alpha:      make([]float64, size),
			SubsetSize: size,
		}
	})
	for _, workers := range []int{1, 8} {
		_, err := NewPredictor(WithWorkers(workers)).Predict([]float64{2.5}, models, training)
		var oob *OutOfBoundsError
		require.True(t, errors.As(err, &oob), "workers = %d", workers)
		assert.Equal(t, Isotope("U233"), oob.Isotope)
		assert.Equal(t, 1.0, oob.Max)
	}
}

func TestPredictMissingModel(t *testing.T) {
	training, models := boundsFixture()
	delete(models, "Pu239")
	_, err := Predict([]float64{0.04, 550, 30, 30}, models, training)
	assert.ErrorIs(t, err, ErrMissingArtifact)
	assert.Contains(t, err.Error(), "Pu239")
}

func TestPredictUnsupportedModelType(t *testing.T) {
	training, models := boundsFixture()
	models["Np239"].Type = kern.TypeSQE
	// Out-of-bounds query: the model type check must come first.
	_, err := Predict([]float64{1, 1, 1, 1}, models, training)
	assert.ErrorIs(t, err, ErrUnsupportedModelType)
	assert.NotErrorIs(t, err, ErrOutOfBounds)
}

func TestPredictInvalidModels(t *testing.T) {
	query := []float64{0.04, 550, 30, 30}
	for name, mutate := range map[string]func(*TrainedKernel){
		"alpha length":    func(tk *TrainedKernel) { tk.Alpha = tk.Alpha[:2] },
		"subset too big":  func(tk *TrainedKernel) { tk.SubsetSize = 4; tk.Alpha = make([]float64, 4) },
		"empty subset":    func(tk *TrainedKernel) { tk.SubsetSize = 0; tk.Alpha = nil },
		"param count":     func(tk *TrainedKernel) { tk.Params = tk.Params[:5] },
		"lambda mismatch": func(tk *TrainedKernel) { tk.Lambda = kern.LengthScaleMatrix([]float64{1, 1, 1, 1}) },
		"lambda dim":      func(tk *TrainedKernel) { tk.Lambda = kern.LengthScaleMatrix([]float64{0.01, 100}) },
	} {
		training, models := boundsFixture()
		mutate(models["U238"])
		_, err := Predict(query, models, training)
		assert.ErrorIs(t, err, kern.ErrInvalidParameters, name)
		assert.Contains(t, err.Error(), "U238", name)
	}
}

func TestPredictQueryDimension(t *testing.T) {
	training, models := boundsFixture()
	_, err := Predict([]float64{0.04, 550, 30}, models, training)
	assert.ErrorIs(t, err, kern.ErrDimensionMismatch)
	_, err = Predict(nil, models, nil)
	assert.ErrorIs(t, err, ErrMissingArtifact)
}

func TestPredictUsesStoredLambda(t *testing.T) {
	training, models := boundsFixture()
	query := []float64{0.045, 530, 25, 20}
	plain, err := Predict(query, models, training)
	require.NoError(t, err)
	for _, tk := range models {
		tk.Lambda = kern.LengthScaleMatrix(tk.Params[1:5])
	}
	withLambda, err := Predict(query, models, training)
	require.NoError(t, err)
	assert.Equal(t, plain, withLambda)
}

func TestPredictDoesNotMutateInputs(t *testing.T) {
	training, models := boundsFixture()
	before := mat.DenseCopyOf(training)
	query := []float64{0.045, 530, 25, 20}
	_, err := NewPredictor(WithWorkers(4)).Predict(query, models, training)
	require.NoError(t, err)
	assert.True(t, mat.Equal(before, training))
	assert.Equal(t, []float64{0.045, 530, 25, 20}, query)
}
