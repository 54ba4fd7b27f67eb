package kern

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// Valid parameters over two-dimensional features.
var params2D = map[Type][]float64{
	TypeSQE:          {1.3, 0.8, 0.1},
	TypeASQE:         {1.3, 0.8, 1.7, 0.1},
	TypeLAP:          {1.1, 0.9, 0.1},
	TypeALAP:         {1.1, 0.9, 1.4, 0.1},
	TypeLinear:       {0.7, 0.3, 1.2, 0.8, 0.1},
	TypePoly:         {0.7, 0.3, 2.5, 1.2, 0.8, 0.1},
	TypeAnova:        {0.4, 0.9, 0.1},
	TypeSigmoid:      {0.3, 0.2, 0.1},
	TypeRQ:           {1.2, 0.9, 1.1, 0.1},
	TypeSRQ:          {1.5, 0.9, 1.1, 0.1},
	TypeMultiQuad:    {0.6, 0.9, 1.1, 0.1},
	TypeInvMultiQuad: {0.6, 0.9, 1.1, 0.1},
	TypeWave:         {1.4, 0.1},
	TypePower:        {1.5, 0.9, 1.1, 0.1},
	TypeLog:          {1.5, 0.1},
	TypeCauchy:       {1.2, 0.1},
	TypeTstudent:     {1.5, 0.9, 1.1, 0.1},
}

var (
	x1 = mat.NewDense(3, 2, []float64{
		0.2, 0.5,
		0.9, 0.1,
		0.4, 1.3,
	})
	x2 = mat.NewDense(4, 2, []float64{
		0.3, 0.7,
		1.1, 0.4,
		0.6, 0.2,
		1.4, 1.0,
	})
)

func withNoise(params []float64, noise float64) []float64 {
	out := append([]float64(nil), params...)
	out[len(out)-1] = noise
	return out
}

func TestTypesCoverParams(t *testing.T) {
	require.Len(t, Types(), 17)
	for _, typ := range Types() {
		p, ok := params2D[typ]
		require.True(t, ok, "no test parameters for %s", typ)
		assert.Equal(t, Arity(typ, 2), len(p), "arity of %s", typ)
	}
}

func TestParseType(t *testing.T) {
	for _, typ := range Types() {
		parsed, err := ParseType(typ.String())
		require.NoError(t, err)
		assert.Equal(t, typ, parsed)
	}
	_, err := ParseType("Matern52")
	assert.ErrorIs(t, err, ErrUnsupportedKernelType)

	var typ Type
	require.NoError(t, typ.UnmarshalText([]byte("ASQE")))
	assert.Equal(t, TypeASQE, typ)
	_, err = Type(42).MarshalText()
	assert.ErrorIs(t, err, ErrUnsupportedKernelType)
}

func TestEvaluateArityShort(t *testing.T) {
	for _, typ := range Types() {
		p := params2D[typ]
		_, _, err := Evaluate(x1, x2, typ, p[:len(p)-1], false)
		assert.ErrorIs(t, err, ErrInvalidParameters, "%s", typ)
		_, _, err = Evaluate(x1, x2, typ, append(p, 1), true)
		assert.ErrorIs(t, err, ErrInvalidParameters, "%s", typ)
	}
}

func TestEvaluateDimensionMismatch(t *testing.T) {
	x3 := mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6})
	_, _, err := Evaluate(x1, x3, TypeASQE, params2D[TypeASQE], false)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
	// Isotropic kernels still require matching columns.
	_, _, err = Evaluate(x1, x3, TypeCauchy, params2D[TypeCauchy], false)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestEvaluateUnsupportedType(t *testing.T) {
	_, _, err := Evaluate(x1, x2, Type(-1), []float64{1, 1, 1}, false)
	assert.ErrorIs(t, err, ErrUnsupportedKernelType)
	_, _, err = Evaluate(x1, x2, numTypes, []float64{1, 1, 1}, false)
	assert.ErrorIs(t, err, ErrUnsupportedKernelType)
}

func TestCovPanicsOnMismatch(t *testing.T) {
	k := NewASQE(1, []float64{1, 1, 1}, 0)
	assert.PanicsWithError(t, ErrDimensionMismatch.Error(), func() { k.Cov(x1, x2) })
}

func TestEvaluateShape(t *testing.T) {
	for _, typ := range Types() {
		cov, grads, err := Evaluate(x1, x2, typ, params2D[typ], false)
		require.NoError(t, err, "%s", typ)
		assert.Nil(t, grads)
		r, c := cov.Dims()
		assert.Equal(t, 3, r, "%s", typ)
		assert.Equal(t, 4, c, "%s", typ)
	}
}

func TestSelfCovarianceSymmetric(t *testing.T) {
	for _, typ := range Types() {
		cov, _, err := Evaluate(x2, x2, typ, withNoise(params2D[typ], 0), false)
		require.NoError(t, err, "%s", typ)
		n, _ := cov.Dims()
		for i := 0; i < n; i++ {
			for j := 0; j < i; j++ {
				assert.InDelta(t, cov.At(i, j), cov.At(j, i), 1e-12, "%s (%d, %d)", typ, i, j)
			}
		}
	}
}

func TestDiagonalJitter(t *testing.T) {
	const noise = 0.37
	for _, typ := range Types() {
		for _, pair := range [][2]*mat.Dense{{x1, x2}, {x2, x1}, {x2, x2}, {x1, x1}} {
			clean, _, err := Evaluate(pair[0], pair[1], typ, withNoise(params2D[typ], 0), false)
			require.NoError(t, err)
			noisy, _, err := Evaluate(pair[0], pair[1], typ, withNoise(params2D[typ], noise), false)
			require.NoError(t, err)
			r, c := noisy.Dims()
			for i := 0; i < r; i++ {
				for j := 0; j < c; j++ {
					want := clean.At(i, j)
					if i == j {
						want += noise * noise
					}
					assert.Equal(t, want, noisy.At(i, j), "%s (%d, %d)", typ, i, j)
				}
			}
		}
	}
}

func TestASQEHandComputed(t *testing.T) {
	q := mat.NewDense(1, 1, []float64{1})
	x := mat.NewDense(1, 1, []float64{0})
	cov, _, err := Evaluate(q, x, TypeASQE, []float64{2, 1, 0}, false)
	require.NoError(t, err)
	assert.InDelta(t, 4*math.Exp(-0.5), cov.At(0, 0), 1e-15)
	assert.InDelta(t, 2.4261, cov.At(0, 0), 1e-4)
}

func TestASQEAnisotropic(t *testing.T) {
	q := mat.NewDense(1, 2, []float64{1, 2})
	x := mat.NewDense(1, 2, []float64{0, 0})
	// s = (1/2)^2 + (2/4)^2 = 0.5
	k := NewASQE(1.5, []float64{2, 4}, 0)
	assert.InDelta(t, 2.25*math.Exp(-0.25), k.Cov(q, x).At(0, 0), 1e-15)
}

func TestASQEWithLambda(t *testing.T) {
	k := NewASQE(1.3, []float64{0.8, 1.7}, 0.1)
	same := k.WithLambda(LengthScaleMatrix([]float64{0.8, 1.7}))
	assert.True(t, mat.Equal(k.Cov(x1, x2), same.Cov(x1, x2)))
	assert.Nil(t, k.lambda, "WithLambda must not modify the receiver")

	other := k.WithLambda(LengthScaleMatrix([]float64{0.5, 0.5}))
	assert.False(t, mat.EqualApprox(k.Cov(x1, x2), other.Cov(x1, x2), 1e-9))
}

func TestNewTyped(t *testing.T) {
	params := []float64{2, 0.5, 0.25, 0.1}
	k, err := New(TypeASQE, params, 2)
	require.NoError(t, err)
	asqe, ok := k.(*ASQE)
	require.True(t, ok)
	assert.Equal(t, 2.0, asqe.Amplitude)
	assert.Equal(t, []float64{0.5, 0.25}, asqe.LengthScales)
	assert.Equal(t, 0.1, asqe.Noise)
	assert.Equal(t, params, k.Params())

	// New copies its input.
	params[1] = 100
	assert.Equal(t, 0.5, asqe.LengthScales[0])

	for _, typ := range Types() {
		k, err := New(typ, params2D[typ], 2)
		require.NoError(t, err)
		assert.Equal(t, typ, k.Type())
		assert.Equal(t, params2D[typ], k.Params())
	}
}

func TestSRQNoGradient(t *testing.T) {
	_, _, err := Evaluate(x1, x2, TypeSRQ, params2D[TypeSRQ], true)
	assert.ErrorIs(t, err, ErrNoGradient)
}

func TestGradientsFiniteDifference(t *testing.T) {
	for _, typ := range Types() {
		if typ == TypeSRQ {
			continue
		}
		p := params2D[typ]
		cov, grads, err := Evaluate(x1, x2, typ, p, true)
		require.NoError(t, err, "%s", typ)
		require.Len(t, grads, len(p), "%s", typ)

		plain, _, err := Evaluate(x1, x2, typ, p, false)
		require.NoError(t, err)
		assert.True(t, mat.Equal(cov, plain), "%s: gradient mode changes the covariance", typ)

		for i := range p {
			h := 1e-6 * math.Max(1, math.Abs(p[i]))
			up := append([]float64(nil), p...)
			down := append([]float64(nil), p...)
			up[i] += h
			down[i] -= h
			kUp, _, err := Evaluate(x1, x2, typ, up, false)
			require.NoError(t, err)
			kDown, _, err := Evaluate(x1, x2, typ, down, false)
			require.NoError(t, err)
			r, c := cov.Dims()
			for a := 0; a < r; a++ {
				for b := 0; b < c; b++ {
					fd := (kUp.At(a, b) - kDown.At(a, b)) / (2 * h)
					g := grads[i].At(a, b)
					assert.InDelta(t, fd, g, 1e-5*(1+math.Abs(g)),
						"%s: d/dp[%d] at (%d, %d)", typ, i, a, b)
				}
			}
		}
	}
}

func TestZeroDistanceLimits(t *testing.T) {
	x := mat.NewDense(1, 2, []float64{0.3, 0.3})
	for _, tc := range []struct {
		typ  Type
		want float64
	}{
		{TypeWave, 1},
		{TypeLog, 0},
		{TypePower, 0},
		{TypeTstudent, 1},
		{TypeCauchy, 1},
	} {
		cov, grads, err := Evaluate(x, x, tc.typ, withNoise(params2D[tc.typ], 0), true)
		require.NoError(t, err)
		assert.Equal(t, tc.want, cov.At(0, 0), "%s", tc.typ)
		for i, g := range grads {
			assert.False(t, math.IsNaN(g.At(0, 0)), "%s: NaN in gradient %d", tc.typ, i)
		}
	}
}
