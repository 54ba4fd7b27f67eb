package gpr

import (
	"fmt"

	"github.com/lucasmaystre/spentfuelgpr/kern"
	"github.com/lucasmaystre/spentfuelgpr/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Predictor computes GP posterior means for every tracked isotope. It holds
// no model state; all inputs are passed to Predict.
type Predictor struct {
	workers int
	logger  *zap.Logger
}

type Option func(*Predictor)

// WithWorkers sets how many isotopes are evaluated concurrently.
func WithWorkers(n int) Option {
	return func(p *Predictor) {
		if n > 0 {
			p.workers = n
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(p *Predictor) {
		if logger != nil {
			p.logger = logger
		}
	}
}

func NewPredictor(opts ...Option) *Predictor {
	p := &Predictor{
		workers: 1,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Predict is a shorthand for NewPredictor().Predict.
func Predict(query []float64, models map[Isotope]*TrainedKernel, training *mat.Dense) (Composition, error) {
	return NewPredictor().Predict(query, models, training)
}

// Predict returns the posterior mean mass of every isotope in Isotopes at
// the query point. Every model is validated before any kernel evaluation.
// A failure of any isotope fails the whole batch; the error returned is the
// one of the first failing isotope in Isotopes order.
func (p *Predictor) Predict(query []float64, models map[Isotope]*TrainedKernel, training *mat.Dense) (Composition, error) {
	if training == nil || training.IsEmpty() {
		return nil, fmt.Errorf("%w: empty training set", ErrMissingArtifact)
	}
	n, dim := training.Dims()
	if len(query) != dim {
		return nil, fmt.Errorf("%w: query has %d features, training set has %d",
			kern.ErrDimensionMismatch, len(query), dim)
	}
	for _, iso := range Isotopes {
		tk, ok := models[iso]
		if !ok || tk == nil {
			return nil, fmt.Errorf("%w: no trained kernel for %s", ErrMissingArtifact, iso)
		}
		if err := tk.Validate(n, dim); err != nil {
			return nil, err
		}
	}

	q := mat.NewDense(1, dim, append([]float64(nil), query...))
	masses := make([]float64, len(Isotopes))
	errs := make([]error, len(Isotopes))
	var g errgroup.Group
	g.SetLimit(p.workers)
	for i, iso := range Isotopes {
		i, iso := i, iso
		g.Go(func() error {
			masses[i], errs[i] = p.predictOne(iso, models[iso], q, training)
			return nil
		})
	}
	// Failures are kept per isotope in errs; the goroutines never return one.
	_ = g.Wait()

	var first error
	for i, err := range errs {
		if err == nil {
			continue
		}
		p.logger.Error("isotope prediction failed",
			zap.String("isotope", Isotopes[i].String()), zap.Error(err))
		if first == nil {
			first = err
		}
	}
	if first != nil {
		return nil, first
	}
	res := make(Composition, len(Isotopes))
	for i, iso := range Isotopes {
		res[iso] = masses[i]
	}
	return res, nil
}

func (p *Predictor) predictOne(iso Isotope, tk *TrainedKernel, q, training *mat.Dense) (float64, error) {
	subset := utils.HeadRows(training, tk.SubsetSize)
	if err := checkBounds(iso, q.RawRowView(0), subset); err != nil {
		return 0, err
	}
	k, err := tk.kernel()
	if err != nil {
		return 0, err
	}
	// mass = sum_i K(q, x_i) alpha_i
	ks := k.Cov(q, subset)
	mass := floats.Dot(ks.RawRowView(0), tk.Alpha)
	p.logger.Debug("predicted isotope mass",
		zap.String("isotope", iso.String()),
		zap.Int("subset", tk.SubsetSize),
		zap.Float64("mass", mass))
	return mass, nil
}

// checkBounds requires every query entry to lie in the closed interval
// spanned by the corresponding training column. NaN lies in no interval.
func checkBounds(iso Isotope, query []float64, subset mat.Matrix) error {
	lo, hi := utils.ColumnBounds(subset)
	for d, v := range query {
		if !(v >= lo[d] && v <= hi[d]) {
			return &OutOfBoundsError{
				Isotope: iso,
				Dim:     d,
				Feature: featureName(d),
				Min:     lo[d],
				Value:   v,
				Max:     hi[d],
			}
		}
	}
	return nil
}
