// Package store reads and writes the artifacts of trained per-isotope GP
// models.
//
// A model directory is laid out as
//
//	manifest.yaml               feature order and power scaling (optional)
//	x_trainingset.npy           training features, one row per sample
//	trained_kernels/<ISO>.npz   params, alpha and lambda arrays
//	trained_kernels/<ISO>.yaml  kernel type and training subset size
package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/lucasmaystre/spentfuelgpr/gpr"
	"github.com/lucasmaystre/spentfuelgpr/kern"
	"github.com/lucasmaystre/spentfuelgpr/utils"
	"github.com/sbinet/npyio"
	"github.com/sbinet/npyio/npz"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

const (
	ManifestFile    = "manifest.yaml"
	TrainingSetFile = "x_trainingset.npy"
	KernelDir       = "trained_kernels"
)

// Array names inside a kernel archive.
const (
	keyParams = "params"
	keyAlpha  = "alpha"
	keyLambda = "lambda"
)

var ErrInvalidArtifact = errors.New("store: invalid model artifact")

// Models is everything a prediction run reads from a model directory.
type Models struct {
	Manifest Manifest
	Training *mat.Dense
	Kernels  map[gpr.Isotope]*gpr.TrainedKernel
}

func missing(path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s: %w", gpr.ErrMissingArtifact, path, err)
	}
	return fmt.Errorf("store: %s: %w", path, err)
}

func kernelPath(dir string, iso gpr.Isotope, ext string) string {
	return filepath.Join(dir, KernelDir, iso.String()+ext)
}

// Load reads the manifest, the training set and one trained kernel per
// tracked isotope from dir. Any missing or malformed file aborts the load.
func Load(dir string, logger *zap.Logger) (*Models, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Models{
		Manifest: defaultManifest(),
		Kernels:  make(map[gpr.Isotope]*gpr.TrainedKernel, len(gpr.Isotopes)),
	}

	path := filepath.Join(dir, ManifestFile)
	if err := readYAML(path, &m.Manifest); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		logger.Debug("no manifest, using defaults", zap.String("path", path))
	}
	if err := m.Manifest.validate(); err != nil {
		return nil, err
	}

	training, err := readTrainingSet(filepath.Join(dir, TrainingSetFile))
	if err != nil {
		return nil, err
	}
	m.Training = training
	rows, dim := training.Dims()
	if dim != len(m.Manifest.Features) {
		return nil, fmt.Errorf("%w: training set has %d columns, manifest lists %d features",
			ErrInvalidArtifact, dim, len(m.Manifest.Features))
	}
	logger.Debug("loaded training set", zap.Int("rows", rows), zap.Int("features", dim))

	for _, iso := range gpr.Isotopes {
		tk, err := readKernel(dir, iso)
		if err != nil {
			return nil, err
		}
		m.Kernels[iso] = tk
		logger.Debug("loaded trained kernel",
			zap.String("isotope", iso.String()),
			zap.String("kernel", tk.Type.String()),
			zap.Int("subset", tk.SubsetSize))
	}
	return m, nil
}

func readTrainingSet(path string) (*mat.Dense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, missing(path, err)
	}
	defer f.Close()
	var m mat.Dense
	if err := npyio.Read(f, &m); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidArtifact, path, err)
	}
	if m.IsEmpty() {
		return nil, fmt.Errorf("%w: %s: empty training set", ErrInvalidArtifact, path)
	}
	return &m, nil
}

func readKernel(dir string, iso gpr.Isotope) (*gpr.TrainedKernel, error) {
	var meta Metadata
	metaPath := kernelPath(dir, iso, ".yaml")
	if err := readYAML(metaPath, &meta); err != nil {
		return nil, err
	}
	if meta.Kernel == nil {
		return nil, fmt.Errorf("%w: %s: missing kernel type", ErrInvalidArtifact, metaPath)
	}
	if meta.TrainingSize <= 0 {
		return nil, fmt.Errorf("%w: %s: training_size must be positive, got %d",
			ErrInvalidArtifact, metaPath, meta.TrainingSize)
	}

	path := kernelPath(dir, iso, ".npz")
	if _, err := os.Stat(path); err != nil {
		return nil, missing(path, err)
	}
	r, err := npz.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidArtifact, path, err)
	}
	defer r.Close()

	tk := &gpr.TrainedKernel{
		Isotope:    iso,
		Type:       *meta.Kernel,
		SubsetSize: meta.TrainingSize,
	}
	if err := readArray(r, path, keyParams, &tk.Params); err != nil {
		return nil, err
	}
	if err := readArray(r, path, keyAlpha, &tk.Alpha); err != nil {
		return nil, err
	}
	var lambda mat.Dense
	if err := readArray(r, path, keyLambda, &lambda); err != nil {
		return nil, err
	}
	if tk.Lambda, err = diagonal(&lambda); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidArtifact, path, err)
	}
	return tk, nil
}

// readArray decodes the named array, with or without the .npy suffix.
func readArray(r *npz.Reader, path, name string, ptr interface{}) error {
	for _, key := range r.Keys() {
		if strings.TrimSuffix(key, ".npy") != name {
			continue
		}
		if err := r.Read(key, ptr); err != nil {
			return fmt.Errorf("%w: %s[%s]: %w", ErrInvalidArtifact, path, name, err)
		}
		return nil
	}
	return fmt.Errorf("%w: %s[%s]: %w", gpr.ErrMissingArtifact, path, name, fs.ErrNotExist)
}

func diagonal(m *mat.Dense) (*mat.DiagDense, error) {
	r, c := m.Dims()
	if r != c {
		return nil, fmt.Errorf("length-scale matrix is %dx%d", r, c)
	}
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if i != j && m.At(i, j) != 0 {
				return nil, fmt.Errorf("length-scale matrix has off-diagonal entry at (%d, %d)", i, j)
			}
		}
	}
	return mat.NewDiagDense(r, utils.Diag(m)), nil
}

// Save writes m to dir in the layout read by Load.
func Save(dir string, m *Models) error {
	if err := os.MkdirAll(filepath.Join(dir, KernelDir), 0o755); err != nil {
		return err
	}
	if err := writeYAML(filepath.Join(dir, ManifestFile), m.Manifest); err != nil {
		return err
	}
	if err := writeTrainingSet(filepath.Join(dir, TrainingSetFile), m.Training); err != nil {
		return err
	}
	for iso, tk := range m.Kernels {
		if err := writeKernel(dir, iso, tk); err != nil {
			return fmt.Errorf("store: %s: %w", iso, err)
		}
	}
	return nil
}

func writeTrainingSet(path string, training *mat.Dense) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := npyio.Write(f, training); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeKernel(dir string, iso gpr.Isotope, tk *gpr.TrainedKernel) error {
	meta := Metadata{Kernel: &tk.Type, TrainingSize: tk.SubsetSize}
	if err := writeYAML(kernelPath(dir, iso, ".yaml"), meta); err != nil {
		return err
	}

	lambda := tk.Lambda
	if lambda == nil {
		if len(tk.Params) < 3 {
			return fmt.Errorf("%w: %d kernel parameters", ErrInvalidArtifact, len(tk.Params))
		}
		lambda = kern.LengthScaleMatrix(tk.Params[1 : len(tk.Params)-1])
	}
	w, err := npz.Create(kernelPath(dir, iso, ".npz"))
	if err != nil {
		return err
	}
	for _, arr := range []struct {
		name string
		v    interface{}
	}{
		{keyParams, tk.Params},
		{keyAlpha, tk.Alpha},
		{keyLambda, mat.DenseCopyOf(lambda)},
	} {
		if err := w.Write(arr.name, arr.v); err != nil {
			w.Close()
			return err
		}
	}
	return w.Close()
}
