package model

import (
	"encoding/json"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// TrainConfig controls a classifier fit.
type TrainConfig struct {
	L2        float64 // ridge penalty on standardized weights, > 0
	MaxIter   int     // Newton iterations
	Tolerance float64 // stop when every weight step is below this
}

// DefaultTrainConfig returns the settings used when none are configured.
func DefaultTrainConfig() TrainConfig {
	return TrainConfig{
		L2:        1.0,
		MaxIter:   50,
		Tolerance: 1e-8,
	}
}

// Validate checks the config.
func (c TrainConfig) Validate() error {
	if !(c.L2 > 0) {
		return fmt.Errorf("%w: l2 must be positive, got %v", ErrInvalidConfig, c.L2)
	}
	if c.MaxIter < 1 {
		return fmt.Errorf("%w: max iterations must be at least 1, got %d", ErrInvalidConfig, c.MaxIter)
	}
	if c.Tolerance < 0 {
		return fmt.Errorf("%w: tolerance must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Classifier is an L2-regularised logistic regression over standardized
// inputs. Weights[0] is the intercept.
type Classifier struct {
	Mean       []float64 `json:"mean"`
	Scale      []float64 `json:"scale"`
	Weights    []float64 `json:"weights"`
	Iterations int       `json:"iterations"`
}

// Fit trains a classifier with Newton-Raphson (IRLS). The result depends
// only on x, y and cfg.
func Fit(x [][]float64, y []float64, cfg TrainConfig) (*Classifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(x) == 0 {
		return nil, ErrNoTrainingRows
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("fit: %d rows but %d labels", len(x), len(y))
	}

	rows, cols := len(x), len(x[0])
	mean, scale := standardize(x, cols)
	p := cols + 1

	z := mat.NewDense(rows, p, nil)
	for i, row := range x {
		if len(row) != cols {
			return nil, fmt.Errorf("fit: row %d has %d columns, want %d", i, len(row), cols)
		}
		z.Set(i, 0, 1)
		for j, v := range row {
			z.Set(i, j+1, (v-mean[j])/scale[j])
		}
	}

	w := mat.NewVecDense(p, nil)
	resid := mat.NewVecDense(rows, nil)
	zw := mat.NewDense(rows, p, nil)
	grad := mat.NewVecDense(p, nil)
	hess := mat.NewSymDense(p, nil)
	var step mat.VecDense
	var chol mat.Cholesky

	iter := 0
	for iter < cfg.MaxIter {
		iter++

		for i := 0; i < rows; i++ {
			mu := sigmoid(mat.Dot(z.RowView(i), w))
			resid.SetVec(i, mu-y[i])
			s := math.Sqrt(mu * (1 - mu))
			for j := 0; j < p; j++ {
				zw.Set(i, j, z.At(i, j)*s)
			}
		}

		// grad = Zᵀ(μ - y) + λw
		grad.MulVec(z.T(), resid)
		grad.AddScaledVec(grad, cfg.L2, w)

		// hess = Zᵀ diag(μ(1-μ)) Z + λI
		hess.SymOuterK(1, zw.T())
		for j := 0; j < p; j++ {
			hess.SetSym(j, j, hess.At(j, j)+cfg.L2)
		}

		if ok := chol.Factorize(hess); !ok {
			return nil, fmt.Errorf("%w: hessian not positive definite at iteration %d", ErrFitDiverged, iter)
		}
		if err := chol.SolveVecTo(&step, grad); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFitDiverged, err)
		}
		w.SubVec(w, &step)

		if mat.Norm(&step, math.Inf(1)) < cfg.Tolerance {
			break
		}
	}

	weights := make([]float64, p)
	for j := range weights {
		weights[j] = w.AtVec(j)
		if math.IsNaN(weights[j]) || math.IsInf(weights[j], 0) {
			return nil, fmt.Errorf("%w: non-finite weight %d", ErrFitDiverged, j)
		}
	}

	return &Classifier{Mean: mean, Scale: scale, Weights: weights, Iterations: iter}, nil
}

// PredictProba returns P(label = 1 | v).
func (c *Classifier) PredictProba(v []float64) (float64, error) {
	if len(v) != len(c.Mean) {
		return 0, fmt.Errorf("%w: got %d features, model has %d", ErrSchemaMismatch, len(v), len(c.Mean))
	}
	t := c.Weights[0]
	for j, x := range v {
		t += c.Weights[j+1] * (x - c.Mean[j]) / c.Scale[j]
	}
	return sigmoid(t), nil
}

// MarshalBinary encodes the classifier payload.
func (c *Classifier) MarshalBinary() ([]byte, error) {
	return json.Marshal(c)
}

// UnmarshalBinary decodes a payload written by MarshalBinary.
func (c *Classifier) UnmarshalBinary(data []byte) error {
	var decoded Classifier
	if err := json.Unmarshal(data, &decoded); err != nil {
		return fmt.Errorf("decode classifier: %w", err)
	}
	if len(decoded.Mean) != len(decoded.Scale) || len(decoded.Weights) != len(decoded.Mean)+1 {
		return fmt.Errorf("decode classifier: inconsistent dimensions")
	}
	*c = decoded
	return nil
}

func standardize(x [][]float64, cols int) (mean, scale []float64) {
	mean = make([]float64, cols)
	scale = make([]float64, cols)
	n := float64(len(x))

	for _, row := range x {
		for j := 0; j < cols && j < len(row); j++ {
			mean[j] += row[j]
		}
	}
	for j := range mean {
		mean[j] /= n
	}
	for _, row := range x {
		for j := 0; j < cols && j < len(row); j++ {
			d := row[j] - mean[j]
			scale[j] += d * d
		}
	}
	for j := range scale {
		scale[j] = math.Sqrt(scale[j] / n)
		if scale[j] == 0 {
			// Constant column: leave it centred at zero.
			scale[j] = 1
		}
	}
	return mean, scale
}

func sigmoid(t float64) float64 {
	if t >= 0 {
		return 1 / (1 + math.Exp(-t))
	}
	e := math.Exp(t)
	return e / (1 + e)
}
