// Package train fits the multinomial logistic-regression classifier
// cmd/train serializes for the predictor (C5): a mean/std scaler plus
// one softmax weight row per class, learned by batch gradient descent
// over gonum/mat, exactly the "scale, then classify" shape the
// original RandomForest+StandardScaler pipeline had without requiring
// a Go ML-serving runtime.
package train

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/rotem-industrial/pump-pdm/internal/model"
)

// Example is one labeled training row: an 8-scalar feature vector and
// its class name (one of model.ClassHealthy/Anomaly or
// Healthy/Warning/Critical, matching the desired cardinality).
type Example struct {
	Features []float64
	Label    string
}

// Options controls the gradient-descent loop.
type Options struct {
	Epochs       int
	LearningRate float64
	L2           float64
}

// DefaultOptions mirrors a reasonable convergence budget for a dataset
// in the thousands of rows, the scale train_and_save.py operated at.
func DefaultOptions() Options {
	return Options{Epochs: 500, LearningRate: 0.1, L2: 1e-3}
}

// Fit computes the feature scaler from examples, then trains a softmax
// classifier over the scaled features via full-batch gradient descent
// on the cross-entropy loss.
func Fit(examples []Example, opts Options) (*model.Scaler, *model.Classifier, error) {
	if len(examples) == 0 {
		return nil, nil, fmt.Errorf("train: no examples provided")
	}
	nFeatures := len(examples[0].Features)

	scaler := fitScaler(examples, nFeatures)

	classes := distinctLabels(examples)
	classIndex := make(map[string]int, len(classes))
	for i, c := range classes {
		classIndex[c] = i
	}

	n := len(examples)
	x := mat.NewDense(n, nFeatures, nil)
	y := mat.NewDense(n, len(classes), nil)
	for i, ex := range examples {
		scaled := scaler.Transform(ex.Features)
		x.SetRow(i, scaled)
		y.Set(i, classIndex[ex.Label], 1)
	}

	weights := mat.NewDense(len(classes), nFeatures, nil)
	intercepts := make([]float64, len(classes))

	for epoch := 0; epoch < opts.Epochs; epoch++ {
		probs := forward(x, weights, intercepts)
		gradW, gradB := gradient(x, y, probs, opts.L2, weights)
		applyGradient(weights, intercepts, gradW, gradB, opts.LearningRate)
	}

	classifier := &model.Classifier{
		Classes:    classes,
		Weights:    denseRows(weights),
		Intercepts: intercepts,
	}
	return scaler, classifier, nil
}

func fitScaler(examples []Example, nFeatures int) *model.Scaler {
	mean := make([]float64, nFeatures)
	std := make([]float64, nFeatures)
	col := make([]float64, len(examples))
	for f := 0; f < nFeatures; f++ {
		for i, ex := range examples {
			col[i] = ex.Features[f]
		}
		mean[f] = stat.Mean(col, nil)
		std[f] = stat.StdDev(col, nil)
	}
	return &model.Scaler{Mean: mean, Std: std}
}

func distinctLabels(examples []Example) []string {
	seen := map[string]bool{}
	var out []string
	for _, ex := range examples {
		if !seen[ex.Label] {
			seen[ex.Label] = true
			out = append(out, ex.Label)
		}
	}
	return out
}

// forward computes row-wise softmax probabilities for every example
// against the current weights.
func forward(x *mat.Dense, weights *mat.Dense, intercepts []float64) *mat.Dense {
	n, _ := x.Dims()
	k, _ := weights.Dims()
	logits := mat.NewDense(n, k, nil)
	logits.Mul(x, weights.T())
	for i := 0; i < n; i++ {
		for c := 0; c < k; c++ {
			logits.Set(i, c, logits.At(i, c)+intercepts[c])
		}
	}

	probs := mat.NewDense(n, k, nil)
	for i := 0; i < n; i++ {
		row := mat.Row(nil, i, logits)
		maxLogit := math.Inf(-1)
		for _, v := range row {
			if v > maxLogit {
				maxLogit = v
			}
		}
		var sum float64
		exp := make([]float64, k)
		for c, v := range row {
			exp[c] = math.Exp(v - maxLogit)
			sum += exp[c]
		}
		for c := range exp {
			probs.Set(i, c, exp[c]/sum)
		}
	}
	return probs
}

// gradient computes the mean cross-entropy gradient w.r.t. weights and
// intercepts, plus an L2 penalty on the weights.
func gradient(x, y, probs *mat.Dense, l2 float64, weights *mat.Dense) (*mat.Dense, []float64) {
	n, nf := x.Dims()
	_, k := probs.Dims()

	diff := mat.NewDense(n, k, nil)
	diff.Sub(probs, y)

	gradW := mat.NewDense(k, nf, nil)
	gradW.Mul(diff.T(), x)
	gradW.Scale(1.0/float64(n), gradW)

	for c := 0; c < k; c++ {
		for f := 0; f < nf; f++ {
			gradW.Set(c, f, gradW.At(c, f)+l2*weights.At(c, f))
		}
	}

	gradB := make([]float64, k)
	for c := 0; c < k; c++ {
		var sum float64
		for i := 0; i < n; i++ {
			sum += diff.At(i, c)
		}
		gradB[c] = sum / float64(n)
	}
	return gradW, gradB
}

func applyGradient(weights *mat.Dense, intercepts []float64, gradW *mat.Dense, gradB []float64, lr float64) {
	k, nf := weights.Dims()
	for c := 0; c < k; c++ {
		for f := 0; f < nf; f++ {
			weights.Set(c, f, weights.At(c, f)-lr*gradW.At(c, f))
		}
		intercepts[c] -= lr * gradB[c]
	}
}

func denseRows(m *mat.Dense) [][]float64 {
	k, nf := m.Dims()
	out := make([][]float64, k)
	for c := 0; c < k; c++ {
		out[c] = mat.Row(nil, c, m)
		_ = nf
	}
	return out
}
