package model

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Classes the classifier can be trained to cardinality: either the binary
// (healthy, anomaly) or ternary (healthy, warning, critical) scheme the artifact
// mentions. Class order in Weights/Intercepts matches this slice.
const (
	ClassHealthy  = "healthy"
	ClassAnomaly  = "anomaly"
	ClassWarning  = "warning"
	ClassCritical = "critical"
)

// Classifier is a multinomial logistic regression: one weight row and one
// intercept per class, softmax-normalized. Binary classifiers are just the
// two-class case of the same representation.
type Classifier struct {
	Classes    []string    `json:"classes"`
	Weights    [][]float64 `json:"weights"`    // len(Classes) x len(FeatureNames)
	Intercepts []float64   `json:"intercepts"` // len(Classes)
}

// Predict returns the class probabilities for a standardized feature row.
func (c *Classifier) Predict(x []float64) map[string]float64 {
	logits := mat.NewVecDense(len(c.Classes), nil)
	xv := mat.NewVecDense(len(x), x)
	for i, row := range c.Weights {
		w := mat.NewVecDense(len(row), row)
		logits.SetVec(i, mat.Dot(w, xv)+c.Intercepts[i])
	}

	maxLogit := math.Inf(-1)
	for i := 0; i < logits.Len(); i++ {
		if v := logits.AtVec(i); v > maxLogit {
			maxLogit = v
		}
	}
	var sum float64
	exp := make([]float64, logits.Len())
	for i := range exp {
		exp[i] = math.Exp(logits.AtVec(i) - maxLogit)
		sum += exp[i]
	}

	out := make(map[string]float64, len(c.Classes))
	for i, cls := range c.Classes {
		out[cls] = exp[i] / sum
	}
	return out
}

// IsTernary reports whether this classifier uses the three-way
// healthy/warning/critical scheme rather than the binary healthy/anomaly one.
func (c *Classifier) IsTernary() bool {
	return len(c.Classes) == 3
}

// InstantProb computes the instant anomaly probability:
// for a ternary classifier, P(warning)+P(critical); for binary, P(anomaly).
// This deliberately folds WARNING into the anomaly mass used for smoothing.
func (c *Classifier) InstantProb(probs map[string]float64) float64 {
	if c.IsTernary() {
		return probs[ClassWarning] + probs[ClassCritical]
	}
	return probs[ClassAnomaly]
}
