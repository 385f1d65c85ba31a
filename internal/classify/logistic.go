package classify

import (
	"math"
	"math/rand"

	"github.com/crisislab/responder/internal/textproc"
)

// BinaryClassifier is the uniform fit/predict capability the multi-label
// wrapper relies on. Labels are 0 or 1.
type BinaryClassifier interface {
	Fit(xs []textproc.Vector, ys []int)
	Predict(x textproc.Vector) int
}

// Hyperparams are the shared training knobs for all per-label classifiers.
type Hyperparams struct {
	Epochs       int
	LearningRate float64
	L2Penalty    float64
	Seed         int64
}

// withDefaults fills in zero-valued hyperparameters.
func (h Hyperparams) withDefaults() Hyperparams {
	if h.Epochs <= 0 {
		h.Epochs = 20
	}
	if h.LearningRate <= 0 {
		h.LearningRate = 0.5
	}
	if h.Seed == 0 {
		h.Seed = 1
	}
	return h
}

// Logistic is a binary logistic-regression classifier trained with
// stochastic gradient descent over sparse TF-IDF vectors. Fields are
// exported so fitted state survives gob encoding.
type Logistic struct {
	Weights []float64
	Bias    float64

	// Degenerate training sets (all labels identical) produce a constant
	// classifier instead of an error.
	IsConstant    bool
	ConstantValue int

	Params Hyperparams
}

// NewLogistic creates an untrained classifier.
func NewLogistic(params Hyperparams) *Logistic {
	return &Logistic{Params: params.withDefaults()}
}

// Fit trains the classifier. The feature dimension is taken from the
// largest term index seen in the training vectors.
func (c *Logistic) Fit(xs []textproc.Vector, ys []int) {
	positives := 0
	for _, y := range ys {
		positives += y
	}
	if positives == 0 || positives == len(ys) {
		c.IsConstant = true
		c.ConstantValue = 0
		if positives == len(ys) {
			c.ConstantValue = 1
		}
		return
	}

	dim := 0
	for _, x := range xs {
		for _, t := range x {
			if t.Index >= dim {
				dim = t.Index + 1
			}
		}
	}
	c.Weights = make([]float64, dim)
	c.Bias = 0

	p := c.Params.withDefaults()
	order := make([]int, len(xs))
	for i := range order {
		order[i] = i
	}

	rng := rand.New(rand.NewSource(p.Seed))
	for epoch := 0; epoch < p.Epochs; epoch++ {
		rng.Shuffle(len(order), func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})
		// Simple inverse decay keeps late epochs from thrashing.
		lr := p.LearningRate / (1 + 0.1*float64(epoch))
		for _, i := range order {
			g := sigmoid(c.decision(xs[i])) - float64(ys[i])
			c.Bias -= lr * g
			for _, t := range xs[i] {
				w := c.Weights[t.Index]
				c.Weights[t.Index] = w - lr*(g*t.Weight+p.L2Penalty*w)
			}
		}
	}
}

// Predict returns the predicted label for one vector.
func (c *Logistic) Predict(x textproc.Vector) int {
	if c.IsConstant {
		return c.ConstantValue
	}
	if c.decision(x) >= 0 {
		return 1
	}
	return 0
}

func (c *Logistic) decision(x textproc.Vector) float64 {
	return x.Dot(c.Weights) + c.Bias
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
