package model

import (
	"fmt"
	"math"
)

// SoftmaxCrossEntropy возвращает потерю и градиент по логитам
// для одного сэмпла с целевым классом label.
func SoftmaxCrossEntropy(logits []float64, label int) (float64, []float64, error) {
	if label < 0 || label >= len(logits) {
		return 0, nil, fmt.Errorf("label %d out of range [0, %d)", label, len(logits))
	}

	// Вычитание максимума для численной стабильности.
	maxLogit := logits[0]
	for _, v := range logits[1:] {
		if v > maxLogit {
			maxLogit = v
		}
	}

	var sum float64
	probs := make([]float64, len(logits))
	for i, v := range logits {
		probs[i] = math.Exp(v - maxLogit)
		sum += probs[i]
	}

	grad := make([]float64, len(logits))
	for i := range probs {
		probs[i] /= sum
		grad[i] = probs[i]
	}
	grad[label] -= 1.0

	loss := -math.Log(probs[label] + 1e-12)
	return loss, grad, nil
}
