package model

import (
	"math"
	"testing"
)

// TestSoftmaxCrossEntropy tests loss value and gradient properties
func TestSoftmaxCrossEntropy(t *testing.T) {
	t.Run("UniformLogits", func(t *testing.T) {
		logits := []float64{0, 0, 0, 0}

		loss, grad, err := SoftmaxCrossEntropy(logits, 1)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}

		want := math.Log(4)
		if math.Abs(loss-want) > 1e-9 {
			t.Errorf("Expected loss ln(4)=%f, got %f", want, loss)
		}

		// Градиент: p_i - 1{i=label}, при равных логитах p_i = 0.25
		for i, g := range grad {
			want := 0.25
			if i == 1 {
				want = -0.75
			}
			if math.Abs(g-want) > 1e-9 {
				t.Errorf("grad[%d] = %f, expected %f", i, g, want)
			}
		}
	})

	t.Run("GradientSumsToZero", func(t *testing.T) {
		logits := []float64{2.5, -1.0, 0.3, 7.1, 0.0}

		_, grad, err := SoftmaxCrossEntropy(logits, 2)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}

		var sum float64
		for _, g := range grad {
			sum += g
		}
		if math.Abs(sum) > 1e-9 {
			t.Errorf("Gradient should sum to zero, got %g", sum)
		}
	})

	t.Run("ConfidentCorrectPredictionHasLowLoss", func(t *testing.T) {
		confident, _, err := SoftmaxCrossEntropy([]float64{10, 0, 0}, 0)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		wrong, _, err := SoftmaxCrossEntropy([]float64{10, 0, 0}, 1)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}

		if confident >= wrong {
			t.Errorf("Correct prediction loss %f should be lower than wrong prediction loss %f", confident, wrong)
		}
		if confident < 0 {
			t.Errorf("Loss must be non-negative, got %f", confident)
		}
	})

	t.Run("StableForLargeLogits", func(t *testing.T) {
		loss, _, err := SoftmaxCrossEntropy([]float64{1000, 999, 998}, 0)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if math.IsNaN(loss) || math.IsInf(loss, 0) {
			t.Errorf("Loss not finite for large logits: %f", loss)
		}
	})

	t.Run("LabelOutOfRange", func(t *testing.T) {
		if _, _, err := SoftmaxCrossEntropy([]float64{1, 2}, 2); err == nil {
			t.Error("Expected error for label out of range")
		}
		if _, _, err := SoftmaxCrossEntropy([]float64{1, 2}, -1); err == nil {
			t.Error("Expected error for negative label")
		}
	})
}
