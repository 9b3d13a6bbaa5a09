package model

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

func separableData(n int, seed int64) ([][]float64, []float64) {
	rng := rand.New(rand.NewSource(seed))
	x := make([][]float64, n)
	y := make([]float64, n)
	for i := range x {
		a := rng.Float64()*10 - 5
		b := 7.0 // constant column
		x[i] = []float64{a, b}
		if a+rng.NormFloat64() > 0 {
			y[i] = 1
		}
	}
	return x, y
}

func TestFit_LearnsDirection(t *testing.T) {
	x, y := separableData(300, 1)

	clf, err := Fit(x, y, DefaultTrainConfig())
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	low, _ := clf.PredictProba([]float64{-4, 7})
	high, _ := clf.PredictProba([]float64{4, 7})
	if !(low < 0.5 && high > 0.5) {
		t.Errorf("Expected low < 0.5 < high, got %v %v", low, high)
	}
	if clf.Scale[1] != 1 {
		t.Errorf("Expected unit scale for constant column, got %v", clf.Scale[1])
	}
}

func TestFit_Deterministic(t *testing.T) {
	x, y := separableData(200, 2)

	a, err := Fit(x, y, DefaultTrainConfig())
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	b, err := Fit(x, y, DefaultTrainConfig())
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	for j := range a.Weights {
		if a.Weights[j] != b.Weights[j] {
			t.Fatalf("Weight %d differs: %v != %v", j, a.Weights[j], b.Weights[j])
		}
	}
}

func TestFit_SingleClassStaysFinite(t *testing.T) {
	x := [][]float64{{1}, {2}, {3}, {4}}
	y := []float64{0, 0, 0, 0}

	clf, err := Fit(x, y, DefaultTrainConfig())
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	p, _ := clf.PredictProba([]float64{2.5})
	if math.IsNaN(p) || p >= 0.5 {
		t.Errorf("Expected small finite probability, got %v", p)
	}
}

func TestFit_Errors(t *testing.T) {
	if _, err := Fit(nil, nil, DefaultTrainConfig()); !errors.Is(err, ErrNoTrainingRows) {
		t.Errorf("Expected ErrNoTrainingRows, got %v", err)
	}
	cfg := DefaultTrainConfig()
	cfg.L2 = 0
	if _, err := Fit([][]float64{{1}}, []float64{1}, cfg); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}

func TestClassifier_PayloadRoundTripPredictsSame(t *testing.T) {
	x, y := separableData(100, 3)
	clf, err := Fit(x, y, DefaultTrainConfig())
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	payload, err := clf.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary failed: %v", err)
	}
	var decoded Classifier
	if err := decoded.UnmarshalBinary(payload); err != nil {
		t.Fatalf("UnmarshalBinary failed: %v", err)
	}

	for _, v := range [][]float64{{-2, 7}, {0, 7}, {3, 7}} {
		want, _ := clf.PredictProba(v)
		got, _ := decoded.PredictProba(v)
		if want != got {
			t.Errorf("Prediction differs after round trip: %v != %v", want, got)
		}
	}

	if err := decoded.UnmarshalBinary([]byte(`{"mean":[1],"scale":[1],"weights":[1]}`)); err == nil {
		t.Error("Expected error for inconsistent dimensions")
	}
}
