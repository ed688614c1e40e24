package alertexpr

import "testing"

func TestCompileSimpleComparison(t *testing.T) {
	pred, err := Compile("queue_drop_rate > 0.05")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if !pred(map[string]float64{"queue_drop_rate": 0.1}) {
		t.Fatal("expected true for 0.1 > 0.05")
	}
	if pred(map[string]float64{"queue_drop_rate": 0.01}) {
		t.Fatal("expected false for 0.01 > 0.05")
	}
}

func TestCompileCompositeFormula(t *testing.T) {
	pred, err := Compile("(queue_drop_rate > 0.05) && live_workers < 3")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if !pred(map[string]float64{"queue_drop_rate": 0.2, "live_workers": 1}) {
		t.Fatal("expected true")
	}
	if pred(map[string]float64{"queue_drop_rate": 0.2, "live_workers": 5}) {
		t.Fatal("expected false when live_workers not below threshold")
	}
}

func TestCompileMissingIdentDefaultsToZero(t *testing.T) {
	pred, err := Compile("unknown_metric == 0")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if !pred(map[string]float64{}) {
		t.Fatal("expected missing metric to evaluate as zero")
	}
}

func TestCompileRejectsTrailingGarbage(t *testing.T) {
	_, err := Compile("live_workers > 1 )")
	if err == nil {
		t.Fatal("expected syntax error")
	}
}

func TestCompileDivideByZeroIsZeroNotPanic(t *testing.T) {
	pred, err := Compile("(a / b) == 0")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if !pred(map[string]float64{"a": 5, "b": 0}) {
		t.Fatal("expected divide-by-zero to evaluate to zero")
	}
}
