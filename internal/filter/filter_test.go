package filter

import "testing"

func TestEmptyExpressionMatchesAll(t *testing.T) {
	f, err := New("  ")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if !f.Eval("any", 1, "scalar", 0.5, 0) {
		t.Fatalf("disabled filter rejected a value")
	}
}

func TestTagAndStepExpression(t *testing.T) {
	f, err := New(`tag.startsWith("loss") && step >= 10`)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if !f.Eval("loss/train", 10, "scalar", 0.1, 0) {
		t.Fatalf("matching value rejected")
	}
	if f.Eval("loss/train", 9, "scalar", 0.1, 0) {
		t.Fatalf("step below threshold accepted")
	}
	if f.Eval("accuracy", 10, "scalar", 0.1, 0) {
		t.Fatalf("non-matching tag accepted")
	}
}

func TestValueAndKindExpression(t *testing.T) {
	f, err := New(`kind == "scalar" && value > 1.0`)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if !f.Eval("lr", 1, "scalar", 2.0, 0) {
		t.Fatalf("matching scalar rejected")
	}
	if f.Eval("weights", 1, "tensor", 0, 0) {
		t.Fatalf("tensor accepted by scalar filter")
	}
}

func TestCompileError(t *testing.T) {
	if _, err := New(`step ==`); err == nil {
		t.Fatalf("want compile error")
	}
}
