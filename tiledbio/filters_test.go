package tiledbio

import "testing"

func TestLevelOfReturnsFallbackOnNil(t *testing.T) {
	if got := levelOf(nil, 6); got != 6 {
		t.Fatalf("levelOf(nil, 6) = %d, want 6", got)
	}
}

func TestLevelOfUsesParsedInt64(t *testing.T) {
	if got := levelOf(int64(9), 6); got != 9 {
		t.Fatalf("levelOf(int64(9), 6) = %d, want 9", got)
	}
}

func TestLevelOfFallsBackOnWrongType(t *testing.T) {
	if got := levelOf("not-an-int", 6); got != 6 {
		t.Fatalf("levelOf(string, 6) = %d, want 6 (fallback on type mismatch)", got)
	}
}
