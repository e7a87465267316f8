package stage_test

import (
	"errors"
	"testing"
	"time"

	"happytube/internal/stage"
)

func TestOutcome(t *testing.T) {
	if got := stage.Outcome(3); got != stage.StatusSuccess {
		t.Fatalf("processed>0: got %q", got)
	}
	if got := stage.Outcome(0); got != stage.StatusNoInput {
		t.Fatalf("processed=0: got %q", got)
	}
}

func TestFail(t *testing.T) {
	result := stage.Fail("assess", 2*time.Second, errors.New("quota exceeded"))
	if !result.Failed() {
		t.Fatal("expected failed result")
	}
	if result.Stage != "assess" || result.Detail != "quota exceeded" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.Elapsed != 2*time.Second {
		t.Fatalf("unexpected elapsed: %v", result.Elapsed)
	}
}
