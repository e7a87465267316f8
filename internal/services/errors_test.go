package services

import (
	"errors"
	"fmt"
	"testing"
)

func TestWrapTagsMarker(t *testing.T) {
	base := fmt.Errorf("boom")
	err := Wrap(ErrStageFailure, "fetch", "search", "youtube unreachable", base)
	if !errors.Is(err, ErrStageFailure) {
		t.Fatalf("expected ErrStageFailure, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped cause to be preserved: %v", err)
	}
	want := "stage failure: fetch: search: youtube unreachable: boom"
	if err.Error() != want {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestWrapNilMarkerDefaultsToTransient(t *testing.T) {
	err := Wrap(nil, "assess", "batch", "", nil)
	if !errors.Is(err, ErrTransient) {
		t.Fatalf("expected ErrTransient, got %v", err)
	}
}

func TestIsItemLevel(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{Wrap(ErrItemProcessing, "assess", "score", "missing id", nil), true},
		{Wrap(ErrMalformedRecord, "assess", "load", "bad yaml", nil), true},
		{Wrap(ErrStageFailure, "fetch", "search", "down", nil), false},
		{Wrap(ErrConfiguration, "fetch", "profile", "unknown", nil), false},
	}
	for _, tc := range cases {
		if got := IsItemLevel(tc.err); got != tc.want {
			t.Fatalf("IsItemLevel(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}
