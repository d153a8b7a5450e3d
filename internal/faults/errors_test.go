package faults_test

import (
	"errors"
	"strings"
	"testing"

	"rivendb/internal/faults"
)

func TestWrapKeepsMarkerAndCause(t *testing.T) {
	cause := errors.New("exit status 2")
	err := faults.Wrap(faults.ErrExternalTool, "media", "compare", "probe.png", cause)

	if !errors.Is(err, faults.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool marker, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be preserved, got %v", err)
	}
	if !strings.Contains(err.Error(), "media: compare: probe.png") {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestWrapWithoutDetail(t *testing.T) {
	err := faults.Wrap(faults.ErrNaming, "", "", "", nil)
	if err.Error() != "naming convention error: catalog failure" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestKind(t *testing.T) {
	cases := map[error]string{
		faults.Wrap(faults.ErrNaming, "collect", "", "", nil):     "naming",
		faults.Wrap(faults.ErrReference, "objects", "", "", nil):  "reference",
		faults.Wrap(faults.ErrPathSafety, "paths", "", "", nil):   "path_safety",
		faults.Wrap(faults.ErrDuplicate, "objects", "", "", nil):  "duplicate",
		faults.Wrap(faults.ErrExternalTool, "media", "", "", nil): "external_tool",
		errors.New("plain"): "unknown",
	}
	for err, want := range cases {
		if got := faults.Kind(err); got != want {
			t.Fatalf("Kind(%v) = %q, want %q", err, got, want)
		}
	}
}
