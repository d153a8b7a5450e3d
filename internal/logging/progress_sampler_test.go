package logging

import "testing"

func TestNewProgressSamplerDefaults(t *testing.T) {
	s := NewProgressSampler(0)
	if s.bucketSize != 5 {
		t.Fatalf("bucketSize = %v, want 5", s.bucketSize)
	}
	if s.lastBucket != -1 {
		t.Fatalf("lastBucket = %d, want -1", s.lastBucket)
	}
}

func TestProgressSamplerNilAlwaysLogs(t *testing.T) {
	var s *ProgressSampler
	if !s.ShouldLog("compare", 1, 100) {
		t.Fatal("nil sampler should always log")
	}
	s.Reset()
}

func TestProgressSamplerBuckets(t *testing.T) {
	s := NewProgressSampler(10)
	logged := 0
	for done := 1; done <= 100; done++ {
		if s.ShouldLog("compare", done, 100) {
			logged++
		}
	}
	// phase change at 1, buckets 1..9 crossed at 10,20..90, final item.
	if logged != 11 {
		t.Fatalf("expected 11 sampled lines, got %d", logged)
	}
}

func TestProgressSamplerPhaseChangeResets(t *testing.T) {
	s := NewProgressSampler(50)
	if !s.ShouldLog("measure", 1, 10) {
		t.Fatal("first phase should log")
	}
	if s.ShouldLog("measure", 2, 10) {
		t.Fatal("same bucket should not log")
	}
	if !s.ShouldLog("thumbnails", 1, 10) {
		t.Fatal("new phase should log")
	}
	s.Reset()
	if s.lastPhase != "" || s.lastBucket != -1 {
		t.Fatalf("reset did not clear state: %+v", s)
	}
}
