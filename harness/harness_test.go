package harness

import (
	"testing"
)

func smallConfig(runs int) RunConfig {
	return RunConfig{
		Runs:       runs,
		Steps:      200,
		Width:      12,
		Height:     12,
		Difficulty: "",
		Seed:       42,
		Workers:    4,
	}
}

func TestRunProducesOneResultPerGame(t *testing.T) {
	cfg := smallConfig(6)
	results := New(cfg).Run()
	if len(results) != cfg.Runs {
		t.Fatalf("got %d results, want %d", len(results), cfg.Runs)
	}
	for i, r := range results {
		if r.RunIndex != i {
			t.Fatalf("results[%d].RunIndex = %d, want %d", i, r.RunIndex, i)
		}
		if r.Steps <= 0 {
			t.Fatalf("results[%d] played zero steps", i)
		}
	}
}

func TestRunIsDeterministicForAFixedSeed(t *testing.T) {
	cfg := smallConfig(4)
	a := New(cfg).Run()
	b := New(cfg).Run()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("run %d differs across identical-seed invocations: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestSeedForVariesByRunIndex(t *testing.T) {
	s0 := seedFor(1, 0)
	s1 := seedFor(1, 1)
	if s0 == s1 {
		t.Fatal("seedFor produced identical seeds for different run indices")
	}
}

func TestAggregateComputesPassRate(t *testing.T) {
	cfg := smallConfig(4)
	results := []RunResult{
		{RunIndex: 0, Steps: 100, Fruits: 3, Reason: "step-limit"},
		{RunIndex: 1, Steps: 144, Fruits: 144, Filled: true, Reason: "filled"},
		{RunIndex: 2, Steps: 12, Crashed: true, Reason: "collision"},
		{RunIndex: 3, Steps: 80, Fruits: 2, Reason: "step-limit"},
	}
	summary := Aggregate(cfg, results)
	if summary.Results.PassRate != 0.75 {
		t.Fatalf("PassRate = %v, want 0.75", summary.Results.PassRate)
	}
	if summary.Results.FullWinRate != 0.25 {
		t.Fatalf("FullWinRate = %v, want 0.25", summary.Results.FullWinRate)
	}
	if summary.Results.Reasons["collision"] != 1 {
		t.Fatalf("Reasons[collision] = %d, want 1", summary.Results.Reasons["collision"])
	}
}

func TestAggregateRequireFillNarrowsPassRate(t *testing.T) {
	cfg := smallConfig(2)
	cfg.RequireFill = true
	results := []RunResult{
		{RunIndex: 0, Steps: 100, Reason: "step-limit"},
		{RunIndex: 1, Steps: 144, Filled: true, Reason: "filled"},
	}
	summary := Aggregate(cfg, results)
	if summary.Results.PassRate != 0.5 {
		t.Fatalf("PassRate = %v, want 0.5 under RequireFill", summary.Results.PassRate)
	}
}

func TestAggregateEmptyResultsIsZeroValue(t *testing.T) {
	summary := Aggregate(smallConfig(0), nil)
	if summary.Results.PassRate != 0 || summary.Results.AvgFruits != 0 {
		t.Fatalf("expected zero-value summary for no results, got %+v", summary)
	}
}

func TestPercentile95OnKnownData(t *testing.T) {
	got := percentile95([]int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10})
	if got != 10 {
		t.Fatalf("percentile95 = %d, want 10", got)
	}
}
