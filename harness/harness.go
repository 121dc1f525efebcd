// Package harness implements the self-play regression runner: it plays many
// independent games against the autopilot concurrently, each on its own
// worker goroutine with its own Autopilot and *rand.Rand (the Autopilot is
// not safe to share across goroutines), and aggregates the results into a
// pass/fail summary suitable for CI.
package harness

import (
	"math"
	"math/rand"
	"sort"
	"sync"

	"github.com/corvid9/snakepilot/autopilot"
	"github.com/corvid9/snakepilot/grid"
	"github.com/corvid9/snakepilot/simulate"
)

// RunConfig configures one harness invocation.
type RunConfig struct {
	Runs        int
	Steps       int
	Width       int
	Height      int
	Difficulty  string
	Seed        int64
	Workers     int
	RequireFill bool
}

// normalizeWorkers returns a safe worker count: at least 1, never more than
// the number of runs requested.
func (c RunConfig) normalizeWorkers() int {
	w := c.Workers
	if w <= 0 {
		w = 1
	}
	if c.Runs > 0 && w > c.Runs {
		w = c.Runs
	}
	return w
}

// RunResult is the outcome of a single game.
type RunResult struct {
	RunIndex       int
	Steps          int
	Fruits         int
	Filled         bool
	Crashed        bool
	Reason         string
	SurvivalBuffer int
}

// HarnessSummary is the aggregate computed by Aggregate, and the exact shape
// cmd/harness prints as JSON.
type HarnessSummary struct {
	Config  RunConfig      `json:"config"`
	Results ResultsSummary `json:"results"`
}

// ResultsSummary holds the metrics nested under HarnessSummary.Results.
type ResultsSummary struct {
	PassRate    float64        `json:"pass_rate"`
	FullWinRate float64        `json:"full_win_rate"`
	AvgFruits   float64        `json:"avg_fruits"`
	AvgSteps    float64        `json:"avg_steps"`
	P95Survival int            `json:"p95_survival"`
	Reasons     map[string]int `json:"reasons"`
}

// Runner owns a RunConfig and drives the worker pool that plays the
// configured number of games.
type Runner struct {
	cfg RunConfig
}

// New constructs a Runner for cfg.
func New(cfg RunConfig) *Runner {
	return &Runner{cfg: cfg}
}

// Run plays cfg.Runs games across cfg.normalizeWorkers() goroutines and
// returns one RunResult per game, ordered by RunIndex.
func (r *Runner) Run() []RunResult {
	return r.RunWithProgress(nil)
}

// RunWithProgress behaves like Run, additionally sending the count of games
// completed so far on progress after every finished game. progress may be
// nil, and is closed once every game has finished.
func (r *Runner) RunWithProgress(progress chan<- int) []RunResult {
	cfg := r.cfg
	results := make([]RunResult, cfg.Runs)

	jobs := make(chan int)
	var wg sync.WaitGroup
	var completed int
	var mu sync.Mutex
	workers := cfg.normalizeWorkers()
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = playGame(cfg, idx)
				if progress != nil {
					mu.Lock()
					completed++
					n := completed
					mu.Unlock()
					progress <- n
				}
			}
		}()
	}
	for i := 0; i < cfg.Runs; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	if progress != nil {
		close(progress)
	}

	return results
}

// seedFor mixes the configured seed with the run index so --seed reproduces
// the exact same sequence of per-run seeds regardless of worker count or
// scheduling order.
func seedFor(base int64, runIndex int) int64 {
	h := uint64(base) * 2654435761
	h ^= uint64(runIndex) * 0x9E3779B97F4A7C15
	h ^= h >> 33
	return int64(h)
}

// playGame runs one complete game to termination: a crash, filling the
// board, or reaching the configured step limit.
func playGame(cfg RunConfig, runIndex int) RunResult {
	bounds, err := grid.New(cfg.Width, cfg.Height, -cfg.Width/2, -cfg.Height/2)
	if err != nil {
		return RunResult{RunIndex: runIndex, Crashed: true, Reason: "bad-grid"}
	}

	rng := rand.New(rand.NewSource(seedFor(cfg.Seed, runIndex)))
	ap := autopilot.New(bounds, cfg.Difficulty)

	body := initialBody(bounds, rng)
	occupied := grid.NewCellSet(bounds)
	for _, c := range body {
		occupied.Add(c)
	}

	fruits := applyFoodSettings(bounds, nil, occupied, rng, DefaultFoodSettings)

	currentDir := grid.Direction{}
	fruitsEaten := 0
	steps := 0

	for ; steps < cfg.Steps; steps++ {
		head := body[0]
		dir := ap.NextDirection(head, currentDir, body, fruits)
		next := head.Apply(dir)
		grows := containsFruit(fruits, next)

		newBody, ok := simulate.Simulate(bounds, body, next, grows, grid.NewCellSet(bounds))
		if !ok {
			if retryDir, retryOK := ap.EmergencyDirection(head, currentDir, body, fruits); retryOK {
				retryNext := head.Apply(retryDir)
				retryGrows := containsFruit(fruits, retryNext)
				if nb, retrySimOK := simulate.Simulate(bounds, body, retryNext, retryGrows, grid.NewCellSet(bounds)); retrySimOK {
					dir, next, grows, newBody, ok = retryDir, retryNext, retryGrows, nb, true
				}
			}
			if !ok {
				return RunResult{
					RunIndex:       runIndex,
					Steps:          steps,
					Fruits:         fruitsEaten,
					Crashed:        true,
					Reason:         "collision",
					SurvivalBuffer: ap.DebugStats().LastSurvivalBuffer,
				}
			}
		}

		body = newBody
		currentDir = dir
		occupied.Reset()
		for _, c := range body {
			occupied.Add(c)
		}

		if grows {
			fruitsEaten++
			fruits = removeFruit(fruits, next)
		}
		fruits = applyFoodSettings(bounds, fruits, occupied, rng, DefaultFoodSettings)

		if len(body) >= bounds.CellCount() {
			return RunResult{
				RunIndex:       runIndex,
				Steps:          steps + 1,
				Fruits:         fruitsEaten,
				Filled:         true,
				Reason:         "filled",
				SurvivalBuffer: ap.DebugStats().LastSurvivalBuffer,
			}
		}
	}

	return RunResult{
		RunIndex:       runIndex,
		Steps:          steps,
		Fruits:         fruitsEaten,
		Reason:         "step-limit",
		SurvivalBuffer: ap.DebugStats().LastSurvivalBuffer,
	}
}

func initialBody(bounds grid.Bounds, rng *rand.Rand) []grid.Cell {
	empty := grid.NewCellSet(bounds)
	head, ok := bounds.RandomFreeCell(empty, rng)
	if !ok {
		head = grid.Cell{X: bounds.MinX(), Z: bounds.MinZ()}
	}
	body := []grid.Cell{head}
	cur := head
	for _, d := range []grid.Direction{grid.Left, grid.Down, grid.Right, grid.Up} {
		prev := grid.Cell{X: cur.X - d.DX, Z: cur.Z - d.DZ}
		if !bounds.InBounds(prev) {
			continue
		}
		body = append(body, prev)
		cur = prev
		if len(body) == 3 {
			break
		}
	}
	for len(body) < 3 {
		body = append(body, body[len(body)-1])
	}
	return body
}

func containsFruit(fruits []grid.Cell, cell grid.Cell) bool {
	for _, f := range fruits {
		if f == cell {
			return true
		}
	}
	return false
}

func removeFruit(fruits []grid.Cell, cell grid.Cell) []grid.Cell {
	out := fruits[:0]
	for _, f := range fruits {
		if f != cell {
			out = append(out, f)
		}
	}
	return out
}

// Aggregate computes a HarnessSummary from a batch of RunResults. "Pass"
// means the run either filled the board or reached the step limit without
// crashing.
func Aggregate(cfg RunConfig, results []RunResult) HarnessSummary {
	summary := HarnessSummary{Config: cfg, Results: ResultsSummary{Reasons: map[string]int{}}}
	if len(results) == 0 {
		return summary
	}

	var passed, fullWins int
	var totalFruits, totalSteps int
	buffers := make([]int, 0, len(results))

	for _, r := range results {
		summary.Results.Reasons[r.Reason]++
		totalFruits += r.Fruits
		totalSteps += r.Steps
		buffers = append(buffers, r.SurvivalBuffer)

		if !r.Crashed {
			passed++
		}
		if r.Filled {
			fullWins++
		}
	}

	n := float64(len(results))
	if cfg.RequireFill {
		passed = fullWins
	}
	summary.Results.PassRate = float64(passed) / n
	summary.Results.FullWinRate = float64(fullWins) / n
	summary.Results.AvgFruits = float64(totalFruits) / n
	summary.Results.AvgSteps = float64(totalSteps) / n
	summary.Results.P95Survival = percentile95(buffers)
	return summary
}

func percentile95(values []int) int {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]int(nil), values...)
	sort.Ints(sorted)
	idx := int(math.Ceil(0.95*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
