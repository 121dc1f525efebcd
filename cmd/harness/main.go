// Command harness runs a configurable batch of self-play games against the
// autopilot and reports a pass/fail summary, for use in CI regression gates.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/corvid9/snakepilot/applog"
	"github.com/corvid9/snakepilot/harness"
	"github.com/corvid9/snakepilot/runstore"
)

func main() {
	fs := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	runs := fs.Int("runs", 200, "number of games to play")
	steps := fs.Int("steps", 15000, "maximum steps per game")
	threshold := fs.Float64("threshold", 0.95, "minimum pass rate to exit 0")
	difficulty := fs.String("difficulty", "", "opaque difficulty tag passed to the autopilot")
	seed := fs.Int64("seed", 1, "base RNG seed; mixed with the run index per game")
	requireFill := fs.Bool("require-fill", false, "count only fully-filled boards as passing")
	width := fs.Int("width", 20, "grid width")
	height := fs.Int("height", 20, "grid height")
	workers := fs.Int("workers", 8, "number of concurrent worker goroutines")
	archiveDir := fs.String("archive-dir", "", "if set, write a parquet batch of every run's row here")
	tui := fs.Bool("tui", false, "show a live bubbletea progress view instead of plain log lines")
	logFormat := fs.String("log-format", "pretty", "log output format: pretty or json")

	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}

	logger := applog.New(*logFormat, os.Stderr, slog.LevelInfo)

	cfg := harness.RunConfig{
		Runs:        *runs,
		Steps:       *steps,
		Width:       *width,
		Height:      *height,
		Difficulty:  *difficulty,
		Seed:        *seed,
		Workers:     *workers,
		RequireFill: *requireFill,
	}

	logger.Info("starting harness run", "runs", cfg.Runs, "steps", cfg.Steps,
		"width", cfg.Width, "height", cfg.Height, "workers", cfg.Workers)

	var results []harness.RunResult
	if *tui {
		results = runWithProgress(cfg)
	} else {
		results = harness.New(cfg).Run()
	}

	summary := harness.Aggregate(cfg, results)

	if *archiveDir != "" {
		path, err := runstore.WriteBatch(*archiveDir, results)
		if err != nil {
			logger.Error("failed to archive run rows", "error", err)
		} else if path != "" {
			logger.Info("archived run rows", "path", path, "rows", len(results))
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		logger.Error("failed to encode summary", "error", err)
		os.Exit(1)
	}

	if summary.Results.PassRate < *threshold {
		logger.Error("pass rate below threshold", "pass_rate", summary.Results.PassRate, "threshold", *threshold)
		os.Exit(1)
	}
}

// progressMsg reports how many of the configured runs have finished.
type progressMsg struct {
	done int
}

type resultsMsg []harness.RunResult

type progressModel struct {
	done      int
	total     int
	startTime time.Time
	updates   chan int
	results   chan []harness.RunResult
	final     []harness.RunResult
}

func (m progressModel) Init() tea.Cmd {
	return waitForProgress(m.updates)
}

// waitForProgress blocks for the next progress tick; once the progress
// channel closes (all games finished) it switches to waiting on the final
// results instead, so the view never reports "quit" before results exist.
func waitForProgress(updates chan int) tea.Cmd {
	return func() tea.Msg {
		n, ok := <-updates
		if !ok {
			return progressDoneMsg{}
		}
		return progressMsg{done: n}
	}
}

type progressDoneMsg struct{}

func waitForResults(results chan []harness.RunResult) tea.Cmd {
	return func() tea.Msg {
		return resultsMsg(<-results)
	}
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case progressMsg:
		m.done = msg.done
		return m, waitForProgress(m.updates)
	case progressDoneMsg:
		return m, waitForResults(m.results)
	case resultsMsg:
		m.final = []harness.RunResult(msg)
		return m, tea.Quit
	}
	return m, nil
}

func (m progressModel) View() string {
	elapsed := time.Since(m.startTime).Round(time.Second)
	return fmt.Sprintf("games: %d/%d  elapsed: %s\n", m.done, m.total, elapsed)
}

// runWithProgress plays the configured games while driving a small
// bubbletea progress view, grounded on this codebase's self-play dashboard.
func runWithProgress(cfg harness.RunConfig) []harness.RunResult {
	progress := make(chan int, cfg.Runs)
	results := make(chan []harness.RunResult, 1)

	go func() {
		results <- harness.New(cfg).RunWithProgress(progress)
	}()

	p := tea.NewProgram(progressModel{total: cfg.Runs, startTime: time.Now(), updates: progress, results: results})
	final, err := p.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "tui error: %v\n", err)
	}
	if pm, ok := final.(progressModel); ok && pm.final != nil {
		return pm.final
	}
	return <-results
}
