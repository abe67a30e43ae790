// Package eval measures recognition accuracy over a directory of labelled
// CAPTCHA images. Each file's stem is its ground truth text, e.g.
// "kqwe.png" holds the CAPTCHA "kqwe".
package eval

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"captcha-reader/internal/solver"

	"github.com/google/uuid"
)

// Recognizer is the part of solver.Solver the evaluator needs.
type Recognizer interface {
	Recognize(data []byte, initialK int) (solver.Prediction, error)
}

// Options controls an evaluation run.
type Options struct {
	Workers  int // defaults to NumCPU
	InitialK int // 0 uses the solver default
}

// Result is the outcome for one file.
type Result struct {
	File       string `json:"file"`
	Want       string `json:"want"`
	Got        string `json:"got"`
	Correct    bool   `json:"correct"`
	MatchChars int    `json:"match_chars"`
	K          int    `json:"k,omitempty"`
	Iterations int    `json:"iterations,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Report summarizes a run. Results are sorted by file name.
type Report struct {
	RunID        string         `json:"run_id"`
	Dir          string         `json:"dir"`
	Started      time.Time      `json:"started"`
	Duration     time.Duration  `json:"duration_ns"`
	Total        int            `json:"total"`
	Correct      int            `json:"correct"`
	Chars        int            `json:"chars"`
	CorrectChars int            `json:"correct_chars"`
	Accuracy     float64        `json:"accuracy"`
	CharAccuracy float64        `json:"char_accuracy"`
	Failures     map[string]int `json:"failures,omitempty"`
	Results      []Result       `json:"results"`
	Skipped      int            `json:"skipped,omitempty"`
	Cancelled    bool           `json:"cancelled,omitempty"`
}

var imageExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".bmp": true, ".tif": true, ".tiff": true, ".webp": true,
}

// Files lists the image files directly inside dir, sorted by name.
func Files(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !imageExts[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// Label returns the ground truth encoded in a file name.
func Label(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Run recognizes every image in dir on a fixed pool of workers. Cancelling
// ctx stops handing out new files; finished results are still reported.
func Run(ctx context.Context, r Recognizer, dir string, opts Options) (*Report, error) {
	files, err := Files(dir)
	if err != nil {
		return nil, err
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	report := &Report{
		RunID:   uuid.NewString(),
		Dir:     dir,
		Started: time.Now(),
	}
	log.Printf("Eval[%s]: %d files in %s with %d workers", report.RunID[:8], len(files), dir, workers)

	jobs := make(chan string)
	results := make(chan Result)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				results <- evaluate(r, path, opts.InitialK)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, path := range files {
			select {
			case jobs <- path:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	for res := range results {
		report.add(res)
	}

	report.Skipped = len(files) - report.Total
	report.Cancelled = ctx.Err() != nil && report.Skipped > 0
	report.finish()
	log.Printf("Eval[%s]: %d/%d correct (%.1f%%), %d/%d chars",
		report.RunID[:8], report.Correct, report.Total, report.Accuracy*100, report.CorrectChars, report.Chars)
	return report, nil
}

func evaluate(r Recognizer, path string, initialK int) Result {
	res := Result{File: filepath.Base(path), Want: Label(path)}

	data, err := os.ReadFile(path)
	if err != nil {
		res.Error = err.Error()
		res.Got = solver.SentinelPreprocessFail
		return res
	}

	p, err := r.Recognize(data, initialK)
	if err != nil {
		res.Error = err.Error()
		res.Got = solver.Sentinel(err)
		return res
	}

	res.Got = p.Text
	res.K = p.K
	res.Iterations = p.Iterations
	res.Correct = p.Text == res.Want
	res.MatchChars = matchingChars(res.Want, p.Text)
	return res
}

// matchingChars counts positions where want and got agree.
func matchingChars(want, got string) int {
	w, g := []rune(want), []rune(got)
	n := 0
	for i := 0; i < len(w) && i < len(g); i++ {
		if w[i] == g[i] {
			n++
		}
	}
	return n
}

func (rep *Report) add(res Result) {
	rep.Results = append(rep.Results, res)
	rep.Total++
	rep.Chars += len([]rune(res.Want))
	rep.CorrectChars += res.MatchChars
	if res.Correct {
		rep.Correct++
	}
	if res.Error != "" {
		if rep.Failures == nil {
			rep.Failures = make(map[string]int)
		}
		rep.Failures[res.Got]++
	}
}

func (rep *Report) finish() {
	sort.Slice(rep.Results, func(i, j int) bool {
		return rep.Results[i].File < rep.Results[j].File
	})
	if rep.Total > 0 {
		rep.Accuracy = float64(rep.Correct) / float64(rep.Total)
	}
	if rep.Chars > 0 {
		rep.CharAccuracy = float64(rep.CorrectChars) / float64(rep.Chars)
	}
	rep.Duration = time.Since(rep.Started)
}

// WriteJSON writes the report as indented JSON to path.
func (rep *Report) WriteJSON(path string) error {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
