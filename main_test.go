package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"captcha-reader/internal/solver"
)

func TestRunSolveWithoutModel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "abcd.png")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	s := solver.New(nil, solver.DefaultOptions())

	var out bytes.Buffer
	if err := runSolve(&out, s, []string{path}, solveOptions{}); err != nil {
		t.Fatalf("runSolve: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != solver.SentinelModelNotLoaded {
		t.Fatalf("output = %q", got)
	}

	out.Reset()
	if err := runSolve(&out, s, []string{path}, solveOptions{json: true}); err != nil {
		t.Fatalf("runSolve json: %v", err)
	}
	var res solveOutput
	if err := json.Unmarshal(out.Bytes(), &res); err != nil {
		t.Fatalf("invalid JSON %q: %v", out.String(), err)
	}
	if res.File != path || res.Text != solver.SentinelModelNotLoaded || res.Error == "" {
		t.Fatalf("result = %+v", res)
	}
}

func TestRunSolveMissingFile(t *testing.T) {
	s := solver.New(nil, solver.DefaultOptions())
	if err := runSolve(&bytes.Buffer{}, s, []string{filepath.Join(t.TempDir(), "none.png")}, solveOptions{}); err == nil {
		t.Fatal("expected read error")
	}
}

func TestRootCommandWiring(t *testing.T) {
	cmd := newRootCmd()
	names := map[string]bool{}
	for _, c := range cmd.Commands() {
		names[c.Name()] = true
	}
	if !names["solve"] || !names["eval"] {
		t.Fatalf("subcommands = %v", names)
	}
}
