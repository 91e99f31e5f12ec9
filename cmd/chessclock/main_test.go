package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

func isolateEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, k := range []string{"REDIS_URL", "DATABASE_URL", "SQLITE_PATH", "CLOCK_TIME_CONTROL", "CLOCK_PRESETS_FILE", "MESSAGES_DIR"} {
		t.Setenv(k, "")
	}
	t.Setenv("CLOCK_PRESET", "blitz")
	t.Setenv("CLOCK_SNAPSHOT_DIR", filepath.Join(dir, "snaps"))
	return dir
}

func TestREPLSession(t *testing.T) {
	dir := isolateEnv(t)
	snap := filepath.Join(dir, "g.json")
	in := strings.NewReader(strings.Join([]string{
		"adjust black 30",
		"start",
		"pause",
		"save " + snap,
		"save",
		"bogus",
		"tap purple",
		"history",
		"events",
		"quit",
		"status",
	}, "\n"))
	var out bytes.Buffer
	if err := run([]string{"--time", "3+2"}, in, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	got := out.String()
	for _, want := range []string{
		"chess clock 3+2",
		"  black 3:30",
		"[paused] 3+2",
		"saved as " + snap,
		"unknown command: bogus",
		"side must be white or black",
		"no finished games yet",
		"event feed needs REDIS_URL",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("output missing %q:\n%s", want, got)
		}
	}
	if strings.Count(got, "[paused]") != 1 {
		t.Fatalf("commands after quit were executed:\n%s", got)
	}
}

func TestRestoreFlag(t *testing.T) {
	dir := isolateEnv(t)
	snap := filepath.Join(dir, "g.cbor")
	var out bytes.Buffer
	if err := run([]string{"--preset", "bullet"}, strings.NewReader("adjust white -10\nsave "+snap+"\nquit\n"), &out); err != nil {
		t.Fatalf("first run: %v", err)
	}
	out.Reset()
	if err := run([]string{"--restore", snap}, strings.NewReader("status\nquit\n"), &out); err != nil {
		t.Fatalf("restore run: %v", err)
	}
	if !strings.Contains(out.String(), "  white 50") || !strings.Contains(out.String(), "resumed") {
		t.Fatalf("restored output:\n%s", out.String())
	}
}

func TestUnknownFlag(t *testing.T) {
	isolateEnv(t)
	var out bytes.Buffer
	if err := run([]string{"--nope"}, strings.NewReader(""), &out); err == nil {
		t.Fatalf("expected error for unknown flag")
	}
}
