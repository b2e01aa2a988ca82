package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"modsuite/internal/sidecar"
	"modsuite/internal/testsupport"
	"modsuite/internal/units"
)

func TestProfilesMarksDefault(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithProfile("small_mm"))

	out, _, err := runCLI(t, []string{"profiles"}, env.configPath)
	if err != nil {
		t.Fatalf("profiles: %v", err)
	}
	for _, p := range units.All() {
		requireContains(t, out, p.ID)
	}
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "small_mm") && !strings.Contains(line, "*") {
			t.Fatalf("default profile not marked: %q", line)
		}
		if strings.Contains(line, "normal_m") && strings.Contains(line, "*") {
			t.Fatalf("non-default profile marked: %q", line)
		}
	}

	out, _, err = runCLI(t, []string{"profiles", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("profiles --json: %v", err)
	}
	var profiles []units.Profile
	if err := json.Unmarshal([]byte(out), &profiles); err != nil {
		t.Fatalf("decode profiles: %v", err)
	}
	if len(profiles) != 3 || profiles[0].ID != "small_mm" {
		t.Fatalf("unexpected profiles: %+v", profiles)
	}
}

func TestDigestPrintsChecksum(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithoutHistory())
	path := filepath.Join(t.TempDir(), "empty.bin")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("write empty file: %v", err)
	}

	out, _, err := runCLI(t, []string{"digest", path}, env.configPath)
	if err != nil {
		t.Fatalf("digest: %v", err)
	}
	requireContains(t, out, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855  "+path)

	_, _, err = runCLI(t, []string{"digest", "--lookup", path}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "record_history") {
		t.Fatalf("expected lookup to need history, got %v", err)
	}
}

func TestScanWritesSidecarWithAudit(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithoutHistory())
	dir := t.TempDir()
	path := testsupport.WriteText(t, filepath.Join(dir, "settings.json"), `{"thrust": 200}`)

	out, _, err := runCLI(t, []string{"scan", "--write", "--json", path}, env.configPath)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	var audit map[string]any
	if err := json.Unmarshal([]byte(out), &audit); err != nil {
		t.Fatalf("decode audit: %v\n%s", err, out)
	}
	if audit["detected_type"] != "text" {
		t.Fatalf("unexpected audit: %v", audit)
	}

	located, ok := sidecar.Locate(path)
	if !ok {
		t.Fatalf("expected sidecar for %s", path)
	}
	sc, err := sidecar.Read(located)
	if err != nil {
		t.Fatalf("read sidecar: %v", err)
	}
	if sc.Record.Conversion == nil || sc.Record.Conversion.Action != "scan" || sc.Record.Audit == nil {
		t.Fatalf("unexpected scan record: %+v", sc.Record)
	}

	out, _, err = runCLI(t, []string{"scan", dir}, env.configPath)
	if err != nil {
		t.Fatalf("scan dir: %v", err)
	}
	requireContains(t, out, "Folder: "+dir)
	requireContains(t, out, "text")
}

func TestHistoryDisabled(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithoutHistory())

	_, _, err := runCLI(t, []string{"history"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "disabled") {
		t.Fatalf("expected disabled history error, got %v", err)
	}
}

func TestHistoryEmpty(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "No runs recorded")

	_, _, err = runCLI(t, []string{"history", "missing-run"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDoctorReportsChecks(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, _ := runCLI(t, []string{"doctor"}, env.configPath)
	requireContains(t, out, "== Preflight ==")
	requireContains(t, out, "Workspace directory:")
	requireContains(t, out, "Log directory:")
	requireContains(t, out, "Exclusive runs:")
}

func TestConfigInitAndValidate(t *testing.T) {
	base := t.TempDir()
	t.Setenv("HOME", base)
	t.Setenv("MODSUITE_SCALE_PROFILE", "")
	target := filepath.Join(base, "conf", "modsuite.toml")

	out, _, err := runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration to "+target)
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file: %v", err)
	}

	_, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("expected existing file error, got %v", err)
	}

	out, _, err = runCLI(t, []string{"config", "validate"}, target)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Config path: "+target)
	requireContains(t, out, "Default profile: normal_m")
	requireContains(t, out, "Configuration valid")
}
