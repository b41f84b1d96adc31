package version

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestVersionCommandOutput(t *testing.T) {
	buf := new(bytes.Buffer)
	VersionCmd.SetOut(buf)

	if err := runVersion(VersionCmd, nil); err != nil {
		t.Fatalf("version command failed: %v", err)
	}

	output := buf.String()
	for _, label := range []string{"Version:", "Git Commit:", "Build Date:", "Go Version:"} {
		if !strings.Contains(output, label) {
			t.Errorf("version output missing label %q", label)
		}
	}

	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) != 4 {
		t.Errorf("version output has %d lines, expected 4", len(lines))
	}
}

func TestVersionCommandJSON(t *testing.T) {
	versionJSON = true
	defer func() { versionJSON = false }()

	buf := new(bytes.Buffer)
	VersionCmd.SetOut(buf)

	if err := runVersion(VersionCmd, nil); err != nil {
		t.Fatalf("version command failed: %v", err)
	}

	var info map[string]string
	if err := json.Unmarshal(buf.Bytes(), &info); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if info["version"] == "" {
		t.Errorf("version field empty in %v", info)
	}
}
