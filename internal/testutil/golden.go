package testutil

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// updateGolden rewrites golden files instead of comparing.
// Use: go test ./internal/api -run Golden -update
var updateGolden = flag.Bool("update", false, "update golden files")

// GoldenPath returns the path of testdata/golden/<name>.json.
func GoldenPath(t *testing.T, name string) string {
	t.Helper()
	return filepath.Join(testdataRoot(t), "golden", name+".json")
}

// CompareGoldenJSON indents the JSON document got and compares it byte for
// byte with the golden file. Key order is part of the comparison.
func CompareGoldenJSON(t *testing.T, name string, got []byte) {
	t.Helper()

	var buf bytes.Buffer
	if err := json.Indent(&buf, got, "", "  "); err != nil {
		t.Fatalf("Response is not valid JSON: %v\n%s", err, got)
	}
	normalized := buf.Bytes()
	if !bytes.HasSuffix(normalized, []byte("\n")) {
		normalized = append(normalized, '\n')
	}

	goldenPath := GoldenPath(t, name)
	if *updateGolden {
		if err := os.MkdirAll(filepath.Dir(goldenPath), 0o755); err != nil {
			t.Fatalf("Failed to create golden directory: %v", err)
		}
		if err := os.WriteFile(goldenPath, normalized, 0o644); err != nil {
			t.Fatalf("Failed to write golden file: %v", err)
		}
		t.Logf("Updated golden: %s", goldenPath)
		return
	}

	expected, err := os.ReadFile(goldenPath)
	if err != nil {
		if os.IsNotExist(err) {
			t.Fatalf("Golden file missing: %s\n\nGot:\n%s\n\nRun with -update to create it", goldenPath, normalized)
		}
		t.Fatalf("Failed to read golden file: %v", err)
	}

	if !bytes.Equal(normalized, expected) {
		t.Fatalf("Golden mismatch for %s:\n%s\nRun with -update to refresh", name,
			lineDiff(string(expected), string(normalized), goldenPath))
	}
}

// lineDiff lists the lines that differ, position by position.
func lineDiff(expected, got, path string) string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "--- %s (expected)\n", path)
	fmt.Fprintf(&buf, "+++ %s (got)\n", path)

	expectedLines := strings.Split(expected, "\n")
	gotLines := strings.Split(got, "\n")

	for i := 0; i < max(len(expectedLines), len(gotLines)); i++ {
		var exp, g string
		if i < len(expectedLines) {
			exp = expectedLines[i]
		}
		if i < len(gotLines) {
			g = gotLines[i]
		}
		if exp == g {
			continue
		}
		fmt.Fprintf(&buf, "@@ line %d @@\n-%s\n+%s\n", i+1, exp, g)
	}
	return buf.String()
}
