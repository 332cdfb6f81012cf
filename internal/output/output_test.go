package output

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

type sample struct {
	Status  string `yaml:"status" json:"status"`
	Message string `yaml:"message,omitempty" json:"message,omitempty"`
	Score   int    `yaml:"score" json:"score"`
}

func capture(t *testing.T, fn func() error) string {
	t.Helper()
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	err := fn()
	w.Close()
	os.Stdout = old

	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	buf.ReadFrom(r)
	return buf.String()
}

func TestPrintYAML(t *testing.T) {
	out := capture(t, func() error {
		return PrintYAML(sample{Status: "success", Message: "clicked", Score: 92})
	})

	var decoded sample
	if err := yaml.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("output is not valid YAML: %v", err)
	}
	if decoded.Status != "success" || decoded.Score != 92 {
		t.Errorf("roundtrip mismatch: %+v", decoded)
	}
}

func TestPrintJSONCompact(t *testing.T) {
	out := capture(t, func() error {
		return PrintJSON(sample{Status: "busy"}, false)
	})
	if strings.Count(strings.TrimSpace(out), "\n") != 0 {
		t.Errorf("compact JSON should be single-line, got:\n%s", out)
	}
	if !strings.Contains(out, `"status":"busy"`) {
		t.Errorf("unexpected JSON: %s", out)
	}
}

func TestPrintJSONPretty(t *testing.T) {
	out := capture(t, func() error {
		return PrintJSON(sample{Status: "success", Score: 90}, true)
	})
	if !strings.Contains(out, "  \"status\"") {
		t.Errorf("pretty JSON should be indented, got:\n%s", out)
	}
}

func TestPrintRespectsFormat(t *testing.T) {
	OutputFormat = FormatJSON
	defer func() { OutputFormat = FormatYAML }()

	out := capture(t, func() error {
		return Print(sample{Status: "failed"})
	})
	if !strings.HasPrefix(strings.TrimSpace(out), "{") {
		t.Errorf("expected JSON output, got:\n%s", out)
	}
}
