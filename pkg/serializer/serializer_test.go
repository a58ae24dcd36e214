package serializer

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type sample struct {
	AccountID string            `json:"account_id" yaml:"account_id"`
	Count     int               `json:"count" yaml:"count"`
	Tags      map[string]string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{"report.json", FormatJSON},
		{"security-groups.yaml", FormatYAML},
		{"config.YML", FormatYAML},
		{"notes.txt", FormatYAML},
	}
	for _, tt := range tests {
		if got := FormatFromPath(tt.path); got != tt.want {
			t.Errorf("FormatFromPath(%q) = %s, want %s", tt.path, got, tt.want)
		}
	}
}

func TestFormatIsUnknown(t *testing.T) {
	for _, f := range []Format{FormatJSON, FormatYAML, FormatTable} {
		if f.IsUnknown() {
			t.Errorf("%s should be known", f)
		}
	}
	if !Format("xml").IsUnknown() {
		t.Error("xml should be unknown")
	}
}

func TestFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "account.yaml")
	content := "account_id: \"123456789012\"\ncount: 3\ntags:\n  team: payments\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := FromFile[sample](path)
	if err != nil {
		t.Fatalf("FromFile failed: %v", err)
	}
	if got.AccountID != "123456789012" || got.Count != 3 {
		t.Errorf("unexpected value: %+v", got)
	}
	if got.Tags["team"] != "payments" {
		t.Errorf("tags not decoded: %+v", got.Tags)
	}
}

func TestFromFileJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "account.json")
	if err := os.WriteFile(path, []byte(`{"account_id":"123456789012","count":1}`), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := FromFile[sample](path)
	if err != nil {
		t.Fatalf("FromFile failed: %v", err)
	}
	if got.Count != 1 {
		t.Errorf("unexpected value: %+v", got)
	}
}

func TestFromFileMissing(t *testing.T) {
	if _, err := FromFile[sample](filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestReaderRejectsTableFormat(t *testing.T) {
	if _, err := NewReader(FormatTable, strings.NewReader("")); err == nil {
		t.Fatal("table format must not support reads")
	}
}

func TestWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(FormatJSON, &buf)
	defer w.Close()

	err := w.Serialize(context.Background(), sample{AccountID: "123456789012", Count: 2})
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	if !strings.Contains(buf.String(), `"account_id": "123456789012"`) {
		t.Errorf("unexpected output: %s", buf.String())
	}
}

func TestWriterYAML(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(FormatYAML, &buf)
	defer w.Close()

	err := w.Serialize(context.Background(), sample{AccountID: "123456789012"})
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	if !strings.Contains(buf.String(), "account_id: \"123456789012\"") {
		t.Errorf("unexpected output: %s", buf.String())
	}
}

func TestWriterTable(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(FormatTable, &buf)
	defer w.Close()

	err := w.Serialize(context.Background(), sample{
		AccountID: "123456789012",
		Count:     2,
		Tags:      map[string]string{"team": "payments"},
	})
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"FIELD", "AccountID", "123456789012", "Tags.team", "payments"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestFileWriterOrStdout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "accounts.json")
	w := NewFileWriterOrStdout(FormatJSON, path)

	err := w.Serialize(context.Background(), []sample{{AccountID: "123456789012"}})
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close should be a no-op: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"account_id": "123456789012"`) {
		t.Errorf("unexpected file contents: %s", data)
	}
}

func TestWriterUnknownFormatDefaultsToJSON(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(Format("xml"), &buf)
	defer w.Close()

	if err := w.Serialize(context.Background(), sample{Count: 1}); err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	if !strings.Contains(buf.String(), `"count": 1`) {
		t.Errorf("expected JSON fallback, got: %s", buf.String())
	}
}
