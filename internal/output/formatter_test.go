package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input string
		want  Format
	}{
		{"text", FormatText},
		{"json", FormatJSON},
		{"JSON", FormatJSON},
		{"markdown", FormatMarkdown},
		{"md", FormatMarkdown},
		{"", FormatText},
		{"invalid", FormatText},
	}
	for _, tt := range tests {
		if got := ParseFormat(tt.input); got != tt.want {
			t.Errorf("ParseFormat(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestTableRenderMarkdown(t *testing.T) {
	table := NewTable("Findings (1)",
		[]string{"Severity", "Smell"},
		[][]string{{"LOW", "long_method"}},
		nil, nil)

	var buf bytes.Buffer
	if err := table.RenderMarkdown(&buf); err != nil {
		t.Fatalf("RenderMarkdown failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"## Findings (1)", "| Severity | Smell |", "| --- | --- |", "| LOW | long_method |"} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown output missing %q:\n%s", want, out)
		}
	}
}

func TestTableRenderText(t *testing.T) {
	table := NewTable("Health Score",
		[]string{"Category", "Penalty"},
		[][]string{{"long_method", "4"}},
		[]string{"Score", "96.0"}, nil)

	var buf bytes.Buffer
	if err := table.RenderText(&buf, false); err != nil {
		t.Fatalf("RenderText failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Health Score") || !strings.Contains(out, "long_method") {
		t.Errorf("text output missing expected content:\n%s", out)
	}
}

func TestTableRenderDataFromRows(t *testing.T) {
	table := NewTable("", []string{"a", "b"}, [][]string{{"1", "2"}}, nil, nil)
	data, ok := table.RenderData().([]map[string]string)
	if !ok {
		t.Fatalf("RenderData returned %T, want []map[string]string", table.RenderData())
	}
	if data[0]["a"] != "1" || data[0]["b"] != "2" {
		t.Errorf("RenderData = %v", data)
	}
}

func TestSectionRenderText(t *testing.T) {
	section := &Section{
		Title:   "Recommendations",
		Content: "- split function",
	}
	var buf bytes.Buffer
	if err := section.RenderText(&buf, false); err != nil {
		t.Fatalf("RenderText failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Recommendations", "---------------", "- split function"} {
		if !strings.Contains(out, want) {
			t.Errorf("section output missing %q:\n%s", want, out)
		}
	}
}

func TestReportJSONUsesData(t *testing.T) {
	report := &Report{
		Title:    "Code Smell Analysis",
		Sections: []Renderable{&Section{Title: "ignored"}},
		Data:     map[string]any{"score": 85.5},
	}

	raw, err := json.Marshal(report.RenderData())
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if decoded["score"] != 85.5 {
		t.Errorf("score = %v, want 85.5", decoded["score"])
	}
}

func TestSeverityColorPassthrough(t *testing.T) {
	// Unknown severities come back unchanged.
	if got := SeverityColor("whatever", "text"); got != "text" {
		t.Errorf("SeverityColor passthrough = %q", got)
	}
}
