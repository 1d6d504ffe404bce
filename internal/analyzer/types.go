package analyzer

import (
	"bytes"
	"encoding/json"
	"strings"
)

// CodeUnit is one piece of source text and its logical filename.
// It is a value type; every edit produces a new one.
type CodeUnit struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// IsBlank reports whether the content is empty or whitespace only.
func (u CodeUnit) IsBlank() bool {
	return strings.TrimSpace(u.Content) == ""
}

// SandboxUnit wraps free text in the synthetic file the sandbox endpoint expects.
func SandboxUnit(kind Kind, content string) CodeUnit {
	return CodeUnit{
		Path:    "sandbox." + kind.Extension(),
		Content: content,
	}
}

// Result is the analyzer's response. The payload belongs to the analyzer
// service, so it is kept raw; Files offers a typed view of the usual shape.
type Result struct {
	Raw json.RawMessage
}

// FileResult is one file's findings in the analyzer's usual response shape.
type FileResult struct {
	Path         string        `json:"path"`
	Comment      string        `json:"comment"`
	LineComments []LineComment `json:"line_comments"`
}

// LineComment is a finding attached to a line.
type LineComment struct {
	Line    int    `json:"line"`
	Comment string `json:"comment"`
}

// NewResult wraps a raw JSON body.
func NewResult(raw []byte) *Result {
	return &Result{Raw: append(json.RawMessage(nil), raw...)}
}

// Files decodes {"files": [...]} and reports whether the payload had that shape.
func (r *Result) Files() ([]FileResult, bool) {
	if r == nil || len(r.Raw) == 0 {
		return nil, false
	}
	var payload struct {
		Files *[]FileResult `json:"files"`
	}
	if err := json.Unmarshal(r.Raw, &payload); err != nil || payload.Files == nil {
		return nil, false
	}
	return *payload.Files, true
}

// IssueCount counts findings: line comments in the files shape, or the
// length of an "issues" array when the analyzer returns that instead.
func (r *Result) IssueCount() int {
	if files, ok := r.Files(); ok {
		n := 0
		for _, f := range files {
			n += len(f.LineComments)
		}
		return n
	}
	if r == nil {
		return 0
	}
	var payload struct {
		Issues []json.RawMessage `json:"issues"`
	}
	if err := json.Unmarshal(r.Raw, &payload); err != nil {
		return 0
	}
	return len(payload.Issues)
}

// Pretty returns the payload as indented JSON.
func (r *Result) Pretty() string {
	if r == nil || len(r.Raw) == 0 {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, r.Raw, "", "  "); err != nil {
		return string(r.Raw)
	}
	return buf.String()
}

// Equal compares payloads byte-for-byte.
func (r *Result) Equal(other *Result) bool {
	if r == nil || other == nil {
		return r == other
	}
	return bytes.Equal(r.Raw, other.Raw)
}
