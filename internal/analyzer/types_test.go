package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSandboxUnit(t *testing.T) {
	unit := SandboxUnit(CSharp, "class A {}")
	assert.Equal(t, CodeUnit{Path: "sandbox.cs", Content: "class A {}"}, unit)
	assert.False(t, unit.IsBlank())
	assert.True(t, SandboxUnit(Python, " \n\t").IsBlank())
}

func TestResult_Files(t *testing.T) {
	r := NewResult([]byte(`{"files":[{"path":"a.py","comment":"ok","line_comments":[{"line":3,"comment":"unused"},{"line":9,"comment":"shadowed"}]}]}`))

	files, ok := r.Files()
	require.True(t, ok)
	require.Len(t, files, 1)
	assert.Equal(t, "a.py", files[0].Path)
	assert.Equal(t, LineComment{Line: 3, Comment: "unused"}, files[0].LineComments[0])
	assert.Equal(t, 2, r.IssueCount())
}

func TestResult_IssuesShape(t *testing.T) {
	r := NewResult([]byte(`{"issues": [{"line": 1}, {"line": 2}, {"line": 3}]}`))
	_, ok := r.Files()
	assert.False(t, ok)
	assert.Equal(t, 3, r.IssueCount())

	assert.Equal(t, 0, NewResult([]byte(`{"issues": []}`)).IssueCount())
	assert.Equal(t, 0, NewResult([]byte(`[1, 2]`)).IssueCount())

	var nilResult *Result
	assert.Equal(t, 0, nilResult.IssueCount())
}

func TestResult_PrettyAndEqual(t *testing.T) {
	r := NewResult([]byte(`{"issues":[]}`))
	assert.Equal(t, "{\n  \"issues\": []\n}", r.Pretty())

	var nilResult *Result
	assert.Empty(t, nilResult.Pretty())

	assert.True(t, r.Equal(NewResult([]byte(`{"issues":[]}`))))
	assert.False(t, r.Equal(NewResult([]byte(`{"issues":[1]}`))))
	assert.False(t, r.Equal(nil))
	assert.True(t, nilResult.Equal(nil))
}

func TestNewResult_CopiesInput(t *testing.T) {
	raw := []byte(`{"a":1}`)
	r := NewResult(raw)
	raw[2] = 'b'
	assert.JSONEq(t, `{"a":1}`, string(r.Raw))
}
