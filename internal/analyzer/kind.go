package analyzer

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Kind selects which remote analyzer backend handles a request.
type Kind string

const (
	Python     Kind = "python"
	JavaScript Kind = "javascript"
	Java       Kind = "java"
	Cpp        Kind = "cpp"
	CSharp     Kind = "csharp"
	JSON       Kind = "json"
)

// ErrUnknownKind is returned by ParseKind for names outside the closed set.
var ErrUnknownKind = errors.New("unknown analyzer")

var kinds = []Kind{Python, JavaScript, Java, Cpp, CSharp, JSON}

var extensions = map[Kind]string{
	Python:     "py",
	JavaScript: "js",
	Java:       "java",
	Cpp:        "cpp",
	CSharp:     "cs",
	JSON:       "json",
}

var labels = map[Kind]string{
	Python:     "Python",
	JavaScript: "JavaScript",
	Java:       "Java",
	Cpp:        "C++",
	CSharp:     "C#",
	JSON:       "JSON",
}

var byExtension = map[string]Kind{
	".py":   Python,
	".js":   JavaScript,
	".jsx":  JavaScript,
	".mjs":  JavaScript,
	".cjs":  JavaScript,
	".java": Java,
	".cpp":  Cpp,
	".cc":   Cpp,
	".cxx":  Cpp,
	".hpp":  Cpp,
	".h":    Cpp,
	".cs":   CSharp,
	".json": JSON,
}

// Kinds returns every supported analyzer in display order.
func Kinds() []Kind {
	out := make([]Kind, len(kinds))
	copy(out, kinds)
	return out
}

// ParseKind accepts a kind name case-insensitively.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := extensions[k]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
	return k, nil
}

// Valid reports whether k is one of the supported analyzers.
func (k Kind) Valid() bool {
	_, ok := extensions[k]
	return ok
}

// Extension is the file extension (no dot) used for synthetic sandbox files.
func (k Kind) Extension() string {
	if ext, ok := extensions[k]; ok {
		return ext
	}
	return "txt"
}

// Label is the human-readable analyzer name.
func (k Kind) Label() string {
	if label, ok := labels[k]; ok {
		return label
	}
	return string(k)
}

// Next cycles through Kinds; used by the analyzer selector.
func (k Kind) Next() Kind {
	for i, candidate := range kinds {
		if candidate == k {
			return kinds[(i+1)%len(kinds)]
		}
	}
	return kinds[0]
}

// KindForPath infers the analyzer from a file extension.
func KindForPath(path string) (Kind, bool) {
	k, ok := byExtension[strings.ToLower(filepath.Ext(path))]
	return k, ok
}
