package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/billie-coop/sift/internal/projectstore"
)

func project(id int, files ...projectstore.File) *projectstore.Project {
	return &projectstore.Project{ID: id, Name: "p", Files: files}
}

var (
	fileA = projectstore.File{ID: 1, ProjectID: 7, Path: "a.py", Content: "a = 1"}
	fileB = projectstore.File{ID: 2, ProjectID: 7, Path: "src/b.py", Content: "b = 2"}
)

func TestSynchronizer_SelectsMatchingFile(t *testing.T) {
	s := NewSynchronizer()

	change := s.Sync(project(7, fileA, fileB), "src/b.py")
	assert.Equal(t, Selected, change.Kind)
	assert.Equal(t, fileB, change.File)
	assert.Equal(t, State{ProjectID: 7, Path: "src/b.py"}, change.State)

	file, ok := s.File()
	require.True(t, ok)
	assert.Equal(t, fileB, file)
	assert.True(t, change.State.HasFile())
}

func TestSynchronizer_NoDuplicateOnSameInputs(t *testing.T) {
	s := NewSynchronizer()
	p := project(7, fileA, fileB)

	require.Equal(t, Selected, s.Sync(p, "a.py").Kind)
	assert.Equal(t, Unchanged, s.Sync(p, "a.py").Kind)
}

func TestSynchronizer_NewProjectReferenceSameFile(t *testing.T) {
	s := NewSynchronizer()

	require.Equal(t, Selected, s.Sync(project(7, fileA, fileB), "a.py").Kind)
	// A refetch returns an equal project under a new pointer.
	assert.Equal(t, Unchanged, s.Sync(project(7, fileA, fileB), "a.py").Kind)
}

func TestSynchronizer_ChangedContentReselects(t *testing.T) {
	s := NewSynchronizer()
	require.Equal(t, Selected, s.Sync(project(7, fileA), "a.py").Kind)

	edited := fileA
	edited.Content = "a = 2"
	change := s.Sync(project(7, edited), "a.py")
	assert.Equal(t, Selected, change.Kind)
	assert.Equal(t, "a = 2", change.File.Content)
}

func TestSynchronizer_UnmatchedPath(t *testing.T) {
	tests := []struct {
		name     string
		previous string
		want     ChangeKind
	}{
		{name: "nothing selected before", previous: "", want: Unchanged},
		{name: "clears previous selection", previous: "a.py", want: Cleared},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSynchronizer()
			p := project(7, fileA, fileB)
			s.Sync(p, tt.previous)

			change := s.Sync(p, "missing.py")
			assert.Equal(t, tt.want, change.Kind)
			assert.False(t, change.State.HasFile())
			_, ok := s.File()
			assert.False(t, ok)
		})
	}
}

func TestSynchronizer_NilProject(t *testing.T) {
	s := NewSynchronizer()
	change := s.Sync(nil, "a.py")
	assert.Equal(t, Unchanged, change.Kind)
	assert.Equal(t, State{}, change.State)
}

func TestSynchronizer_ProjectChangeWithSamePath(t *testing.T) {
	s := NewSynchronizer()
	require.Equal(t, Selected, s.Sync(project(7, fileA), "a.py").Kind)

	other := projectstore.File{ID: 9, ProjectID: 8, Path: "a.py", Content: "a = 1"}
	change := s.Sync(project(8, other), "a.py")
	assert.Equal(t, Selected, change.Kind)
	assert.Equal(t, 8, change.State.ProjectID)
}

func TestSynchronizer_Reset(t *testing.T) {
	s := NewSynchronizer()
	p := project(7, fileA)
	require.Equal(t, Selected, s.Sync(p, "a.py").Kind)

	s.Reset()
	_, ok := s.File()
	assert.False(t, ok)
	assert.Equal(t, Selected, s.Sync(p, "a.py").Kind)
}

func TestChangeKind_String(t *testing.T) {
	assert.Equal(t, "selected", Selected.String())
	assert.Equal(t, "cleared", Cleared.String())
	assert.Equal(t, "unchanged", Unchanged.String())
}
