package projectstore

import (
	"time"

	"github.com/billie-coop/sift/internal/analyzer"
)

// Project is a read-only snapshot of a stored project.
type Project struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	UserID    int       `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Files     []File    `json:"files"`
}

// File is one stored source file.
type File struct {
	ID        int    `json:"id"`
	ProjectID int    `json:"project_id"`
	Path      string `json:"path"`
	Content   string `json:"content"`
}

// Unit returns the file as an analyzer code unit.
func (f File) Unit() analyzer.CodeUnit {
	return analyzer.CodeUnit{Path: f.Path, Content: f.Content}
}

// FindFile returns the file whose path equals path exactly.
func (p *Project) FindFile(path string) (File, bool) {
	if p == nil {
		return File{}, false
	}
	for _, f := range p.Files {
		if f.Path == path {
			return f, true
		}
	}
	return File{}, false
}

// Paths lists file paths in store order.
func (p *Project) Paths() []string {
	if p == nil {
		return nil
	}
	paths := make([]string, 0, len(p.Files))
	for _, f := range p.Files {
		paths = append(paths, f.Path)
	}
	return paths
}
