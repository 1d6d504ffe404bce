package app

import (
	"context"
	"fmt"
	"io"

	"github.com/billie-coop/sift/internal/events"
	"github.com/billie-coop/sift/internal/projectstore"
	"github.com/billie-coop/sift/internal/remote"
	"github.com/billie-coop/sift/internal/session"
)

// ProjectStore is the project API the projects screen and CLI need.
type ProjectStore interface {
	projectstore.Store
	CreateFile(ctx context.Context, projectID int, path, content string) (*projectstore.File, error)
	UploadZip(ctx context.Context, projectID int, archive io.Reader) error
}

var _ ProjectStore = (*projectstore.Client)(nil)

// ProjectService wraps project CRUD and reports 401s like sessions do.
type ProjectService struct {
	store       ProjectStore
	eventBroker *events.Broker
}

// NewProjectService creates a new project service
func NewProjectService(store ProjectStore, eventBroker *events.Broker) *ProjectService {
	return &ProjectService{
		store:       store,
		eventBroker: eventBroker,
	}
}

// List returns the caller's projects.
func (s *ProjectService) List(ctx context.Context) ([]projectstore.Project, error) {
	projects, err := s.store.ListProjects(ctx)
	return projects, s.check(err)
}

// Create creates a project.
func (s *ProjectService) Create(ctx context.Context, name string) (*projectstore.Project, error) {
	project, err := s.store.CreateProject(ctx, name)
	if err != nil {
		return nil, s.check(err)
	}
	s.status(fmt.Sprintf("Created project %q", project.Name), "success")
	return project, nil
}

// Delete removes a project.
func (s *ProjectService) Delete(ctx context.Context, id int) error {
	if err := s.store.DeleteProject(ctx, id); err != nil {
		return s.check(err)
	}
	s.status(fmt.Sprintf("Deleted project %d", id), "success")
	return nil
}

// AddFile uploads one file into a project.
func (s *ProjectService) AddFile(ctx context.Context, projectID int, path, content string) (*projectstore.File, error) {
	file, err := s.store.CreateFile(ctx, projectID, path, content)
	return file, s.check(err)
}

// UploadZip unpacks an archive into a project.
func (s *ProjectService) UploadZip(ctx context.Context, projectID int, archive io.Reader) error {
	return s.check(s.store.UploadZip(ctx, projectID, archive))
}

// check publishes auth.required for rejected credentials and passes err on.
func (s *ProjectService) check(err error) error {
	if remote.IsAuth(err) {
		s.eventBroker.Publish(events.Event{
			Type:    events.AuthRequiredEvent,
			Payload: events.AuthRequiredPayload{Reason: session.AuthMessage},
		})
	}
	return err
}

func (s *ProjectService) status(message, kind string) {
	s.eventBroker.Publish(events.Event{
		Type:    events.StatusMessageEvent,
		Payload: events.StatusMessagePayload{Message: message, Type: kind},
	})
}
