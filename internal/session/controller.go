// Package session implements the analysis session controller: the per-view
// orchestrator that decides when an analysis request fires, against which
// analyzer and for which code, and which response ends up on screen.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/zeromicro/go-zero/core/logx"

	"github.com/billie-coop/sift/internal/analyzer"
	"github.com/billie-coop/sift/internal/debounce"
	"github.com/billie-coop/sift/internal/events"
	"github.com/billie-coop/sift/internal/guard"
	"github.com/billie-coop/sift/internal/projectstore"
	"github.com/billie-coop/sift/internal/remote"
	"github.com/billie-coop/sift/internal/selection"
)

var (
	// ErrClosed is returned by entry points after Close.
	ErrClosed = errors.New("session closed")
	// ErrUnsupported is returned when an entry point does not apply to the
	// session's mode, such as editing text in a project session.
	ErrUnsupported = errors.New("operation not supported by this session")
	// ErrNoProject is returned when a project session has no project store.
	ErrNoProject = errors.New("no project store configured")
	// ErrAuthRequired is returned after the credential was rejected.
	ErrAuthRequired = errors.New("authentication required")
	// ErrNothingToAnalyze is returned by Analyze with blank text or no file selected.
	ErrNothingToAnalyze = errors.New("nothing to analyze")
)

// Deps are the collaborators a session uses. Analyzer is required; the rest
// have defaults.
type Deps struct {
	Analyzer analyzer.Client
	Projects projectstore.Store
	Broker   *events.Broker
	Clock    clockwork.Clock
	// Submitter runs outbound calls. An *ants.Pool fits.
	Submitter   guard.Submitter
	QuietPeriod time.Duration
	Kind        analyzer.Kind
}

// Controller composes the debounced trigger, the active-request guard and the
// selection synchronizer into one session.
//
// Entry points are safe to call from any goroutine and never wait on the
// network. Observers either subscribe to events.SessionStateEvent or call
// Wait.
type Controller struct {
	id        string
	mode      Mode
	projectID int

	analyzer analyzer.Client
	projects projectstore.Store
	broker   *events.Broker
	quiet    time.Duration

	trigger *debounce.Trigger
	guard   *guard.Guard[*analyzer.Result]
	sel     *selection.Synchronizer

	ctx    context.Context
	cancel context.CancelFunc
	logger logx.Logger

	// Lock order: mu, then the trigger, guard and synchronizer locks. Guard
	// and trigger callbacks run without their own locks held.
	mu         sync.Mutex
	kind       analyzer.Kind
	content    string
	pending    bool // a quiet window is open; cleared when it fires and issues
	editGen    uint64
	project    *projectstore.Project
	path       string
	loading    bool
	loadGen    uint64
	loadErr    error
	authReason string
	closed     bool
	changed    chan struct{}

	// pubMu keeps published snapshots in the order they were taken.
	pubMu sync.Mutex
}

// NewSandbox creates a free-text session.
func NewSandbox(deps Deps) (*Controller, error) {
	return newController(ModeSandbox, 0, deps)
}

// NewProjectView creates a project-file session. Call Load to fetch the
// project; path is the initial file selection and may be empty.
func NewProjectView(deps Deps, projectID int, path string) (*Controller, error) {
	if deps.Projects == nil {
		return nil, ErrNoProject
	}
	c, err := newController(ModeProject, projectID, deps)
	if err != nil {
		return nil, err
	}
	c.path = path
	return c, nil
}

func newController(mode Mode, projectID int, deps Deps) (*Controller, error) {
	if deps.Analyzer == nil {
		return nil, errors.New("session: analyzer client is required")
	}
	kind := deps.Kind
	if kind == "" {
		kind = analyzer.Python
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", analyzer.ErrUnknownKind, kind)
	}
	quiet := deps.QuietPeriod
	if quiet <= 0 {
		quiet = debounce.DefaultQuietPeriod
	}
	submitter := deps.Submitter
	if submitter == nil {
		submitter = guard.Go
	}

	id := uuid.NewString()
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		id:        id,
		mode:      mode,
		projectID: projectID,
		analyzer:  deps.Analyzer,
		projects:  deps.Projects,
		broker:    deps.Broker,
		quiet:     quiet,
		trigger:   debounce.New(deps.Clock),
		sel:       selection.NewSynchronizer(),
		ctx:       ctx,
		cancel:    cancel,
		kind:      kind,
		changed:   make(chan struct{}),
	}
	c.logger = logx.WithContext(ctx).WithFields(
		logx.Field("session", id),
		logx.Field("mode", mode.String()),
	)
	c.guard = guard.New(
		guard.WithSubmitter[*analyzer.Result](submitter),
		guard.WithAbortSuperseded[*analyzer.Result](),
		guard.OnAccept(c.accepted),
		guard.OnDrop[*analyzer.Result](c.dropped),
	)
	return c, nil
}

// ID returns the session's unique id.
func (c *Controller) ID() string { return c.id }

// Mode returns the session's mode.
func (c *Controller) Mode() Mode { return c.mode }

// ProjectID returns the project a project session was opened for.
func (c *Controller) ProjectID() int { return c.projectID }

// OnEdit records new sandbox text. Non-blank text (re)starts the quiet
// window; blank text cancels the pending window and invalidates outstanding
// requests while leaving the displayed result alone.
func (c *Controller) OnEdit(content string) error {
	if c.mode != ModeSandbox {
		return ErrUnsupported
	}

	c.mu.Lock()
	if err := c.usableLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	c.content = content
	c.scheduleLocked()
	c.mu.Unlock()

	c.publishState()
	return nil
}

// OnAnalyzerKindChange switches the analyzer. Sandbox sessions restart the
// quiet window when there is text; project sessions use the new kind from
// the next request on.
func (c *Controller) OnAnalyzerKindChange(kind analyzer.Kind) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: %q", analyzer.ErrUnknownKind, kind)
	}

	c.mu.Lock()
	if err := c.usableLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	if kind == c.kind {
		c.mu.Unlock()
		return nil
	}
	c.kind = kind
	if c.mode == ModeSandbox {
		c.scheduleLocked()
	}
	c.mu.Unlock()

	c.logger.Debugf("analyzer changed to %s", kind)
	c.publishState()
	return nil
}

// OnSelect moves the project selection to path. A different file is analyzed
// immediately; an unknown path clears the selection without analysis; the
// same file again does nothing.
func (c *Controller) OnSelect(path string) error {
	if c.mode != ModeProject {
		return ErrUnsupported
	}

	c.mu.Lock()
	if err := c.usableLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	c.path = path
	// Before the project arrives there is nothing to resolve against; Load
	// applies the stored path.
	if c.project != nil {
		c.syncSelectionLocked()
	}
	c.mu.Unlock()

	c.publishState()
	return nil
}

// Analyze re-runs the analysis right away, skipping the quiet window.
func (c *Controller) Analyze() error {
	c.mu.Lock()
	if err := c.usableLocked(); err != nil {
		c.mu.Unlock()
		return err
	}

	var err error
	switch c.mode {
	case ModeSandbox:
		c.trigger.Cancel()
		c.pending = false
		unit := analyzer.SandboxUnit(c.kind, c.content)
		if unit.IsBlank() {
			err = ErrNothingToAnalyze
			break
		}
		c.issueSandboxLocked(unit)
	case ModeProject:
		file, ok := c.sel.File()
		if !ok {
			err = ErrNothingToAnalyze
			break
		}
		c.issueFileLocked(file)
	}
	c.mu.Unlock()

	c.publishState()
	return err
}

// Load fetches the project and applies the current path. It blocks on the
// Project Store, so presentation code runs it off the UI goroutine. Calling
// it again refreshes the project; a refresh that resolves to the same file
// does not re-analyze.
func (c *Controller) Load(ctx context.Context) error {
	if c.mode != ModeProject {
		return ErrUnsupported
	}

	c.mu.Lock()
	if err := c.usableLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	c.loading = true
	c.loadErr = nil
	c.loadGen++
	gen := c.loadGen
	c.mu.Unlock()
	c.publishState()

	c.logger.Debugf("loading project %d", c.projectID)
	project, err := c.projects.GetProject(ctx, c.projectID)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if gen != c.loadGen {
		// A newer Load owns the outcome.
		c.mu.Unlock()
		return err
	}
	c.loading = false

	if err != nil {
		auth := remote.IsAuth(err)
		if auth {
			c.requireAuthLocked()
		} else {
			c.loadErr = err
		}
		c.mu.Unlock()

		if auth {
			c.logger.Infof("project %d: credential rejected", c.projectID)
		} else {
			c.logger.Errorf("failed to load project %d: %v", c.projectID, err)
		}
		c.publishState()
		return fmt.Errorf("failed to load project %d: %w", c.projectID, err)
	}

	c.project = project
	c.publish(events.ProjectLoadedEvent, events.ProjectLoadedPayload{
		SessionID: c.id,
		ProjectID: project.ID,
		Name:      project.Name,
		FileCount: len(project.Files),
	})
	c.syncSelectionLocked()
	c.mu.Unlock()

	c.publishState()
	return nil
}

// Close tears the session down. The pending window is canceled, outstanding
// requests are aborted and any response that still arrives is dropped.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.pending = false
	c.trigger.Stop()
	c.guard.Freeze()
	c.cancel()
	c.mu.Unlock()

	c.logger.Debugf("session closed")
	c.publishState()
	c.publish(events.SessionClosedEvent, events.SessionClosedPayload{SessionID: c.id})
}

// Snapshot returns the current observable state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Wait blocks until the session is settled (nothing pending, nothing in
// flight, not loading) and returns that snapshot.
func (c *Controller) Wait(ctx context.Context) (Snapshot, error) {
	for {
		c.mu.Lock()
		snap := c.snapshotLocked()
		changed := c.changed
		c.mu.Unlock()

		if snap.Closed || (snap.State.Settled() && !snap.Loading) {
			return snap, nil
		}
		select {
		case <-changed:
		case <-ctx.Done():
			return snap, ctx.Err()
		}
	}
}

func (c *Controller) snapshotLocked() Snapshot {
	snap := Snapshot{
		ID:      c.id,
		Mode:    c.mode,
		Kind:    c.kind,
		Content: c.content,
		Project: c.project,
		Loading: c.loading,
		Closed:  c.closed,
	}
	if file, ok := c.sel.File(); ok {
		snap.Selected = &file
	}

	outcome, shown := c.guard.Current()
	if shown {
		snap.Seq = uint64(outcome.Seq)
		snap.Result = outcome.Value
		snap.Err = outcome.Err
	}

	switch {
	case c.authReason != "":
		snap.State = AuthRequired
		snap.Message = c.authReason
		snap.Result = nil
	case c.closed:
		snap.State = Idle
	case c.pending:
		snap.State = PendingDebounce
	case c.guard.InFlight():
		snap.State = RequestInFlight
	case shown && outcome.Err != nil:
		snap.State = Failed
		snap.Message = FailureMessage
	case shown:
		snap.State = ResultShown
	case c.loadErr != nil:
		snap.State = Failed
		snap.Err = c.loadErr
		snap.Message = "Failed to load project."
	default:
		snap.State = Idle
	}
	return snap
}

func (c *Controller) usableLocked() error {
	if c.closed {
		return ErrClosed
	}
	if c.authReason != "" {
		return ErrAuthRequired
	}
	return nil
}

// requireAuthLocked makes the session terminal until the user logs in again.
func (c *Controller) requireAuthLocked() {
	if c.authReason != "" {
		return
	}
	c.authReason = AuthMessage
	c.pending = false
	c.trigger.Cancel()
	c.guard.Supersede()
	c.publish(events.AuthRequiredEvent, events.AuthRequiredPayload{SessionID: c.id, Reason: AuthMessage})
}

// scheduleLocked invalidates outstanding requests for the old text and
// starts a new quiet window unless the text is blank.
func (c *Controller) scheduleLocked() {
	c.guard.Supersede()
	if analyzer.SandboxUnit(c.kind, c.content).IsBlank() {
		c.trigger.Cancel()
		c.pending = false
		return
	}
	c.editGen++
	gen := c.editGen
	c.pending = c.trigger.Schedule(func() { c.fire(gen) }, c.quiet)
}

// fire runs when the quiet window elapses. It reads the text at that moment.
func (c *Controller) fire(gen uint64) {
	c.mu.Lock()
	if !c.pending || gen != c.editGen || c.usableLocked() != nil {
		c.mu.Unlock()
		return
	}
	c.pending = false
	if unit := analyzer.SandboxUnit(c.kind, c.content); !unit.IsBlank() {
		c.issueSandboxLocked(unit)
	}
	c.mu.Unlock()

	c.publishState()
}

// syncSelectionLocked runs the synchronizer on (project, path) and reacts to
// its verdict.
func (c *Controller) syncSelectionLocked() {
	change := c.sel.Sync(c.project, c.path)
	switch change.Kind {
	case selection.Selected:
		c.guard.Reset()
		c.publish(events.SelectionChangedEvent, events.SelectionPayload{
			SessionID: c.id,
			ProjectID: change.State.ProjectID,
			Path:      change.File.Path,
		})
		c.issueFileLocked(change.File)
	case selection.Cleared:
		c.guard.Reset()
		c.publish(events.SelectionClearedEvent, events.SelectionPayload{
			SessionID: c.id,
			ProjectID: change.State.ProjectID,
		})
	}
}

func (c *Controller) issueSandboxLocked(unit analyzer.CodeUnit) {
	kind := c.kind
	units := []analyzer.CodeUnit{unit}
	c.issueLocked(unit.Path, func(ctx context.Context) (*analyzer.Result, error) {
		return c.analyzer.Analyze(ctx, kind, units)
	})
}

func (c *Controller) issueFileLocked(file projectstore.File) {
	kind := c.kind
	c.issueLocked(file.Path, func(ctx context.Context) (*analyzer.Result, error) {
		return c.analyzer.AnalyzeFile(ctx, file.ProjectID, file.ID, kind)
	})
}

func (c *Controller) issueLocked(path string, req func(context.Context) (*analyzer.Result, error)) {
	seq, err := c.guard.Issue(c.ctx, req)
	if err != nil {
		c.logger.Debugf("not analyzing %s: %v", path, err)
		return
	}
	c.logger.WithFields(logx.Field("seq", uint64(seq))).Infof("analyzing %s with %s", path, c.kind)
}

// accepted runs on the worker that resolved the newest request.
func (c *Controller) accepted(outcome guard.Outcome[*analyzer.Result]) {
	logger := c.logger.WithFields(logx.Field("seq", uint64(outcome.Seq)))
	switch {
	case remote.IsAuth(outcome.Err):
		logger.Infof("analysis rejected: credential required")
		c.mu.Lock()
		c.requireAuthLocked()
		c.mu.Unlock()
	case outcome.Err != nil:
		logger.Errorf("analysis failed: %v", outcome.Err)
	default:
		logger.Debugf("analysis accepted")
	}
	c.publishState()
}

func (c *Controller) dropped(seq, latest guard.Ticket) {
	c.logger.Debugf("dropping stale response %d (latest %d)", seq, latest)
	c.publish(events.AnalysisDroppedEvent, events.AnalysisDroppedPayload{
		SessionID: c.id,
		Seq:       uint64(seq),
		Latest:    uint64(latest),
	})
}

// publishState wakes Wait callers and broadcasts a fresh snapshot.
func (c *Controller) publishState() {
	c.pubMu.Lock()
	defer c.pubMu.Unlock()

	c.mu.Lock()
	snap := c.snapshotLocked()
	close(c.changed)
	c.changed = make(chan struct{})
	c.mu.Unlock()

	c.publish(events.SessionStateEvent, StatePayload{Snapshot: snap})
}

func (c *Controller) publish(eventType events.EventType, payload any) {
	if c.broker == nil {
		return
	}
	c.broker.Publish(events.Event{Type: eventType, Payload: payload})
}
