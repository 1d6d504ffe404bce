package app

import (
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/panjf2000/ants/v2"
	"github.com/zeromicro/go-zero/core/logx"

	"github.com/billie-coop/sift/internal/analyzer"
	"github.com/billie-coop/sift/internal/config"
	"github.com/billie-coop/sift/internal/credential"
	"github.com/billie-coop/sift/internal/events"
	"github.com/billie-coop/sift/internal/identity"
	"github.com/billie-coop/sift/internal/projectstore"
	"github.com/billie-coop/sift/internal/remote"
	"github.com/billie-coop/sift/internal/session"
)

// App holds all the core services and business logic
type App struct {
	Config     *config.Manager
	Credential *credential.Store
	Remote     *remote.Client

	// Clients
	Analyzer analyzer.Client
	Projects *projectstore.Client

	// Services
	Sessions       *session.Registry
	AuthService    *AuthService
	ProjectService *ProjectService

	// Event system
	EventBroker *events.Broker

	pool *ants.Pool
}

// Option customizes New.
type Option func(*options)

type options struct {
	clock    clockwork.Clock
	analyzer analyzer.Client
}

// WithClock drives debounce timers and token expiry checks from clock.
func WithClock(clock clockwork.Clock) Option {
	return func(o *options) {
		o.clock = clock
	}
}

// WithAnalyzer replaces the HTTP analyzer client.
func WithAnalyzer(client analyzer.Client) Option {
	return func(o *options) {
		o.analyzer = client
	}
}

// New creates a new app with all services initialized. cfg must already be
// loaded.
func New(cfg *config.Manager, eventBroker *events.Broker, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if eventBroker == nil {
		eventBroker = events.NewBroker()
	}
	if o.clock == nil {
		o.clock = clockwork.NewRealClock()
	}

	c := cfg.Get()

	pool, err := ants.NewPool(c.Workers, ants.WithPanicHandler(func(p any) {
		logx.Errorf("analysis worker panicked: %v", p)
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}

	app := &App{
		Config:      cfg,
		Credential:  credential.NewStore(c.Token),
		EventBroker: eventBroker,
		pool:        pool,
	}

	app.Remote = remote.New(c.APIURL,
		remote.WithTimeout(c.RequestTimeout()),
		remote.WithCredential(app.Credential),
	)
	app.Analyzer = o.analyzer
	if app.Analyzer == nil {
		app.Analyzer = analyzer.NewHTTPClient(app.Remote)
	}
	app.Projects = projectstore.NewClient(app.Remote)
	logx.Infof("using analysis service at %s", app.Remote.BaseURL())

	app.Sessions = session.NewRegistry(session.Deps{
		Analyzer:    app.Analyzer,
		Projects:    app.Projects,
		Broker:      eventBroker,
		Clock:       o.clock,
		Submitter:   pool,
		QuietPeriod: c.QuietPeriod(),
		Kind:        c.Kind(),
	})

	app.AuthService = NewAuthService(identity.NewClient(app.Remote), app.Credential, eventBroker, o.clock)
	app.ProjectService = NewProjectService(app.Projects, eventBroker)

	// The core never persists; the app keeps the token across runs.
	app.Credential.OnChange(func(token string) {
		if err := cfg.SetToken(token); err != nil {
			logx.Errorf("failed to persist credential: %v", err)
		}
	})

	return app, nil
}

// Notify publishes a status line for the UI.
func (a *App) Notify(message, kind string) {
	a.EventBroker.Publish(events.Event{
		Type:    events.StatusMessageEvent,
		Payload: events.StatusMessagePayload{Message: message, Type: kind},
	})
}

// Close tears down every session and stops the worker pool.
func (a *App) Close() {
	a.Sessions.CloseAll()
	a.pool.Release()
}
