package chat

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/go-go-golems/docchat/pkg/api"
	"github.com/go-go-golems/docchat/pkg/schedule"
	"github.com/go-go-golems/docchat/pkg/session"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Backend is the subset of the question-answering API the controller uses.
// *api.Client implements it.
type Backend interface {
	TokenInfo(ctx context.Context) (*api.CustomerInfo, error)
	InteractionCount(ctx context.Context) (*api.InteractionCount, error)
	Ask(ctx context.Context, question string) (*api.AskResponse, error)
	Health(ctx context.Context) error
	Documents(ctx context.Context) ([]api.Document, error)
	FetchDocument(ctx context.Context, filename string) ([]byte, error)
	OpenDocument(ctx context.Context, filename string) (io.ReadCloser, error)
	DocumentURL(filename string) string
}

var _ Backend = (*api.Client)(nil)

const (
	DefaultWelcomeDelay      = time.Second
	DefaultStartupCheckDelay = time.Second
	DefaultPostAskDelay      = 3 * time.Second
	DefaultHealthInterval    = 30 * time.Second
)

// Controller is the session-scoped chat controller. It owns the view state;
// UI bindings read it through Snapshot whenever Updates fires.
//
// The state mutex is never held across a backend call, so concurrent
// workflows interleave only around network round trips.
type Controller struct {
	backend Backend
	token   session.Token
	sched   *schedule.Scheduler
	now     func() time.Time
	logger  zerolog.Logger

	welcomeDelay      time.Duration
	startupCheckDelay time.Duration
	postAskDelay      time.Duration
	healthInterval    time.Duration

	mu         sync.Mutex
	state      State
	overlayGen uint64

	startOnce   sync.Once
	welcomeOnce sync.Once
	updates     chan struct{}
}

type Option func(*Controller)

func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

func WithWelcomeDelay(d time.Duration) Option {
	return func(c *Controller) { c.welcomeDelay = d }
}

func WithStartupCheckDelay(d time.Duration) Option {
	return func(c *Controller) { c.startupCheckDelay = d }
}

func WithPostAskDelay(d time.Duration) Option {
	return func(c *Controller) { c.postAskDelay = d }
}

func WithHealthInterval(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.healthInterval = d
		}
	}
}

// WithContext ties the controller's timers to ctx in addition to Stop.
func WithContext(ctx context.Context) Option {
	return func(c *Controller) {
		c.sched = schedule.New(ctx)
	}
}

func New(backend Backend, token session.Token, options ...Option) *Controller {
	c := &Controller{
		backend:           backend,
		token:             token,
		now:               time.Now,
		welcomeDelay:      DefaultWelcomeDelay,
		startupCheckDelay: DefaultStartupCheckDelay,
		postAskDelay:      DefaultPostAskDelay,
		healthInterval:    DefaultHealthInterval,
		updates:           make(chan struct{}, 1),
		state: State{
			Status: HealthStatus{Text: StatusConnecting, Indicator: IndicatorUnknown},
		},
		logger: log.Logger.With().
			Str("component", "chat").
			Str("session_id", uuid.NewString()).
			Logger(),
	}
	for _, opt := range options {
		opt(c)
	}
	if c.sched == nil {
		c.sched = schedule.New(context.Background())
	}
	return c
}

// Token is the session token the controller was created with.
func (c *Controller) Token() session.Token { return c.token }

// Start runs the page initialization: a health check followed by the
// document list, the periodic health poll and, with a token, the delayed
// welcome check. The startup quota check is delayed from the end of the
// document load. Only the first call has an effect.
func (c *Controller) Start() {
	c.startOnce.Do(func() {
		c.logger.Info().
			Bool("token", c.token.Present()).
			Str("token_prefix", c.token.Redacted()).
			Msg("starting chat session")

		c.sched.Go("init", func(ctx context.Context) {
			c.CheckHealth(ctx)
			c.LoadDocuments(ctx)
			if c.token.Present() {
				c.sched.After("startup-quota", c.startupCheckDelay, func(ctx context.Context) {
					c.checkLimit(ctx, "startup")
				})
			}
		})
		c.sched.Every("health", c.healthInterval, func(ctx context.Context) {
			c.CheckHealth(ctx)
		})

		if !c.token.Present() {
			c.logger.Debug().Msg("no token, skipping welcome and quota checks")
			return
		}
		c.sched.After("welcome", c.welcomeDelay, func(ctx context.Context) {
			c.CheckFirstVisit(ctx)
		})
	})
}

// Stop cancels every timer and waits for in-flight scheduled work.
func (c *Controller) Stop() {
	c.sched.Stop()
	c.logger.Debug().Msg("chat session stopped")
}

// Updates fires after every state change. Notifications are coalesced, so a
// receiver must re-read Snapshot rather than count signals.
func (c *Controller) Updates() <-chan struct{} { return c.updates }

func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// SetInput mirrors the question input field.
func (c *Controller) SetInput(text string) {
	c.update(func(s *State) {
		s.Input = text
	})
}

func (c *Controller) update(f func(s *State)) {
	c.mu.Lock()
	f(&c.state)
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) notify() {
	select {
	case c.updates <- struct{}{}:
	default:
	}
}
