package settings

import (
	"time"

	"github.com/go-go-golems/docchat/pkg/api"
	"github.com/go-go-golems/docchat/pkg/chat"
	"github.com/go-go-golems/docchat/pkg/session"
	"github.com/go-go-golems/glazed/pkg/cmds/fields"
	"github.com/go-go-golems/glazed/pkg/cmds/schema"
	"github.com/go-go-golems/glazed/pkg/cmds/values"
	"github.com/pkg/errors"
)

const (
	ConnectionSlug = "connection"
	TimersSlug     = "timers"
)

// ConnectionSettings locate the backend and carry the session token.
type ConnectionSettings struct {
	URL     string `glazed:"url"`
	BaseURL string `glazed:"base-url"`
	Timeout string `glazed:"timeout"`
}

func NewConnectionSection() (schema.Section, error) {
	return schema.NewSection(
		ConnectionSlug,
		"Backend connection",
		schema.WithFields(
			fields.New(
				"url",
				fields.TypeString,
				fields.WithHelp("Page URL of the chat, including the ?token= query parameter"),
				fields.WithShortFlag("u"),
			),
			fields.New(
				"base-url",
				fields.TypeString,
				fields.WithHelp("Override the API base URL derived from --url"),
				fields.WithDefault(""),
			),
			fields.New(
				"timeout",
				fields.TypeString,
				fields.WithHelp("HTTP request timeout (Go duration, 0 disables)"),
				fields.WithDefault("60s"),
			),
		),
	)
}

// Session resolves the token context from the page URL and the optional
// base URL override. Without a page URL the session has no token.
func (s *ConnectionSettings) Session() (session.Context, error) {
	if s.URL == "" {
		if s.BaseURL == "" {
			return session.Context{}, errors.New("--url or --base-url is required")
		}
		return session.Context{}.WithBaseURL(s.BaseURL), nil
	}
	sc, err := session.FromURL(s.URL)
	if err != nil {
		return session.Context{}, err
	}
	return sc.WithBaseURL(s.BaseURL), nil
}

// Client builds the API client for these settings.
func (s *ConnectionSettings) Client(options ...api.ClientOption) (*api.Client, session.Context, error) {
	sc, err := s.Session()
	if err != nil {
		return nil, session.Context{}, err
	}
	timeout, err := parseDuration("timeout", s.Timeout, 0)
	if err != nil {
		return nil, session.Context{}, err
	}
	options = append([]api.ClientOption{api.WithHTTPClient(api.NewHTTPClient(timeout))}, options...)
	return api.NewClient(sc, options...), sc, nil
}

// TimerSettings tune the controller's scheduled work.
type TimerSettings struct {
	WelcomeDelay      string `glazed:"welcome-delay"`
	StartupCheckDelay string `glazed:"startup-check-delay"`
	PostAskDelay      string `glazed:"post-ask-delay"`
	HealthInterval    string `glazed:"health-interval"`
}

func NewTimersSection() (schema.Section, error) {
	return schema.NewSection(
		TimersSlug,
		"Session timers",
		schema.WithFields(
			fields.New(
				"welcome-delay",
				fields.TypeString,
				fields.WithHelp("Delay before the first-visit welcome check"),
				fields.WithDefault(chat.DefaultWelcomeDelay.String()),
			),
			fields.New(
				"startup-check-delay",
				fields.TypeString,
				fields.WithHelp("Delay before the startup interaction limit check"),
				fields.WithDefault(chat.DefaultStartupCheckDelay.String()),
			),
			fields.New(
				"post-ask-delay",
				fields.TypeString,
				fields.WithHelp("Delay before re-checking the interaction limit after an answer"),
				fields.WithDefault(chat.DefaultPostAskDelay.String()),
			),
			fields.New(
				"health-interval",
				fields.TypeString,
				fields.WithHelp("Interval between health checks"),
				fields.WithDefault(chat.DefaultHealthInterval.String()),
			),
		),
	)
}

// Options converts the timer settings into controller options. Empty
// values keep the controller defaults.
func (s *TimerSettings) Options() ([]chat.Option, error) {
	welcome, err := parseDuration("welcome-delay", s.WelcomeDelay, chat.DefaultWelcomeDelay)
	if err != nil {
		return nil, err
	}
	startup, err := parseDuration("startup-check-delay", s.StartupCheckDelay, chat.DefaultStartupCheckDelay)
	if err != nil {
		return nil, err
	}
	postAsk, err := parseDuration("post-ask-delay", s.PostAskDelay, chat.DefaultPostAskDelay)
	if err != nil {
		return nil, err
	}
	health, err := parseDuration("health-interval", s.HealthInterval, chat.DefaultHealthInterval)
	if err != nil {
		return nil, err
	}
	if health <= 0 {
		return nil, errors.Errorf("health-interval must be positive, got %s", health)
	}
	return []chat.Option{
		chat.WithWelcomeDelay(welcome),
		chat.WithStartupCheckDelay(startup),
		chat.WithPostAskDelay(postAsk),
		chat.WithHealthInterval(health),
	}, nil
}

func parseDuration(name, value string, fallback time.Duration) (time.Duration, error) {
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid %s %q", name, value)
	}
	if d < 0 {
		return 0, errors.Errorf("%s must not be negative, got %s", name, value)
	}
	return d, nil
}

func DecodeConnection(parsed *values.Values) (*ConnectionSettings, error) {
	s := &ConnectionSettings{}
	if err := parsed.DecodeSectionInto(ConnectionSlug, s); err != nil {
		return nil, errors.Wrap(err, "decode connection settings")
	}
	return s, nil
}

func DecodeTimers(parsed *values.Values) (*TimerSettings, error) {
	s := &TimerSettings{}
	if err := parsed.DecodeSectionInto(TimersSlug, s); err != nil {
		return nil, errors.Wrap(err, "decode timer settings")
	}
	return s, nil
}

// Sections returns the connection and timers sections for commands that
// drive a controller.
func Sections() ([]schema.Section, error) {
	conn, err := NewConnectionSection()
	if err != nil {
		return nil, err
	}
	timers, err := NewTimersSection()
	if err != nil {
		return nil, err
	}
	return []schema.Section{conn, timers}, nil
}
