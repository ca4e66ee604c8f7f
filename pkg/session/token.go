package session

import (
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

// TokenParam is the query parameter carrying the session token.
const TokenParam = "token"

// Token is the opaque session identifier read from the page URL. The zero
// value is an absent token.
type Token struct {
	value string
}

func NewToken(value string) Token {
	return Token{value: value}
}

func (t Token) Value() string { return t.value }

func (t Token) Present() bool { return t.value != "" }

// Redacted returns a form of the token that is safe to log.
func (t Token) Redacted() string {
	if t.value == "" {
		return ""
	}
	if len(t.value) <= 4 {
		return "…"
	}
	return t.value[:4] + "…"
}

// Context is the immutable, read-only session context derived once from the
// URL the user was given.
type Context struct {
	BaseURL string
	Token   Token
}

// FromURL parses rawURL once. The backend base URL is the scheme and host of
// rawURL; the token is the first `token` query value, if any. A missing token
// is not an error.
func FromURL(rawURL string) (Context, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return Context{}, errors.New("url is required")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return Context{}, errors.Wrapf(err, "parse url %q", rawURL)
	}
	if u.Scheme == "" || u.Host == "" {
		return Context{}, errors.Errorf("url %q must be absolute", rawURL)
	}

	return Context{
		BaseURL: u.Scheme + "://" + u.Host,
		Token:   NewToken(u.Query().Get(TokenParam)),
	}, nil
}

// WithBaseURL returns a copy of c pointing at a different backend.
func (c Context) WithBaseURL(baseURL string) Context {
	if baseURL == "" {
		return c
	}
	c.BaseURL = strings.TrimRight(baseURL, "/")
	return c
}
