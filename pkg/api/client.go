package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/go-go-golems/docchat/pkg/session"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	PathTokenInfo        = "/api/token/info"
	PathInteractionCount = "/api/interactions/count"
	PathAsk              = "/api/ask"
	PathHealth           = "/api/health"
	PathDocuments        = "/api/documents"
	PathData             = "/data/"
)

// maxErrorBody bounds how much of an error response is read for `detail`.
const maxErrorBody = 64 << 10

// Client talks to the question-answering backend. Token-aware endpoints get
// the session token as a query parameter when one is present.
type Client struct {
	baseURL    string
	token      session.Token
	httpClient *http.Client
	logger     zerolog.Logger
}

type ClientOption func(*Client)

func WithHTTPClient(c *http.Client) ClientOption {
	return func(client *Client) {
		if c != nil {
			client.httpClient = c
		}
	}
}

func WithLogger(logger zerolog.Logger) ClientOption {
	return func(client *Client) {
		client.logger = logger
	}
}

// NewHTTPClient returns an http.Client with a request timeout and a modest
// idle connection pool.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 4,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

func NewClient(sc session.Context, options ...ClientOption) *Client {
	c := &Client{
		baseURL:    sc.BaseURL,
		token:      sc.Token,
		httpClient: NewHTTPClient(30 * time.Second),
		logger:     log.Logger.With().Str("component", "api").Logger(),
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string { return c.baseURL }

// DocumentURL is the absolute URL of a knowledge-base file.
func (c *Client) DocumentURL(filename string) string {
	return c.baseURL + PathData + url.PathEscape(filename)
}

func (c *Client) TokenInfo(ctx context.Context) (*CustomerInfo, error) {
	info := &CustomerInfo{}
	if err := c.getJSON(ctx, PathTokenInfo, true, info); err != nil {
		return nil, err
	}
	return info, nil
}

func (c *Client) InteractionCount(ctx context.Context) (*InteractionCount, error) {
	count := &InteractionCount{}
	if err := c.getJSON(ctx, PathInteractionCount, true, count); err != nil {
		return nil, err
	}
	return count, nil
}

func (c *Client) Ask(ctx context.Context, question string) (*AskResponse, error) {
	body, err := json.Marshal(AskRequest{Question: question})
	if err != nil {
		return nil, errors.Wrap(err, "encode ask request")
	}
	req, err := c.newRequest(ctx, http.MethodPost, PathAsk, true, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp := &AskResponse{}
	if err := c.doJSON(req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Health only looks at the status code.
func (c *Client) Health(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodGet, PathHealth, false, nil)
	if err != nil {
		return err
	}
	res, err := c.do(req)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	_, _ = io.Copy(io.Discard, res.Body)
	return nil
}

func (c *Client) Documents(ctx context.Context) ([]Document, error) {
	list := &DocumentList{}
	if err := c.getJSON(ctx, PathDocuments, false, list); err != nil {
		return nil, err
	}
	return list.Documents, nil
}

// OpenDocument streams the raw file. The caller closes the reader.
func (c *Client) OpenDocument(ctx context.Context, filename string) (io.ReadCloser, error) {
	if filename == "" {
		return nil, errors.New("filename is required")
	}
	req, err := c.newRequest(ctx, http.MethodGet, PathData+url.PathEscape(filename), false, nil)
	if err != nil {
		return nil, err
	}
	res, err := c.do(req)
	if err != nil {
		return nil, err
	}
	return res.Body, nil
}

func (c *Client) FetchDocument(ctx context.Context, filename string) ([]byte, error) {
	body, err := c.OpenDocument(ctx, filename)
	if err != nil {
		return nil, err
	}
	defer func() { _ = body.Close() }()
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, errors.Wrapf(err, "read document %s", filename)
	}
	return data, nil
}

func (c *Client) getJSON(ctx context.Context, path string, withToken bool, v interface{}) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, withToken, nil)
	if err != nil {
		return err
	}
	return c.doJSON(req, v)
}

func (c *Client) newRequest(ctx context.Context, method, path string, withToken bool, body io.Reader) (*http.Request, error) {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return nil, errors.Wrapf(err, "build url for %s", path)
	}
	if withToken && c.token.Present() {
		q := u.Query()
		q.Set(session.TokenParam, c.token.Value())
		u.RawQuery = q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, errors.Wrapf(err, "create %s %s request", method, path)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// do sends req and converts non-2xx responses into *HTTPError. On success the
// response body is left open for the caller.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	path := req.URL.Path
	start := time.Now()
	res, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug().Err(err).Str("method", req.Method).Str("path", path).Msg("request failed")
		return nil, errors.Wrapf(err, "%s %s", req.Method, path)
	}
	c.logger.Debug().
		Str("method", req.Method).
		Str("path", path).
		Int("status", res.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("request done")

	if res.StatusCode < 200 || res.StatusCode > 299 {
		defer func() { _ = res.Body.Close() }()
		body, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		return nil, &HTTPError{
			Method:     req.Method,
			Path:       path,
			StatusCode: res.StatusCode,
			Detail:     parseDetail(body),
		}
	}
	return res, nil
}

func (c *Client) doJSON(req *http.Request, v interface{}) error {
	res, err := c.do(req)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if err := json.NewDecoder(res.Body).Decode(v); err != nil {
		return errors.Wrapf(err, "decode %s response", req.URL.Path)
	}
	return nil
}
