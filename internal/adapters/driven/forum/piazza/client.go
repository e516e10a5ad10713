// Package piazza implements driven.ForumClient against Piazza's JSON-RPC
// endpoint using a cookie-backed session.
package piazza

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sethvargo/go-retry"

	"github.com/custodia-labs/tutorbot/internal/core/domain"
	"github.com/custodia-labs/tutorbot/internal/core/ports/driven"
	"github.com/custodia-labs/tutorbot/internal/logger"
)

// Ensure Client implements the interface.
var _ driven.ForumClient = (*Client)(nil)

// Default configuration values.
const (
	DefaultBaseURL      = domain.DefaultForumURL
	DefaultTimeout      = 30 * time.Second
	DefaultPageSize     = 100
	DefaultLoginRetries = 3
	DefaultLoginBackoff = time.Second
)

// RPC method names.
const (
	methodLogin      = "user.login"
	methodFilterFeed = "network.filter_feed"
	methodMyFeed     = "network.get_my_feed"
	methodGetContent = "content.get"
	methodAnswer     = "content.answer"
	methodCreate     = "content.create"
)

// sessionCookie carries the session id that doubles as the CSRF token.
const sessionCookie = "session_id"

var csrfPattern = regexp.MustCompile(`CSRF_TOKEN\s*=\s*"([^"]+)"`)

// Config holds the account and course the bot acts for.
type Config struct {
	// BaseURL is the JSON-RPC endpoint (default: https://piazza.com/logic/api).
	BaseURL string

	Email     string
	Password  string
	NetworkID string

	// RequestsPerSecond caps the call rate (default: 1).
	RequestsPerSecond float64

	// Timeout is the per-request timeout (default: 30s).
	Timeout time.Duration

	// PageSize is the number of entries per page when listing all posts.
	PageSize int

	// LoginRetries is the number of extra login attempts on transient failures.
	LoginRetries int

	// LoginBackoff is the initial backoff between login attempts.
	LoginBackoff time.Duration
}

// Client talks to one Piazza course.
type Client struct {
	http      *resty.Client
	jar       http.CookieJar
	apiURL    *url.URL
	limiter   *RateLimiter
	email     string
	password  string
	networkID string
	pageSize  int
	retries   uint64
	backoff   time.Duration

	mu       sync.RWMutex
	csrf     string
	loggedIn bool
}

// NewClient creates a Piazza client. No network calls are made until Login.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Email == "" || cfg.Password == "" || cfg.NetworkID == "" {
		return nil, fmt.Errorf("%w: piazza email, password and network id are required", domain.ErrInvalidConfig)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.RequestsPerSecond == 0 {
		cfg.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.LoginRetries == 0 {
		cfg.LoginRetries = DefaultLoginRetries
	}
	if cfg.LoginRetries < 0 {
		cfg.LoginRetries = 0
	}
	if cfg.LoginBackoff == 0 {
		cfg.LoginBackoff = DefaultLoginBackoff
	}

	apiURL, err := url.Parse(cfg.BaseURL)
	if err != nil || !apiURL.IsAbs() {
		return nil, fmt.Errorf("%w: invalid piazza base url %q", domain.ErrInvalidConfig, cfg.BaseURL)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}

	httpClient := resty.New().
		SetCookieJar(jar).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{
		http:      httpClient,
		jar:       jar,
		apiURL:    apiURL,
		limiter:   NewRateLimiter(cfg.RequestsPerSecond),
		email:     cfg.Email,
		password:  cfg.Password,
		networkID: cfg.NetworkID,
		pageSize:  cfg.PageSize,
		retries:   uint64(cfg.LoginRetries),
		backoff:   cfg.LoginBackoff,
	}, nil
}

// Login fetches a CSRF token and authenticates, retrying transient failures.
func (c *Client) Login(ctx context.Context) error {
	backoff := retry.WithMaxRetries(c.retries, retry.NewExponential(c.backoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := c.login(ctx)
		if err != nil && transient(err) {
			logger.Warn("piazza login failed, retrying: %v", err)
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("piazza login: %w", err)
	}
	logger.Info("Logged in to Piazza as %s", c.email)
	return nil
}

func (c *Client) login(ctx context.Context) error {
	// The token page is optional; older deployments accept login without it.
	if token, err := c.fetchCSRFToken(ctx); err == nil {
		c.setCSRF(token)
	} else {
		logger.Debug("piazza csrf token unavailable: %v", err)
	}

	if _, err := c.call(ctx, methodLogin, map[string]any{
		"email": c.email,
		"pass":  c.password,
	}); err != nil {
		return err
	}

	if token := c.cookie(sessionCookie); token != "" {
		c.setCSRF(token)
	}
	c.mu.Lock()
	c.loggedIn = true
	c.mu.Unlock()
	return nil
}

func (c *Client) fetchCSRFToken(ctx context.Context) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}
	tokenURL := *c.apiURL
	tokenURL.Path = "/main/csrf_token"
	tokenURL.RawQuery = ""

	resp, err := c.http.R().SetContext(ctx).Get(tokenURL.String())
	if err != nil {
		return "", err
	}
	if resp.IsError() {
		return "", fmt.Errorf("status %d", resp.StatusCode())
	}
	m := csrfPattern.FindSubmatch(resp.Body())
	if m == nil {
		return "", errors.New("no CSRF_TOKEN in response")
	}
	return string(m[1]), nil
}

// ListUnread returns the unread entries of the course feed.
func (c *Client) ListUnread(ctx context.Context) ([]domain.FeedItem, error) {
	var feed feedResult
	if err := c.callInto(ctx, methodFilterFeed, map[string]any{
		"nid":    c.networkID,
		"unread": true,
	}, &feed); err != nil {
		return nil, err
	}
	return feed.toDomain(), nil
}

// ListAll pages through the full course feed.
func (c *Client) ListAll(ctx context.Context) ([]domain.FeedItem, error) {
	var all []domain.FeedItem
	seen := make(map[string]bool)

	for offset := 0; ; offset += c.pageSize {
		var feed feedResult
		if err := c.callInto(ctx, methodMyFeed, map[string]any{
			"nid":    c.networkID,
			"limit":  c.pageSize,
			"offset": offset,
		}, &feed); err != nil {
			return nil, err
		}

		for _, item := range feed.toDomain() {
			if seen[item.ID] {
				continue
			}
			seen[item.ID] = true
			all = append(all, item)
		}
		if len(feed.Feed) < c.pageSize {
			return all, nil
		}
	}
}

// FetchPost returns the full post with its children.
func (c *Client) FetchPost(ctx context.Context, postID string) (*domain.Post, error) {
	result, err := c.call(ctx, methodGetContent, map[string]any{
		"cid": postID,
		"nid": c.networkID,
	})
	if err != nil {
		return nil, err
	}
	if len(result) == 0 || string(result) == "null" {
		return nil, fmt.Errorf("post %s: %w", postID, domain.ErrNotFound)
	}

	var raw rawPost
	if err := json.Unmarshal(result, &raw); err != nil {
		return nil, fmt.Errorf("piazza: decoding post %s: %w", postID, err)
	}
	if raw.ID == "" {
		return nil, fmt.Errorf("post %s: %w", postID, domain.ErrNotFound)
	}
	return raw.toDomain(), nil
}

// PostInstructorAnswer submits the instructor answer of a question.
func (c *Client) PostInstructorAnswer(ctx context.Context, postID, text string) error {
	_, err := c.call(ctx, methodAnswer, map[string]any{
		"cid":       postID,
		"type":      string(domain.ChildInstructorAnswer),
		"content":   text,
		"revision":  0,
		"anonymous": "no",
	})
	return err
}

// PostFollowup adds a follow-up discussion; Piazza stores its text as the subject.
func (c *Client) PostFollowup(ctx context.Context, postID, text string) error {
	_, err := c.call(ctx, methodCreate, map[string]any{
		"cid":       postID,
		"type":      string(domain.ChildFollowup),
		"subject":   text,
		"content":   "",
		"anonymous": "no",
	})
	return err
}

func (c *Client) callInto(ctx context.Context, method string, params map[string]any, out any) error {
	result, err := c.call(ctx, method, params)
	if err != nil {
		return err
	}
	if len(result) == 0 || string(result) == "null" {
		return nil
	}
	if err := json.Unmarshal(result, out); err != nil {
		return fmt.Errorf("piazza: decoding %s result: %w", method, err)
	}
	return nil
}

// call performs one rate-limited JSON-RPC request and returns the raw result.
func (c *Client) call(ctx context.Context, method string, params map[string]any) (json.RawMessage, error) {
	if method != methodLogin && !c.isLoggedIn() {
		return nil, fmt.Errorf("piazza: %s: %w", method, domain.ErrAuthRequired)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req := c.http.R().
		SetContext(ctx).
		SetQueryParam("method", method).
		SetBody(rpcRequest{Method: method, Params: params})
	if token := c.csrfToken(); token != "" {
		req.SetHeader("CSRF-Token", token)
	}

	resp, err := req.Post(c.apiURL.String())
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("piazza: %s: %w: %w", method, domain.ErrProviderUnreachable, err)
	}
	if resp.StatusCode() == http.StatusTooManyRequests {
		c.limiter.RecordRateLimitError(retryAfter(resp.Header().Get("Retry-After")))
	}
	if resp.IsError() {
		return nil, &StatusError{Method: method, StatusCode: resp.StatusCode(), Body: resp.String()}
	}

	var envelope rpcResponse
	if err := json.Unmarshal(resp.Body(), &envelope); err != nil {
		return nil, fmt.Errorf("piazza: %s: decoding response: %w", method, err)
	}
	if envelope.Error != nil && *envelope.Error != "" {
		return nil, &APIError{Method: method, Message: *envelope.Error}
	}
	return envelope.Result, nil
}

func (c *Client) isLoggedIn() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loggedIn
}

func (c *Client) csrfToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.csrf
}

func (c *Client) setCSRF(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.csrf = token
}

func (c *Client) cookie(name string) string {
	for _, ck := range c.jar.Cookies(c.apiURL) {
		if ck.Name == name {
			return ck.Value
		}
	}
	return ""
}

// transient reports whether a login failure is worth retrying.
func transient(err error) bool {
	return errors.Is(err, domain.ErrProviderUnreachable) || errors.Is(err, domain.ErrRateLimited)
}

func retryAfter(header string) time.Duration {
	secs, err := strconv.Atoi(header)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
