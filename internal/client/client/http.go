package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/cityai/internal/api"
	"github.com/dmitrijs2005/cityai/internal/client/models"
	"github.com/dmitrijs2005/cityai/internal/common"
	"github.com/dmitrijs2005/cityai/internal/logging"
)

const maxResponseBody = 1 << 20

// Fallback texts for rejections that arrive without a server message.
const (
	msgLoginFailed   = "login failed"
	msgSignupFailed  = "signup failed"
	msgVerifyFailed  = "verification failed"
	msgResendFailed  = "could not resend the code"
	msgRefreshFailed = "token refresh failed"
	msgTokenRejected = "token rejected"
	msgUnreachable   = "server is unreachable"
	msgMalformed     = "malformed server response"
	msgNoCredentials = "server returned no credentials"
)

// HTTPClient talks to the backend auth API over HTTP/JSON.
type HTTPClient struct {
	baseURL *url.URL
	http    *http.Client
	logger  logging.Logger
}

type Option func(*HTTPClient)

// WithHTTPClient replaces the underlying *http.Client (its Timeout wins).
func WithHTTPClient(c *http.Client) Option {
	return func(h *HTTPClient) {
		if c != nil {
			h.http = c
		}
	}
}

func WithLogger(l logging.Logger) Option {
	return func(h *HTTPClient) {
		if l != nil {
			h.logger = l
		}
	}
}

// NewHTTPClient validates baseURL and returns a client whose requests time
// out after timeout (zero means no client-side timeout).
func NewHTTPClient(baseURL string, timeout time.Duration, opts ...Option) (*HTTPClient, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid server url %q: %w", baseURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid server url %q: want http(s)://host[:port]", baseURL)
	}

	c := &HTTPClient{
		baseURL: u,
		http:    &http.Client{Timeout: timeout},
		logger:  logging.Nop{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	var resp api.HealthResponse
	if _, err := c.do(ctx, http.MethodGet, common.PathHealth, nil, "", nil, &resp); err != nil {
		return err
	}
	if resp.Status != api.HealthStatusOK {
		return &AuthError{Kind: KindServer, Message: fmt.Sprintf("backend status %q", resp.Status)}
	}
	return nil
}

func (c *HTTPClient) Verify(ctx context.Context, accessToken string) (models.Principal, error) {
	var resp api.VerifyResponse
	status, err := c.do(ctx, http.MethodGet, common.PathVerify, nil, accessToken, nil, &resp)
	if err != nil {
		return models.Principal{}, tokenError(status, err)
	}
	if !resp.Valid {
		return models.Principal{}, unauthorized("")
	}
	if resp.User == nil {
		return models.Principal{}, nil
	}
	return *resp.User, nil
}

func (c *HTTPClient) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	req := api.LoginRequest{Email: email, Password: password}
	resp, err := c.postEnvelope(ctx, common.PathLogin, nil, "", req, msgLoginFailed)
	if err != nil {
		return nil, err
	}
	return authResult(resp)
}

func (c *HTTPClient) Signup(ctx context.Context, email, password, name, department string) (*SignupResult, error) {
	req := api.SignupRequest{Email: email, Password: password, Name: name, Department: department}
	resp, err := c.postEnvelope(ctx, common.PathSignup, nil, "", req, msgSignupFailed)
	if err != nil {
		return nil, err
	}

	tokens := resp.Tokens()
	if !tokens.IsZero() && !tokens.Complete() {
		return nil, &AuthError{Kind: KindServer, Message: msgNoCredentials}
	}
	return &SignupResult{Tokens: tokens, Principal: resp.User, Message: resp.Message}, nil
}

func (c *HTTPClient) VerifyCode(ctx context.Context, email, code string) (*AuthResult, error) {
	req := api.VerifyCodeRequest{Email: email, Code: code}
	resp, err := c.postEnvelope(ctx, common.PathVerifyCode, nil, "", req, msgVerifyFailed)
	if err != nil {
		return nil, err
	}
	return authResult(resp)
}

func (c *HTTPClient) ResendCode(ctx context.Context, email string) (string, error) {
	req := api.ResendCodeRequest{Email: email}
	resp, err := c.postEnvelope(ctx, common.PathResendCode, nil, "", req, msgResendFailed)
	if err != nil {
		return "", err
	}
	return resp.Message, nil
}

func (c *HTTPClient) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	q := url.Values{common.RefreshTokenParam: []string{refreshToken}}

	var resp api.AuthResponse
	status, err := c.do(ctx, http.MethodPost, common.PathRefresh, q, "", nil, &resp)
	if err != nil {
		return nil, tokenError(status, err)
	}
	if !resp.Success {
		return nil, unauthorized(orDefault(resp.Message, msgRefreshFailed))
	}
	return authResult(&resp)
}

// Logout reports the outcome of the call; callers are free to ignore it.
func (c *HTTPClient) Logout(ctx context.Context, accessToken string) error {
	_, err := c.do(ctx, http.MethodPost, common.PathLogout, nil, accessToken, nil, nil)
	return err
}

func (c *HTTPClient) WhoAmI(ctx context.Context, accessToken string) (models.Principal, error) {
	var p models.Principal
	status, err := c.do(ctx, http.MethodGet, common.PathWhoAmI, nil, accessToken, nil, &p)
	if err != nil {
		return models.Principal{}, tokenError(status, err)
	}
	return p, nil
}

// postEnvelope posts body and decodes the `{success, message, ...}` envelope.
// success=false and 4xx `detail` bodies become KindCredential errors.
func (c *HTTPClient) postEnvelope(ctx context.Context, path string, q url.Values, token string, body any, fallback string) (*api.AuthResponse, error) {
	var resp api.AuthResponse
	if _, err := c.do(ctx, http.MethodPost, path, q, token, body, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, NewCredentialError(orDefault(resp.Message, fallback))
	}
	return &resp, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, q url.Values, token string, body, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	u := *c.baseURL
	u.Path = c.baseURL.Path + path
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(common.AuthorizationHeader, common.BearerPrefix+token)
	}

	c.logger.Debug(ctx, "api request", "method", method, "path", path)

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug(ctx, "api request failed", "path", path, "error", err)
		return 0, &AuthError{Kind: KindTransientNetwork, Message: msgUnreachable, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return resp.StatusCode, &AuthError{Kind: KindTransientNetwork, Message: msgUnreachable, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Debug(ctx, "api error status", "path", path, "status", resp.StatusCode)
		return resp.StatusCode, statusError(resp.StatusCode, data)
	}

	if out != nil && len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, &AuthError{Kind: KindServer, Message: msgMalformed, Err: err}
		}
	}
	return resp.StatusCode, nil
}

// statusError maps a non-2xx response. 4xx carry a user-facing rejection,
// 5xx are server failures; both keep the server's detail text when present.
func statusError(status int, body []byte) error {
	msg := detailMessage(body)
	if msg == "" {
		msg = http.StatusText(status)
	}
	cause := fmt.Errorf("http status %d", status)
	if status >= 500 {
		return &AuthError{Kind: KindServer, Message: msg, Err: cause}
	}
	return &AuthError{Kind: KindCredential, Message: msg, Err: cause}
}

// detailMessage extracts `detail` (string, or list of {msg}) or `message`.
func detailMessage(body []byte) string {
	var raw struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return ""
	}
	if len(raw.Detail) > 0 {
		var s string
		if err := json.Unmarshal(raw.Detail, &s); err == nil {
			return s
		}
		var items []struct {
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(raw.Detail, &items); err == nil && len(items) > 0 {
			return items[0].Msg
		}
	}
	return raw.Message
}

// tokenError turns a 401/403 into an unauthorized error and passes the rest through.
func tokenError(status int, err error) error {
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return unauthorized(UserMessage(err, ""))
	}
	return err
}

func unauthorized(message string) error {
	return &AuthError{Kind: KindCredential, Message: orDefault(message, msgTokenRejected), Err: ErrUnauthorized}
}

func authResult(resp *api.AuthResponse) (*AuthResult, error) {
	tokens := resp.Tokens()
	if !tokens.Complete() {
		return nil, &AuthError{Kind: KindServer, Message: msgNoCredentials}
	}
	return &AuthResult{Tokens: tokens, Principal: resp.User, Message: resp.Message}, nil
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

// IsUnauthorized reports whether err is a token rejection.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}
