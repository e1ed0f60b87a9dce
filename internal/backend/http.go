package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tastebookapp/tastebook/internal/common"
)

// HTTPClient implements Client against the journal backend's JSON API.
// The token is guarded because the identity flow writes it while the sync
// loops issue requests.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

// NewHTTPClient returns a client for the backend at baseURL.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetToken installs the bearer credential used on authenticated calls.
func (c *HTTPClient) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *HTTPClient) bearer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// errorBody is the backend's error envelope. Code distinguishes the
// registration failure taxonomy.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (c *HTTPClient) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if tok := c.bearer(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: status %s", common.ErrUnavailable, resp.Status)
	}
	if resp.StatusCode >= 400 {
		return c.mapError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *HTTPClient) mapError(resp *http.Response) error {
	var eb errorBody
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	_ = json.Unmarshal(raw, &eb)

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return common.ErrUnauthorized
	case eb.Code == "weak_credential":
		return common.ErrWeakCredential
	case eb.Code == "invalid_identifier":
		return common.ErrInvalidIdentifier
	case eb.Code == "identifier_in_use" || resp.StatusCode == http.StatusConflict:
		return common.ErrIdentifierInUse
	default:
		return fmt.Errorf("backend error %s: %s", resp.Status, eb.Message)
	}
}

func (c *HTTPClient) RegisterClient(ctx context.Context, accountID, clientID string) error {
	in := struct {
		AccountID string `json:"account_id"`
		ClientID  string `json:"client_id"`
	}{accountID, clientID}
	return c.post(ctx, "/v1/clients/register", in, nil)
}

func (c *HTTPClient) SyncData(ctx context.Context, sinceVersion int64) (int64, error) {
	in := struct {
		SinceVersion int64 `json:"since_version"`
	}{sinceVersion}
	var out struct {
		Version int64 `json:"version"`
	}
	if err := c.post(ctx, "/v1/sync", in, &out); err != nil {
		return 0, err
	}
	return out.Version, nil
}

func (c *HTTPClient) SignIn(ctx context.Context, provider, providerToken string) (*Credential, error) {
	in := struct {
		Provider string `json:"provider"`
		Token    string `json:"token"`
	}{provider, providerToken}
	var out struct {
		Token string `json:"token"`
	}
	if err := c.post(ctx, "/v1/auth/signin", in, &out); err != nil {
		return nil, err
	}
	return credentialFromToken(out.Token)
}

func (c *HTTPClient) SignUp(ctx context.Context, identifier string, secret []byte) (*Credential, error) {
	in := struct {
		Identifier string `json:"identifier"`
		Secret     []byte `json:"secret"`
	}{identifier, secret}
	var out struct {
		Token string `json:"token"`
	}
	if err := c.post(ctx, "/v1/auth/signup", in, &out); err != nil {
		return nil, err
	}
	return credentialFromToken(out.Token)
}

func (c *HTTPClient) SignOut(ctx context.Context, token string) error {
	in := struct {
		Token string `json:"token"`
	}{token}
	return c.post(ctx, "/v1/auth/signout", in, nil)
}

func (c *HTTPClient) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// credentialFromToken extracts account identity and expiry from the backend
// JWT. The token is not verified here: the backend signs it and the client
// only needs the claims for display and expiry checks.
func credentialFromToken(token string) (*Credential, error) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	cred := &Credential{Token: token}
	if sub, err := claims.GetSubject(); err == nil {
		cred.AccountID = sub
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		cred.ExpiresAt = exp.Time
	}
	if cred.AccountID == "" {
		return nil, fmt.Errorf("%w: missing subject", common.ErrInvalidToken)
	}
	return cred, nil
}
