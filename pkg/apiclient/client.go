package apiclient

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

	pkgerrors "github.com/angelmondragon/qkart/pkg/errors"
	"github.com/angelmondragon/qkart/pkg/types"
)

const (
	defaultTimeout        = 10 * time.Second
	responseBodyReadLimit = 4096

	MsgBackendUnavailable = "Something went wrong. Check that the backend is running, reachable and returns valid JSON."
	MsgNoProducts         = "No products found"
)

var errBaseURLRequired = errors.New("storefront api base url is required")

// Client talks to the QKart REST backend.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the configured API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// NewClient builds a client rooted at baseURL, e.g. http://localhost:8082/api/v1.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	client := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	if client.baseURL == "" {
		return nil, errBaseURLRequired
	}
	return client, nil
}

// BaseURL returns the API root the client targets.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListProducts fetches the full catalog.
func (c *Client) ListProducts(ctx context.Context) ([]types.Product, error) {
	var products []types.Product
	if err := c.do(ctx, http.MethodGet, "products", "", nil, &products); err != nil {
		return nil, productsError(err)
	}
	if products == nil {
		products = []types.Product{}
	}
	return products, nil
}

// SearchProducts fetches the products whose name or category matches text.
// A 404 is returned as a CodeNotFound error.
func (c *Client) SearchProducts(ctx context.Context, text string) ([]types.Product, error) {
	path := "products/search?value=" + url.QueryEscape(text)
	var products []types.Product
	if err := c.do(ctx, http.MethodGet, path, "", nil, &products); err != nil {
		return nil, productsError(err)
	}
	if products == nil {
		products = []types.Product{}
	}
	return products, nil
}

// FetchCart returns the authoritative cart membership of the token's owner.
func (c *Client) FetchCart(ctx context.Context, token string) ([]types.CartEntry, error) {
	if strings.TrimSpace(token) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	var entries []types.CartEntry
	if err := c.do(ctx, http.MethodGet, "cart", token, nil, &entries); err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []types.CartEntry{}
	}
	return entries, nil
}

// UpdateCart sets the absolute quantity of productID and returns the full
// membership afterwards.
func (c *Client) UpdateCart(ctx context.Context, token, productID string, qty int) ([]types.CartEntry, error) {
	if strings.TrimSpace(token) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	body := types.CartUpdate{ProductID: productID, Qty: &qty}
	var entries []types.CartEntry
	if err := c.do(ctx, http.MethodPost, "cart", token, body, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, username, password string) (*types.LoginResponse, error) {
	var out types.LoginResponse
	body := types.Credentials{Username: username, Password: password}
	if err := c.do(ctx, http.MethodPost, "auth/login", "", body, &out); err != nil {
		return nil, err
	}
	if out.Token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, MsgBackendUnavailable)
	}
	return &out, nil
}

// Register creates a new account.
func (c *Client) Register(ctx context.Context, username, password string) error {
	body := types.Registration{Username: username, Password: password}
	return c.do(ctx, http.MethodPost, "auth/register", "", body, nil)
}

// Logout revokes the token's server session.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "auth/logout", token, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path, token string, body any, out any) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "storefront api client not configured")
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal request body")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.buildURL(path), reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, MsgBackendUnavailable)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, MsgBackendUnavailable)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp)
	}
	if out == nil {
		return nil
	}

	var envelope types.Envelope[json.RawMessage]
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, MsgBackendUnavailable)
	}
	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, MsgBackendUnavailable)
	}
	return nil
}

func statusError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))

	var envelope types.ErrorEnvelope
	message := ""
	if json.Unmarshal(raw, &envelope) == nil {
		message = strings.TrimSpace(envelope.Error.Message)
	}
	cause := fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))

	var code pkgerrors.Code
	switch resp.StatusCode {
	case http.StatusBadRequest:
		code = pkgerrors.CodeValidation
	case http.StatusUnauthorized:
		code = pkgerrors.CodeUnauthorized
	case http.StatusNotFound:
		code = pkgerrors.CodeNotFound
	case http.StatusConflict:
		code = pkgerrors.CodeConflict
	case http.StatusTooManyRequests:
		code = pkgerrors.CodeRateLimit
	default:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, cause, MsgBackendUnavailable).
			WithDetails(map[string]any{"status": resp.StatusCode})
	}

	if message == "" {
		message = pkgerrors.MetadataFor(code).PublicMessage
	}
	return pkgerrors.Wrap(code, cause, message)
}

func productsError(err error) error {
	if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, MsgNoProducts)
	}
	return err
}

func (c *Client) buildURL(path string) string {
	return fmt.Sprintf("%s/%s", c.baseURL, strings.TrimLeft(path, "/"))
}
