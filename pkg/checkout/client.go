package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/procurecart/procurecart-backend/pkg/config"
	pkgerrors "github.com/procurecart/procurecart-backend/pkg/errors"
)

const (
	defaultTimeout = 15 * time.Second
	maxErrorBody   = 2048

	authHeader = "X-Checkout-App-Token"
)

// Gateway is the full surface this service needs from the checkout engine.
// Domain packages depend on the narrow slices they consume, not on this.
type Gateway interface {
	GetCart(ctx context.Context, cartID string) (*Cart, error)
	ClearItems(ctx context.Context, cartID string) error
	AddItems(ctx context.Context, cartID string, items []ItemInput) (*Cart, error)
	UpdateItemQuantities(ctx context.Context, cartID string, updates []QuantityUpdate) (*Cart, error)
	SplitItem(ctx context.Context, cartID string, req SplitRequest) (*Cart, error)
	UpdateShipping(ctx context.Context, cartID string, update ShippingUpdate) (*Cart, error)
	SelectPayment(ctx context.Context, cartID string, selection PaymentSelection) error
	SetCustomField(ctx context.Context, cartID, app, field, value string) error
	SetMarketingData(ctx context.Context, cartID string, data MarketingData) error
	SetManualPrice(ctx context.Context, cartID string, itemIndex, priceCents int) error
	StartTransaction(ctx context.Context, cartID string, input TransactionInput) (*Transaction, error)
	SubmitPayment(ctx context.Context, cartID string, instruction PaymentInstruction) error
	FinalizeOrder(ctx context.Context, cartID, transactionID string) error
}

// Client talks to the checkout engine's REST API.
type Client struct {
	baseURL    string
	appToken   string
	httpClient *http.Client
}

var _ Gateway = (*Client)(nil)

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient swaps the underlying HTTP client, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient builds a checkout engine client from config.
func NewClient(cfg config.CheckoutConfig, opts ...Option) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout base URL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid checkout base URL")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	c := &Client{
		baseURL:    cfg.BaseURL,
		appToken:   cfg.AppToken,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) GetCart(ctx context.Context, cartID string) (*Cart, error) {
	var cart Cart
	path := fmt.Sprintf("/api/carts/%s", url.PathEscape(cartID))
	if err := c.do(ctx, http.MethodGet, path, nil, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (c *Client) ClearItems(ctx context.Context, cartID string) error {
	path := fmt.Sprintf("/api/carts/%s/items", url.PathEscape(cartID))
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) AddItems(ctx context.Context, cartID string, items []ItemInput) (*Cart, error) {
	var cart Cart
	path := fmt.Sprintf("/api/carts/%s/items", url.PathEscape(cartID))
	body := map[string]any{"orderItems": items}
	if err := c.do(ctx, http.MethodPost, path, body, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (c *Client) UpdateItemQuantities(ctx context.Context, cartID string, updates []QuantityUpdate) (*Cart, error) {
	var cart Cart
	path := fmt.Sprintf("/api/carts/%s/items", url.PathEscape(cartID))
	body := map[string]any{"orderItems": updates}
	if err := c.do(ctx, http.MethodPatch, path, body, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (c *Client) SplitItem(ctx context.Context, cartID string, req SplitRequest) (*Cart, error) {
	var cart Cart
	path := fmt.Sprintf("/api/carts/%s/items/split", url.PathEscape(cartID))
	if err := c.do(ctx, http.MethodPost, path, req, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (c *Client) UpdateShipping(ctx context.Context, cartID string, update ShippingUpdate) (*Cart, error) {
	var cart Cart
	path := fmt.Sprintf("/api/carts/%s/shipping", url.PathEscape(cartID))
	if err := c.do(ctx, http.MethodPut, path, update, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (c *Client) SelectPayment(ctx context.Context, cartID string, selection PaymentSelection) error {
	path := fmt.Sprintf("/api/carts/%s/payment", url.PathEscape(cartID))
	return c.do(ctx, http.MethodPut, path, selection, nil)
}

func (c *Client) SetCustomField(ctx context.Context, cartID, app, field, value string) error {
	path := fmt.Sprintf("/api/carts/%s/custom-data/%s/%s",
		url.PathEscape(cartID), url.PathEscape(app), url.PathEscape(field))
	body := map[string]string{"value": value}
	return c.do(ctx, http.MethodPut, path, body, nil)
}

func (c *Client) SetMarketingData(ctx context.Context, cartID string, data MarketingData) error {
	path := fmt.Sprintf("/api/carts/%s/marketing-data", url.PathEscape(cartID))
	return c.do(ctx, http.MethodPut, path, data, nil)
}

func (c *Client) SetManualPrice(ctx context.Context, cartID string, itemIndex, priceCents int) error {
	path := fmt.Sprintf("/api/carts/%s/items/%d/price", url.PathEscape(cartID), itemIndex)
	body := map[string]int{"price": priceCents}
	return c.do(ctx, http.MethodPut, path, body, nil)
}

func (c *Client) StartTransaction(ctx context.Context, cartID string, input TransactionInput) (*Transaction, error) {
	var tx Transaction
	path := fmt.Sprintf("/api/carts/%s/transaction", url.PathEscape(cartID))
	if err := c.do(ctx, http.MethodPost, path, input, &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

func (c *Client) SubmitPayment(ctx context.Context, cartID string, instruction PaymentInstruction) error {
	path := fmt.Sprintf("/api/carts/%s/payments", url.PathEscape(cartID))
	return c.do(ctx, http.MethodPost, path, instruction, nil)
}

func (c *Client) FinalizeOrder(ctx context.Context, cartID, transactionID string) error {
	path := fmt.Sprintf("/api/carts/%s/transaction/%s/finalize",
		url.PathEscape(cartID), url.PathEscape(transactionID))
	return c.do(ctx, http.MethodPost, path, nil, nil)
}

// do issues one JSON request against the engine and decodes the response
// into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to encode checkout request")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to build checkout request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.appToken != "" {
		req.Header.Set(authHeader, c.appToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "checkout engine unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.statusError(resp, method, path)
	}

	if out == nil {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to decode checkout response")
	}
	return nil
}

func (c *Client) statusError(resp *http.Response, method, path string) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	code := pkgerrors.CodeDependency
	if resp.StatusCode == http.StatusNotFound {
		code = pkgerrors.CodeNotFound
	}

	err := pkgerrors.New(code, fmt.Sprintf("checkout engine returned %d", resp.StatusCode))
	return err.WithDetails(map[string]any{
		"method": method,
		"path":   path,
		"status": resp.StatusCode,
		"body":   string(snippet),
	})
}
