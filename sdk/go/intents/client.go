package intents

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"
)

// DefaultHTTPTimeout defines the timeout used by clients created without a
// custom http.Client. Quotes are fetched synchronously from the solver relay,
// so it sits above the relay timeout configured on the server.
const DefaultHTTPTimeout = 45 * time.Second

// Client wraps the HTTP interactions with the intents-agent tool endpoints.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

// QuoteRequest selects the assets and amount to quote. Empty selectors fall
// back to the server defaults (usdc in, btc out).
type QuoteRequest struct {
	Amount   string
	Token    string
	TokenOut string
}

// Quote is a relay quote converted back to human-readable amounts.
type Quote struct {
	TokenIn         string `json:"tokenIn"`
	TokenOut        string `json:"tokenOut"`
	AmountIn        string `json:"amountIn"`
	AmountOut       string `json:"amountOut"`
	AtomicAmountIn  string `json:"atomicAmountIn"`
	AtomicAmountOut string `json:"atomicAmountOut"`
	QuoteHash       string `json:"quoteHash"`
	ExpirationTime  string `json:"expirationTime"`
}

// Action is a single unsigned function call on a NEAR contract.
type Action struct {
	MethodName   string          `json:"methodName"`
	Args         json.RawMessage `json:"args"`
	Gas          string          `json:"gas"`
	Deposit      string          `json:"deposit"`
	ContractName string          `json:"contractName"`
}

// Payload is the action sequence returned by the deposit tools together with
// the instruction for the next tool call.
type Payload struct {
	Transactions []Action `json:"transactions"`
	Prompt       string   `json:"prompt"`
}

// APIError represents server side validation or internal errors.
type APIError struct {
	StatusCode int
	Message    string `json:"error"`
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("intents api error (%d): %s", e.StatusCode, e.Message)
}

// Temporary reports whether the failure came from the server side rather than
// from the request itself.
func (e *APIError) Temporary() bool {
	return e != nil && e.StatusCode >= http.StatusInternalServerError
}

// NewClient instantiates a client for the intents-agent API. When httpClient
// is nil, a default client with DefaultHTTPTimeout is used.
func NewClient(rawURL string, httpClient *http.Client) (*Client, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, errors.New("invalid base url: scheme and host are required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultHTTPTimeout}
	}
	return &Client{baseURL: parsed, httpClient: httpClient}, nil
}

// GetQuote fetches an exchange quote between two assets.
func (c *Client) GetQuote(ctx context.Context, req QuoteRequest) (Quote, error) {
	params := url.Values{}
	params.Set("amount", req.Amount)
	if req.Token != "" {
		params.Set("token", req.Token)
	}
	if req.TokenOut != "" {
		params.Set("tokenOut", req.TokenOut)
	}
	var q Quote
	if err := c.get(ctx, "/api/tools/get-quote", params, &q); err != nil {
		return Quote{}, err
	}
	return q, nil
}

// DepositNear builds the wrap-and-deposit payload for a NEAR amount.
func (c *Client) DepositNear(ctx context.Context, amount string) (Payload, error) {
	params := url.Values{}
	params.Set("amount", amount)
	var p Payload
	if err := c.get(ctx, "/api/tools/deposit-near", params, &p); err != nil {
		return Payload{}, err
	}
	return p, nil
}

// DepositUSDC builds the USDC transfer payload. An empty receiverID leaves the
// choice of receiver to the server.
func (c *Client) DepositUSDC(ctx context.Context, amount, receiverID string) (Payload, error) {
	params := url.Values{}
	params.Set("amount", amount)
	if receiverID != "" {
		params.Set("receiverId", receiverID)
	}
	var p Payload
	if err := c.get(ctx, "/api/tools/deposit-usdc", params, &p); err != nil {
		return Payload{}, err
	}
	return p, nil
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	rel := &url.URL{Path: path.Join(c.baseURL.Path, endpoint), RawQuery: params.Encode()}
	u := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		apiErr := APIError{StatusCode: resp.StatusCode}
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read error response: %w", err)
		}
		if len(data) > 0 {
			_ = json.Unmarshal(data, &apiErr)
		}
		if apiErr.Message == "" {
			apiErr.Message = string(bytes.TrimSpace(data))
		}
		return &apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
