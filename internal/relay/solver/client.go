package solver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	gethrpc "github.com/ethereum/go-ethereum/rpc"

	xerrors "intents-agent/internal/errors"
	"intents-agent/internal/observability/metrics"
	"intents-agent/internal/relay"
	"intents-agent/pkg/logger"
)

const (
	DefaultURL     = "https://solver-relay-v2.chaindefuser.com/rpc"
	defaultTimeout = 30 * time.Second
	quoteMethod    = "quote"
)

// Config 描述了连接 solver relay 所需的信息。
type Config struct {
	URL        string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client 通过 JSON-RPC 2.0 over HTTP 调用 solver relay。每次调用只发出一个请求，不做重试。
type Client struct {
	endpoint string
	rpc      *gethrpc.Client
}

var _ relay.Client = (*Client)(nil)

// NewClient 根据配置创建 relay 客户端。HTTP 传输不会在此处建立连接。
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	endpoint := strings.TrimSpace(cfg.URL)
	if endpoint == "" {
		endpoint = DefaultURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	rpcClient, err := gethrpc.DialOptions(ctx, endpoint, gethrpc.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("初始化 solver relay 客户端失败: %w", err)
	}
	return &Client{endpoint: endpoint, rpc: rpcClient}, nil
}

// Endpoint 返回 relay 地址。
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Quote 请求报价并返回 relay 给出的全部报价。
func (c *Client) Quote(ctx context.Context, req relay.QuoteRequest) ([]relay.Quote, error) {
	start := time.Now()

	var quotes []relay.Quote
	err := c.rpc.CallContext(ctx, &quotes, quoteMethod, req)
	elapsed := time.Since(start)
	if err != nil {
		translated, outcome := translateError(err)
		metrics.ObserveRelayCall(quoteMethod, outcome, elapsed)
		logger.WithContext(ctx, logger.Named("relay")).Warn("solver relay quote failed",
			slog.String("endpoint", c.endpoint),
			slog.String("asset_in", req.AssetIn),
			slog.String("asset_out", req.AssetOut),
			slog.String("outcome", outcome),
			slog.Duration("elapsed", elapsed),
			slog.Any("error", err),
		)
		return nil, translated
	}

	metrics.ObserveRelayCall(quoteMethod, "ok", elapsed)
	logger.WithContext(ctx, logger.Named("relay")).Debug("solver relay quote succeeded",
		slog.String("asset_in", req.AssetIn),
		slog.String("asset_out", req.AssetOut),
		slog.Int("quotes", len(quotes)),
		slog.Duration("elapsed", elapsed),
	)
	return quotes, nil
}

// Close 释放底层连接。
func (c *Client) Close() {
	if c == nil || c.rpc == nil {
		return
	}
	c.rpc.Close()
}

// translateError 将 go-ethereum rpc 层的错误映射为统一错误码。
func translateError(err error) (*xerrors.Error, string) {
	var httpErr gethrpc.HTTPError
	if errors.As(err, &httpErr) {
		return xerrors.Wrap(relay.CodeRelayUnavailable, err,
			fmt.Sprintf("Solver relay responded with status %d", httpErr.StatusCode),
			xerrors.WithMetadata("status", httpErr.Status)), "unavailable"
	}

	var rpcErr gethrpc.Error
	if errors.As(err, &rpcErr) {
		message := strings.TrimSpace(rpcErr.Error())
		if message == "" {
			message = "Unknown error from solver relay"
		}
		return xerrors.Wrap(relay.CodeRelayError, err, message,
			xerrors.WithMetadata("rpc_code", fmt.Sprint(rpcErr.ErrorCode()))), "relay_error"
	}

	if errors.Is(err, gethrpc.ErrNoResult) {
		return xerrors.Wrap(relay.CodeRelayError, err, "no quote available"), "relay_error"
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return xerrors.Wrap(relay.CodeRelayError, err, "malformed response from solver relay"), "malformed"
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return xerrors.Wrap(relay.CodeRelayUnavailable, err, "solver relay request did not complete"), "unavailable"
	}
	return xerrors.Wrap(relay.CodeRelayUnavailable, err, "failed to reach solver relay"), "unavailable"
}
