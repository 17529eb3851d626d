package quote

import (
	"context"
	"log/slog"

	"intents-agent/internal/asset"
	xerrors "intents-agent/internal/errors"
	"intents-agent/internal/relay"
	"intents-agent/internal/units"
	"intents-agent/pkg/logger"
)

// DefaultMinDeadlineMs 是转发给 relay 的最小报价有效期。
const DefaultMinDeadlineMs = 120000

// Result 是换算回人类可读单位后的报价。
type Result struct {
	TokenIn         asset.Symbol `json:"tokenIn"`
	TokenOut        asset.Symbol `json:"tokenOut"`
	AmountIn        string       `json:"amountIn"`
	AmountOut       string       `json:"amountOut"`
	AtomicAmountIn  string       `json:"atomicAmountIn"`
	AtomicAmountOut string       `json:"atomicAmountOut"`
	QuoteHash       string       `json:"quoteHash"`
	ExpirationTime  string       `json:"expirationTime"`
}

// Option 定义 Service 的可选配置。
type Option func(*Service)

// WithMinDeadline 设置调用方未指定时使用的 min_deadline_ms。
func WithMinDeadline(ms int) Option {
	return func(s *Service) {
		if ms > 0 {
			s.minDeadlineMs = ms
		}
	}
}

// WithAuditLogger 替换记录 quote_fetched 的审计日志，默认使用 logger.Audit()。
func WithAuditLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.audit = l
		}
	}
}

// Service 负责报价请求的构建、发送与单位换算。无状态，可并发使用。
type Service struct {
	relay         relay.Client
	minDeadlineMs int
	audit         *slog.Logger
}

// NewService 构造报价服务。
func NewService(client relay.Client, opts ...Option) *Service {
	s := &Service{relay: client, minDeadlineMs: DefaultMinDeadlineMs, audit: logger.Audit()}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// GetQuote 以 assetIn 的人类可读数量向 relay 请求兑换 assetOut 的报价。
// minDeadlineMs <= 0 时使用默认值。
func (s *Service) GetQuote(ctx context.Context, assetIn, assetOut asset.Asset, amountHuman string, minDeadlineMs int) (*Result, error) {
	if s == nil || s.relay == nil {
		return nil, xerrors.New(xerrors.CodeInitializationFailure, "quote service not initialized")
	}
	amount, err := units.ParsePositive(amountHuman)
	if err != nil {
		return nil, err
	}
	if assetIn.Symbol == assetOut.Symbol {
		return nil, xerrors.New(asset.CodeInvalidAsset, "token and tokenOut must differ")
	}
	atomicIn := units.FromDecimal(amount, assetIn.Decimals)
	if atomicIn == "0" {
		return nil, xerrors.New(units.CodeInvalidAmount, "amount is below the smallest unit of "+string(assetIn.Symbol))
	}

	if minDeadlineMs <= 0 {
		minDeadlineMs = s.minDeadlineMs
	}
	req := relay.QuoteRequest{
		AssetIn:       assetIn.Identifier(),
		AssetOut:      assetOut.Identifier(),
		ExactAmountIn: atomicIn,
		MinDeadlineMs: minDeadlineMs,
	}

	quotes, err := s.relay.Quote(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(quotes) == 0 {
		return nil, xerrors.New(relay.CodeRelayError, "no quote available")
	}
	best := quotes[0]

	// amount_in 与 amount_out 分别使用各自资产的精度换算。
	humanIn, err := units.ToHuman(best.AmountIn, assetIn.Decimals)
	if err != nil {
		return nil, err
	}
	humanOut, err := units.ToHuman(best.AmountOut, assetOut.Decimals)
	if err != nil {
		return nil, err
	}

	logger.WithContext(ctx, s.audit).Info("quote_fetched",
		slog.String("token_in", string(assetIn.Symbol)),
		slog.String("token_out", string(assetOut.Symbol)),
		slog.String("exact_amount_in", atomicIn),
		slog.String("amount_out", best.AmountOut),
		slog.String("quote_hash", best.QuoteHash),
		slog.Int("quotes", len(quotes)),
	)

	return &Result{
		TokenIn:         assetIn.Symbol,
		TokenOut:        assetOut.Symbol,
		AmountIn:        humanIn,
		AmountOut:       humanOut,
		AtomicAmountIn:  best.AmountIn,
		AtomicAmountOut: best.AmountOut,
		QuoteHash:       best.QuoteHash,
		ExpirationTime:  best.ExpirationTime,
	}, nil
}
