package relay

import (
	"context"
	"net/http"

	xerrors "intents-agent/internal/errors"
)

const (
	CodeRelayUnavailable xerrors.Code = "RELAY_UNAVAILABLE"
	CodeRelayError       xerrors.Code = "RELAY_ERROR"
)

func init() {
	xerrors.Register(CodeRelayUnavailable, xerrors.Attributes{
		Message:    "solver relay unavailable",
		Severity:   xerrors.SeverityCritical,
		Retryable:  true,
		Alert:      true,
		HTTPStatus: http.StatusInternalServerError,
	})
	xerrors.Register(CodeRelayError, xerrors.Attributes{
		Message:    "solver relay returned an error",
		Severity:   xerrors.SeverityWarning,
		Alert:      false,
		HTTPStatus: http.StatusInternalServerError,
	})
}

// QuoteRequest 是发送给 solver relay 的 quote 参数。
type QuoteRequest struct {
	AssetIn       string `json:"defuse_asset_identifier_in"`
	AssetOut      string `json:"defuse_asset_identifier_out"`
	ExactAmountIn string `json:"exact_amount_in"`
	MinDeadlineMs int    `json:"min_deadline_ms"`
}

// Quote 是 relay 返回的单个报价，金额均为原子单位。
type Quote struct {
	AmountIn       string `json:"amount_in"`
	AmountOut      string `json:"amount_out"`
	QuoteHash      string `json:"quote_hash"`
	ExpirationTime string `json:"expiration_time"`
}

// Client 定义了获取报价的统一接口。
type Client interface {
	Quote(ctx context.Context, req QuoteRequest) ([]Quote, error)
}
