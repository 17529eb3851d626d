package quote

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intents-agent/internal/asset"
	xerrors "intents-agent/internal/errors"
	"intents-agent/internal/relay"
	"intents-agent/internal/units"
	"intents-agent/pkg/logger"
)

type stubRelay struct {
	quotes   []relay.Quote
	err      error
	requests []relay.QuoteRequest
}

func (s *stubRelay) Quote(_ context.Context, req relay.QuoteRequest) ([]relay.Quote, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return nil, s.err
	}
	return s.quotes, nil
}

func TestGetQuoteUSDCToBTC(t *testing.T) {
	catalog := asset.DefaultCatalog()
	stub := &stubRelay{quotes: []relay.Quote{{
		AmountIn:       "10000000",
		AmountOut:      "15234",
		QuoteHash:      "0xabc",
		ExpirationTime: "2026-10-18T12:00:00.000Z",
	}}}
	svc := NewService(stub)

	res, err := svc.GetQuote(context.Background(), catalog.Get(asset.USDC), catalog.Get(asset.BTC), "10", 0)
	require.NoError(t, err)

	require.Len(t, stub.requests, 1)
	req := stub.requests[0]
	assert.Equal(t, "10000000", req.ExactAmountIn)
	assert.Equal(t, "nep141:17208628f84f5d6ad33f0da3bbbeb27ffcb398eac501a31bd6ad2011e36133a1", req.AssetIn)
	assert.Equal(t, "nep141:btc.omft.near", req.AssetOut)
	assert.Equal(t, DefaultMinDeadlineMs, req.MinDeadlineMs)

	assert.Equal(t, "10", res.AmountIn)
	assert.Equal(t, "0.00015234", res.AmountOut)
	assert.Equal(t, "0xabc", res.QuoteHash)
	assert.Equal(t, "2026-10-18T12:00:00.000Z", res.ExpirationTime)
	assert.Equal(t, asset.USDC, res.TokenIn)
	assert.Equal(t, asset.BTC, res.TokenOut)
}

func TestGetQuoteUsesEachAssetsOwnPrecision(t *testing.T) {
	catalog := asset.DefaultCatalog()
	// The same atomic digits on both sides must scale differently:
	// 6 decimals for the input, 8 for the output.
	stub := &stubRelay{quotes: []relay.Quote{{AmountIn: "250000000", AmountOut: "250000000", QuoteHash: "h"}}}
	svc := NewService(stub)

	res, err := svc.GetQuote(context.Background(), catalog.Get(asset.USDC), catalog.Get(asset.BTC), "250", 0)
	require.NoError(t, err)
	assert.Equal(t, "250", res.AmountIn)
	assert.Equal(t, "2.5", res.AmountOut)
	assert.NotEqual(t, res.AmountIn, res.AmountOut)
}

func TestGetQuoteNearSource(t *testing.T) {
	catalog := asset.DefaultCatalog()
	stub := &stubRelay{quotes: []relay.Quote{{
		AmountIn:  "1500000000000000000000000",
		AmountOut: "3120000",
		QuoteHash: "h",
	}}}
	svc := NewService(stub, WithMinDeadline(60000))

	res, err := svc.GetQuote(context.Background(), catalog.Get(asset.NEAR), catalog.Get(asset.USDC), "1.5", 0)
	require.NoError(t, err)
	assert.Equal(t, "1500000000000000000000000", stub.requests[0].ExactAmountIn)
	assert.Equal(t, "nep141:wrap.near", stub.requests[0].AssetIn)
	assert.Equal(t, 60000, stub.requests[0].MinDeadlineMs)
	assert.Equal(t, "1.5", res.AmountIn)
	assert.Equal(t, "3.12", res.AmountOut)
}

func TestGetQuoteCallerDeadline(t *testing.T) {
	catalog := asset.DefaultCatalog()
	stub := &stubRelay{quotes: []relay.Quote{{AmountIn: "1000000", AmountOut: "1", QuoteHash: "h"}}}

	_, err := NewService(stub).GetQuote(context.Background(), catalog.Get(asset.USDC), catalog.Get(asset.BTC), "1", 5000)
	require.NoError(t, err)
	assert.Equal(t, 5000, stub.requests[0].MinDeadlineMs)
}

func TestGetQuoteValidation(t *testing.T) {
	catalog := asset.DefaultCatalog()
	cases := []struct {
		name   string
		in     asset.Symbol
		out    asset.Symbol
		amount string
		code   xerrors.Code
	}{
		{"missing amount", asset.USDC, asset.BTC, "", units.CodeInvalidAmount},
		{"not a number", asset.USDC, asset.BTC, "ten", units.CodeInvalidAmount},
		{"nan", asset.USDC, asset.BTC, "NaN", units.CodeInvalidAmount},
		{"zero", asset.USDC, asset.BTC, "0", units.CodeInvalidAmount},
		{"negative", asset.USDC, asset.BTC, "-1", units.CodeInvalidAmount},
		{"below smallest unit", asset.USDC, asset.BTC, "0.0000001", units.CodeInvalidAmount},
		{"same asset", asset.BTC, asset.BTC, "1", asset.CodeInvalidAsset},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stub := &stubRelay{}
			_, err := NewService(stub).GetQuote(context.Background(), catalog.Get(tc.in), catalog.Get(tc.out), tc.amount, 0)
			require.Error(t, err)
			assert.Equal(t, tc.code, xerrors.CodeOf(err))
			assert.Empty(t, stub.requests, "relay must not be called")
		})
	}
}

func TestGetQuoteRelayFailures(t *testing.T) {
	catalog := asset.DefaultCatalog()

	t.Run("relay error passes through", func(t *testing.T) {
		stub := &stubRelay{err: xerrors.New(relay.CodeRelayUnavailable, "Solver relay responded with status 503")}
		_, err := NewService(stub).GetQuote(context.Background(), catalog.Get(asset.USDC), catalog.Get(asset.BTC), "1", 0)
		assert.Equal(t, relay.CodeRelayUnavailable, xerrors.CodeOf(err))
		assert.Len(t, stub.requests, 1)
	})

	t.Run("empty result", func(t *testing.T) {
		stub := &stubRelay{quotes: []relay.Quote{}}
		_, err := NewService(stub).GetQuote(context.Background(), catalog.Get(asset.USDC), catalog.Get(asset.BTC), "1", 0)
		assert.Equal(t, relay.CodeRelayError, xerrors.CodeOf(err))
		e, _ := xerrors.From(err)
		assert.Equal(t, "no quote available", e.Message())
	})

	t.Run("malformed amount from relay", func(t *testing.T) {
		stub := &stubRelay{quotes: []relay.Quote{{AmountIn: "1000000", AmountOut: "lots"}}}
		_, err := NewService(stub).GetQuote(context.Background(), catalog.Get(asset.USDC), catalog.Get(asset.BTC), "1", 0)
		assert.Equal(t, units.CodeInternalConversion, xerrors.CodeOf(err))
	})
}

func TestNilService(t *testing.T) {
	var svc *Service
	catalog := asset.DefaultCatalog()
	_, err := svc.GetQuote(context.Background(), catalog.Get(asset.USDC), catalog.Get(asset.BTC), "1", 0)
	assert.Equal(t, xerrors.CodeInitializationFailure, xerrors.CodeOf(err))
}

func TestAuditRecordCarriesRequestID(t *testing.T) {
	var buf bytes.Buffer
	catalog := asset.DefaultCatalog()
	stub := &stubRelay{quotes: []relay.Quote{{AmountIn: "1000000", AmountOut: "1500", QuoteHash: "0xfeed"}}}
	svc := NewService(stub, WithAuditLogger(slog.New(slog.NewJSONHandler(&buf, nil))))

	ctx := logger.WithRequestID(context.Background(), "req-42")
	_, err := svc.GetQuote(ctx, catalog.Get(asset.USDC), catalog.Get(asset.BTC), "1", 0)
	require.NoError(t, err)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "quote_fetched", record["msg"])
	assert.Equal(t, "req-42", record["request_id"])
	assert.Equal(t, "0xfeed", record["quote_hash"])
}
