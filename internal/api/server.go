package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"intents-agent/internal/asset"
	xerrors "intents-agent/internal/errors"
	"intents-agent/internal/intents"
	"intents-agent/internal/observability/alerting"
	"intents-agent/internal/observability/metrics"
	"intents-agent/internal/quote"
	"intents-agent/pkg/logger"
)

// Server 负责暴露工具接口，供上游智能体获取报价与交易载荷。
type Server struct {
	addr              string
	catalog           *asset.Catalog
	quotes            *quote.Service
	builder           *intents.Builder
	metrics           http.Handler
	alerts            alerting.Dispatcher
	readHeaderTimeout time.Duration
	logger            *slog.Logger
}

// Option 自定义 Server 行为。
type Option func(*Server)

// WithMetricsHandler 将 Prometheus 指标挂载到 /metrics。
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithAlerts 为需要告警的错误码配置通知分发器。
func WithAlerts(d alerting.Dispatcher) Option {
	return func(s *Server) {
		s.alerts = d
	}
}

// WithReadHeaderTimeout 覆盖读取请求头的超时时间。
func WithReadHeaderTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.readHeaderTimeout = d
		}
	}
}

// NewServer 构造 API 服务实例。
func NewServer(addr string, catalog *asset.Catalog, quotes *quote.Service, builder *intents.Builder, opts ...Option) *Server {
	if catalog == nil {
		catalog = asset.DefaultCatalog()
	}
	s := &Server{
		addr:              addr,
		catalog:           catalog,
		quotes:            quotes,
		builder:           builder,
		readHeaderTimeout: 5 * time.Second,
		logger:            logger.Named("api"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Handler 返回挂载了全部路由与中间件的 HTTP 处理器。
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.instrument)
	r.Use(s.recoverer)

	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/api/tools", func(r chi.Router) {
		r.Get("/get-quote", s.handleGetQuote)
		r.Get("/get-btc-quote", s.handleGetBTCQuote)
		r.Get("/deposit-near", s.handleDepositNear)
		r.Get("/deposit-usdc", s.handleDepositUSDC)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "route not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "method not allowed"})
	})
	return r
}

// Start 启动 HTTP 服务，直到上下文取消或出现错误。
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.addr,
		Handler:           withContext(ctx, s.Handler()),
		ReadHeaderTimeout: s.readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	s.logger.Info("API 服务已启动", slog.String("addr", s.addr))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleGetQuote 处理任意两种资产之间的报价请求。
func (s *Server) handleGetQuote(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	s.quote(w, r, q.Get("amount"), selectorOr(q.Get("token"), asset.USDC), selectorOr(q.Get("tokenOut"), asset.BTC))
}

// handleGetBTCQuote 固定目标资产为 BTC。
func (s *Server) handleGetBTCQuote(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	s.quote(w, r, q.Get("amount"), selectorOr(q.Get("token"), asset.USDC), string(asset.BTC))
}

func (s *Server) quote(w http.ResponseWriter, r *http.Request, amount, tokenIn, tokenOut string) {
	if s.quotes == nil {
		s.writeError(w, r, xerrors.New(xerrors.CodeInitializationFailure, "quote service not initialized"))
		return
	}
	in, err := s.catalog.Lookup(tokenIn)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := s.catalog.Lookup(tokenOut)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.quotes.GetQuote(r.Context(), in, out, amount, 0)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleDepositNear(w http.ResponseWriter, r *http.Request) {
	if s.builder == nil {
		s.writeError(w, r, xerrors.New(xerrors.CodeInitializationFailure, "payload builder not initialized"))
		return
	}
	payload, err := s.builder.DepositNear(r.Context(), r.URL.Query().Get("amount"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleDepositUSDC(w http.ResponseWriter, r *http.Request) {
	if s.builder == nil {
		s.writeError(w, r, xerrors.New(xerrors.CodeInitializationFailure, "payload builder not initialized"))
		return
	}
	q := r.URL.Query()
	payload, err := s.builder.DepositUSDC(r.Context(), q.Get("amount"), q.Get("receiverId"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

type errorBody struct {
	Error string `json:"error"`
}

// writeError 是所有失败请求的唯一出口：记录上下文并输出 {error} 响应。
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := xerrors.HTTPStatusOf(err)
	message := "internal server error"
	attrs := []any{
		slog.String("path", r.URL.Path),
		slog.Int("status", status),
		slog.Any("error", err),
	}

	if e, ok := xerrors.From(err); ok {
		message = e.Message()
		attrs = append(attrs,
			slog.String("code", string(e.Code())),
			slog.String("severity", string(e.Severity())),
			slog.Bool("retryable", e.Retryable()),
		)
		if e.ShouldAlert() {
			attrs = append(attrs, slog.Bool("alert", true))
			s.alert(r, err)
		}
	}

	log := logger.WithContext(r.Context(), s.logger)
	if status >= http.StatusInternalServerError {
		log.Error("请求处理失败", attrs...)
	} else {
		log.Warn("请求参数无效", attrs...)
	}
	writeJSON(w, status, errorBody{Error: message})
}

// alert 异步投递告警，不阻塞响应。
func (s *Server) alert(r *http.Request, err error) {
	if s.alerts == nil {
		return
	}
	event, ok := alerting.EventFromError(err, r.URL.Path, logger.RequestID(r.Context()))
	if !ok {
		return
	}
	ctx := context.WithoutCancel(r.Context())
	go func() {
		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := s.alerts.Notify(ctx, event); err != nil {
			logger.WithContext(ctx, s.logger).Warn("告警发送失败", slog.String("code", string(event.Code)), slog.Any("error", err))
		}
	}()
}

// recoverer 捕获处理器中的 panic 并返回 500 JSON。
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			logger.WithContext(r.Context(), s.logger).Error("处理器发生 panic",
				slog.String("path", r.URL.Path),
				slog.Any("panic", rec),
			)
			writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal server error"})
		}()
		next.ServeHTTP(w, r)
	})
}

// unmatchedRoute 是未命中任何路由的请求在指标中的 handler 标签。
const unmatchedRoute = "unmatched"

// instrument 记录访问日志与请求指标。
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		defer func() {
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := unmatchedRoute
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			elapsed := time.Since(start)
			metrics.ObserveHTTPRequest(route, r.Method, status, elapsed)
			logger.WithContext(r.Context(), s.logger).Debug("request served",
				slog.String("method", r.Method),
				slog.String("route", route),
				slog.Int("status", status),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("elapsed", elapsed),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}

func selectorOr(raw string, fallback asset.Symbol) string {
	if raw == "" {
		return string(fallback)
	}
	return raw
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// withContext 确保请求处理能够感知根上下文取消。
func withContext(ctx context.Context, handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-ctx.Done():
			writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "服务已关闭"})
			return
		default:
		}
		handler.ServeHTTP(w, r)
	})
}
