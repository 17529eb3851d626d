package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	xerrors "intents-agent/internal/errors"
	"intents-agent/pkg/logger"
)

// Channel 表示通知渠道。
type Channel string

// 支持的通知渠道
const (
	ChannelLog      Channel = "log"
	ChannelSlack    Channel = "slack"
	ChannelDingTalk Channel = "dingtalk"
)

// Event 描述一次需要告警的请求失败。
type Event struct {
	Code       xerrors.Code
	Message    string
	Severity   xerrors.Severity
	Path       string
	RequestID  string
	Metadata   map[string]string
	OccurredAt time.Time
}

// EventFromError 根据错误码属性构造告警事件，非 *errors.Error 返回 false。
func EventFromError(err error, path, requestID string) (Event, bool) {
	e, ok := xerrors.From(err)
	if !ok {
		return Event{}, false
	}
	return Event{
		Code:       e.Code(),
		Message:    e.Error(),
		Severity:   e.Severity(),
		Path:       path,
		RequestID:  requestID,
		Metadata:   e.Metadata(),
		OccurredAt: time.Now().UTC(),
	}, true
}

// Notifier 负责将事件发送到指定渠道。
type Notifier interface {
	Channel() Channel
	Notify(ctx context.Context, event Event) error
}

// Dispatcher 将事件广播给多个通知器。
type Dispatcher interface {
	Notify(ctx context.Context, event Event) error
}

// FanoutDispatcher 实现将事件投递到多个通知器的逻辑。
type FanoutDispatcher struct {
	notifiers map[Channel]Notifier
}

// NewFanout 创建一个新的 FanoutDispatcher。同一渠道只保留最后一个通知器。
func NewFanout(notifiers ...Notifier) *FanoutDispatcher {
	set := make(map[Channel]Notifier, len(notifiers))
	for _, n := range notifiers {
		if n == nil {
			continue
		}
		set[n.Channel()] = n
	}
	return &FanoutDispatcher{notifiers: set}
}

// Notify 将事件广播至所有注册渠道。
func (d *FanoutDispatcher) Notify(ctx context.Context, event Event) error {
	if d == nil {
		return nil
	}
	var errs []error
	for _, notifier := range d.notifiers {
		if err := notifier.Notify(ctx, event); err != nil {
			errs = append(errs, fmt.Errorf("channel %s: %w", notifier.Channel(), err))
		}
	}
	return errors.Join(errs...)
}

// LogNotifier 把告警写入结构化日志。
type LogNotifier struct{}

// Channel 返回日志渠道。
func (LogNotifier) Channel() Channel { return ChannelLog }

// Notify 记录一条 error 级别日志。
func (LogNotifier) Notify(_ context.Context, event Event) error {
	logger.Named("alerting").Error("alert",
		slog.String("code", string(event.Code)),
		slog.String("severity", string(event.Severity)),
		slog.String("path", event.Path),
		slog.String("request_id", event.RequestID),
		slog.String("message", event.Message),
	)
	return nil
}

// WebhookNotifier 通过机器人 webhook 发送告警，消息格式取决于渠道。
type WebhookNotifier struct {
	Kind       Channel
	URL        string
	HTTPClient *http.Client
}

// Channel 返回 webhook 对应的渠道。
func (n *WebhookNotifier) Channel() Channel { return n.Kind }

// Notify 以 JSON POST 发送告警。
func (n *WebhookNotifier) Notify(ctx context.Context, event Event) error {
	if n == nil || n.URL == "" {
		logger.L().Warn("WebhookNotifier 未正确配置，跳过发送", slog.String("code", string(event.Code)))
		return nil
	}

	var payload any
	switch n.Kind {
	case ChannelDingTalk:
		payload = map[string]any{
			"msgtype": "text",
			"text":    map[string]string{"content": render(event)},
		}
	default:
		payload = map[string]string{"text": fmt.Sprintf("*[%s]* %s", event.Severity, render(event))}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode alert: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create alert request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := n.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("send alert: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("alert webhook responded with status %d", resp.StatusCode)
	}
	return nil
}

func render(event Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s\n路径: %s\n请求: %s\n时间: %s\n%s",
		event.Severity, event.Code, event.Path, event.RequestID,
		event.OccurredAt.Format(time.RFC3339), event.Message)
	if len(event.Metadata) > 0 {
		keys := make([]string, 0, len(event.Metadata))
		for k := range event.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString("\n详情:")
		for _, k := range keys {
			fmt.Fprintf(&b, "\n- %s: %s", k, event.Metadata[k])
		}
	}
	return b.String()
}
