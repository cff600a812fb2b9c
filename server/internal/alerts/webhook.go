package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

const deliveryTimeout = 10 * time.Second

// deliver sends a to every configured target. Failures are logged only.
func (e *Engine) deliver(a *Alert) {
	for i, wh := range e.webhooks {
		url := wh.URL()
		if url == "" {
			continue
		}
		var err error
		if wh.Type == "amqp" {
			err = e.sendAMQP(i, a)
		} else {
			var body []byte
			if body, err = webhookBody(wh.Type, a); err == nil {
				err = e.post(url, body)
			}
		}

		if err != nil {
			slog.Error("alerts: delivery failed", "type", wh.Type, "rule", a.RuleName, "asset", a.AssetTag, "err", err)
			continue
		}
		slog.Debug("alerts: delivered", "type", wh.Type, "rule", a.RuleName, "asset", a.AssetTag, "state", a.State)
	}
}

// webhookBody renders a in the format the target type expects.
func webhookBody(kind string, a *Alert) ([]byte, error) {
	switch kind {
	case "slack":
		return json.Marshal(map[string]string{
			"text": fmt.Sprintf("%s *%s* on `%s`: %s", stateLabel(a), a.RuleName, a.AssetTag, a.Message),
		})
	case "teams":
		return json.Marshal(map[string]any{
			"@type":      "MessageCard",
			"@context":   "http://schema.org/extensions",
			"themeColor": severityColor(a),
			"summary":    a.RuleName,
			"title":      fmt.Sprintf("ReliabilityPro %s: %s on %s", stateLabel(a), a.RuleName, a.AssetTag),
			"text":       a.Message,
			"sections": []map[string]any{{
				"facts": []map[string]string{
					{"name": "Asset", "value": a.AssetTag},
					{"name": "Severity", "value": a.Severity},
					{"name": "Value", "value": fmt.Sprintf("%.2f", a.Value)},
					{"name": "Fired", "value": a.FiredAt.UTC().Format(time.RFC3339)},
				},
			}},
		})
	case "http":
		return json.Marshal(map[string]any{"alert": a})
	}
	return nil, fmt.Errorf("unknown webhook type %q", kind)
}

func (e *Engine) sendAMQP(i int, a *Alert) error {
	p, ok := e.amqp[i]
	if !ok {
		return fmt.Errorf("amqp publisher %d not configured", i)
	}
	body, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode alert: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
	defer cancel()
	return p.publish(ctx, a.ID, body)
}

func (e *Engine) post(url string, body []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("http post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned HTTP %d", resp.StatusCode)
	}
	return nil
}

func stateLabel(a *Alert) string {
	if a.State == StateResolved {
		return "[RESOLVED]"
	}
	switch a.Severity {
	case "critical":
		return "[CRITICAL]"
	case "warning":
		return "[WARNING]"
	default:
		return "[INFO]"
	}
}

func severityColor(a *Alert) string {
	if a.State == StateResolved {
		return "2E7D32"
	}
	switch a.Severity {
	case "critical":
		return "FF4F6A"
	case "warning":
		return "FFAB40"
	default:
		return "00D4FF"
	}
}
