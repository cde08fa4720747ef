package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"stall-booking/model"
	"time"

	"github.com/oklog/ulid/v2"
)

// runSimulateGatewayCmd fires synthetic success callbacks at the webhook
// endpoint. Only useful against a server running in simulated gateway mode.
func runSimulateGatewayCmd(ctx context.Context) {
	cfg := newCfg("env")

	callbackTicker := time.NewTicker(cfg.GetDuration("simulator.callback_interval"))
	defer callbackTicker.Stop()

	webhookUrl := cfg.GetString("simulator.webhook_url")
	receipts := cfg.GetStringSlice("simulator.receipt_numbers")

	client := &http.Client{
		Timeout: 20 * time.Second,
	}

	slog.InfoContext(ctx, "gateway simulator started", slog.String("webhook_url", webhookUrl))

	next := 0

	go func() {
		for {
			select {
			case <-callbackTicker.C:
				if len(receipts) == 0 {
					continue
				}

				receipt := receipts[next%len(receipts)]
				next++

				go func() {
					reqCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()

					body, err := json.Marshal(model.GatewayWebhookRequest{
						EventId:       ulid.Make().String(),
						TransactionId: "SIM-" + receipt,
						ReceiptNumber: receipt,
						Status:        "success",
						OccurredAt:    time.Now().Format(time.RFC3339),
					})
					if err != nil {
						slog.ErrorContext(ctx, "Failed to build callback body", slog.Any("error", err))
						return
					}

					req, err := http.NewRequestWithContext(reqCtx, "POST", webhookUrl, bytes.NewReader(body))
					if err != nil {
						slog.ErrorContext(ctx, "Failed to create request",
							slog.String("url", webhookUrl),
							slog.Any("error", err))
						return
					}
					req.Header.Set("Content-Type", "application/json")

					// Fire and forget - ignore response
					resp, _ := client.Do(req)
					if resp != nil {
						resp.Body.Close() // Important to prevent resource leaks
					}
				}()

			case <-ctx.Done():
				return
			}
		}
	}()

	<-ctx.Done()

	slog.InfoContext(ctx, "gateway simulator stopped")
}
