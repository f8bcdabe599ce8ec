package index

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/nats-io/nats.go"

	"github.com/loresmith/loresmith/engine/content"
)

const (
	// IndexSubject carries asynchronous index requests.
	IndexSubject = "loresmith.index"
	// DLQSubject receives requests that exhausted their retries.
	DLQSubject = "loresmith.index.dlq"
	// MaxRetries before a request lands in the DLQ.
	MaxRetries = 3

	retryHeader = "X-Retry-Count"
)

// Request is the NATS envelope for an asynchronous index request. Record is
// decoded per Kind.
type Request struct {
	Kind     content.Kind    `json:"kind"`
	Record   json.RawMessage `json:"record"`
	Metadata map[string]any  `json:"metadata,omitempty"`
}

// dlqMessage is published to the DLQ on repeated failure.
type dlqMessage struct {
	Request Request `json:"request"`
	Error   string  `json:"error"`
	Retries int     `json:"retries"`
}

// StartConsumer subscribes to IndexSubject and runs each request through the
// upsert pipeline. Failures are re-published with an incremented retry
// header; after MaxRetries the request goes to the DLQ. Malformed envelopes
// are logged and dropped since retrying cannot fix them.
func StartConsumer(nc *nats.Conn, svc *Service, logger *slog.Logger) (*nats.Subscription, error) {
	if logger == nil {
		logger = slog.Default()
	}

	return nc.Subscribe(IndexSubject, func(msg *nats.Msg) {
		var req Request
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			logger.Error("index: bad envelope", "error", err)
			return
		}

		rec, err := content.DecodeRecord(req.Kind, req.Record)
		if err != nil {
			logger.Error("index: bad record", "kind", req.Kind, "error", err)
			return
		}

		retries := 0
		if msg.Header != nil {
			if v := msg.Header.Get(retryHeader); v != "" {
				retries, _ = strconv.Atoi(v)
			}
		}

		if err := svc.IndexRecord(context.Background(), rec, req.Metadata); err != nil {
			retries++
			logger.Error("index: pipeline failed",
				"kind", req.Kind,
				"content_id", rec.ContentID(),
				"retry", retries,
				"error", err,
			)

			if retries >= MaxRetries {
				dlq := dlqMessage{Request: req, Error: err.Error(), Retries: retries}
				data, _ := json.Marshal(dlq)
				if err := nc.Publish(DLQSubject, data); err != nil {
					logger.Error("index: DLQ publish failed", "error", err)
				}
				return
			}

			retryMsg := nats.NewMsg(IndexSubject)
			retryMsg.Data = msg.Data
			retryMsg.Header.Set(retryHeader, fmt.Sprintf("%d", retries))
			if err := nc.PublishMsg(retryMsg); err != nil {
				logger.Error("index: retry publish failed", "error", err)
			}
		}
	})
}
