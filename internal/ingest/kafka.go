// Package ingest consumes usage reports from a Kafka topic and folds them
// into the ledger. Agents publish fire-and-forget JSON reports; malformed
// messages are logged and skipped, never retried into a crash loop.
package ingest

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"

	"github.com/segmentio/kafka-go"
)

// UsageReport is the wire shape of one invocation report.
type UsageReport struct {
	AgentID     string  `json:"agent_id"`
	SkillID     string  `json:"skill_id"`
	ExecSeconds float64 `json:"exec_seconds"`
	Success     bool    `json:"success"`
	CPUPct      float64 `json:"cpu_pct"`
	MemMB       float64 `json:"mem_mb"`
}

// Recorder is the sink for decoded reports; the engine satisfies it.
type Recorder interface {
	RecordUsage(agentID, skillID string, execSeconds float64, success bool, cpuPct, memMB float64) error
}

// Consumer reads usage reports from one topic.
type Consumer struct {
	brokers string
	topic   string
	groupID string
	sink    Recorder

	mu     sync.Mutex
	reader *kafka.Reader
}

// NewConsumer creates a consumer. Brokers is a comma-separated list.
func NewConsumer(brokers, topic, groupID string, sink Recorder) *Consumer {
	return &Consumer{brokers: brokers, topic: topic, groupID: groupID, sink: sink}
}

// Start launches the read loop. It returns immediately; the loop stops when
// ctx is cancelled.
func (c *Consumer) Start(ctx context.Context) {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  strings.Split(c.brokers, ","),
		Topic:    c.topic,
		GroupID:  c.groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	c.mu.Lock()
	c.reader = reader
	c.mu.Unlock()

	go func() {
		for {
			msg, err := reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				slog.Warn("usage ingest: read error", "topic", c.topic, "error", err)
				continue
			}
			c.handle(msg.Value)
		}
	}()
}

func (c *Consumer) handle(payload []byte) {
	var report UsageReport
	if err := json.Unmarshal(payload, &report); err != nil {
		slog.Warn("usage ingest: bad payload", "topic", c.topic, "error", err)
		return
	}
	if err := c.sink.RecordUsage(report.AgentID, report.SkillID,
		report.ExecSeconds, report.Success, report.CPUPct, report.MemMB); err != nil {
		slog.Warn("usage ingest: record failed",
			"agent", report.AgentID, "skill", report.SkillID, "error", err)
	}
}

// Close stops the underlying reader.
func (c *Consumer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.reader == nil {
		return nil
	}
	return c.reader.Close()
}
