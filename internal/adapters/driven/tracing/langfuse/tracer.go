// Package langfuse provides a Tracer that records answering runs through
// the Langfuse public ingestion API.
package langfuse

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/logger"
)

// Ensure Tracer implements the interface.
var _ driven.Tracer = (*Tracer)(nil)

// Default configuration values.
const (
	DefaultHost         = "https://cloud.langfuse.com"
	DefaultTimeout      = 10 * time.Second
	DefaultQueueSize    = 64
	DefaultFlushTimeout = 5 * time.Second

	ingestionPath = "/api/public/ingestion"
)

// Event types understood by the ingestion API.
const (
	eventTraceCreate      = "trace-create"
	eventGenerationCreate = "generation-create"
)

// Config holds Langfuse credentials.
type Config struct {
	PublicKey string
	SecretKey string
	// Host is the Langfuse base URL (default: https://cloud.langfuse.com).
	Host    string
	Timeout time.Duration
	// QueueSize bounds runs waiting to be sent (default: 64).
	QueueSize int
	// FlushTimeout bounds how long Close waits for queued runs (default: 5s).
	FlushTimeout time.Duration
}

// ErrQueueFull is returned by Trace when the send queue has no room.
var ErrQueueFull = errors.New("langfuse: send queue full, trace dropped")

// Tracer sends one trace and one generation per answering run. Runs are
// queued and posted by a background worker so Trace never waits on the network.
type Tracer struct {
	client       *http.Client
	host         string
	publicKey    string
	secretKey    string
	newID        func() string
	flushTimeout time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan []event
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

type event struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
	Body      any    `json:"body"`
}

type traceBody struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	UserID    string         `json:"userId,omitempty"`
	SessionID string         `json:"sessionId,omitempty"`
	Timestamp string         `json:"timestamp"`
	Input     any            `json:"input,omitempty"`
	Output    any            `json:"output,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

type generationBody struct {
	ID        string `json:"id"`
	TraceID   string `json:"traceId"`
	Name      string `json:"name"`
	Model     string `json:"model,omitempty"`
	Input     any    `json:"input,omitempty"`
	Output    any    `json:"output,omitempty"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

type ingestionRequest struct {
	Batch []event `json:"batch"`
}

type ingestionResponse struct {
	Errors []struct {
		ID      string `json:"id"`
		Status  int    `json:"status"`
		Message string `json:"message"`
	} `json:"errors"`
}

// New creates a Langfuse tracer. Both keys are required.
func New(cfg Config) (*Tracer, error) {
	if cfg.PublicKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("%w: langfuse: public and secret keys are required", domain.ErrConfiguration)
	}
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	if cfg.FlushTimeout <= 0 {
		cfg.FlushTimeout = DefaultFlushTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())
	t := &Tracer{
		client:       &http.Client{Timeout: cfg.Timeout},
		host:         strings.TrimRight(cfg.Host, "/"),
		publicKey:    cfg.PublicKey,
		secretKey:    cfg.SecretKey,
		newID:        uuid.NewString,
		flushTimeout: cfg.FlushTimeout,
		queue:        make(chan []event, cfg.QueueSize),
		ctx:          ctx,
		cancel:       cancel,
		done:         make(chan struct{}),
	}
	go t.run()
	return t, nil
}

// Trace queues the run as a trace-create and a generation-create event.
// It fails only when the queue is full or the tracer is closed; delivery
// errors are logged by the worker.
func (t *Tracer) Trace(_ context.Context, rec domain.TraceRecord) error {
	batch := t.events(rec)

	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.closed {
		return errors.New("langfuse: tracer closed")
	}
	select {
	case t.queue <- batch:
		return nil
	default:
		return ErrQueueFull
	}
}

func (t *Tracer) run() {
	defer close(t.done)
	for batch := range t.queue {
		if err := t.send(t.ctx, batch); err != nil {
			logger.Warn("Langfuse trace not recorded: %v", err)
		}
	}
}

// send posts one ingestion batch.
func (t *Tracer) send(ctx context.Context, batch []event) error {
	payload, err := json.Marshal(ingestionRequest{Batch: batch})
	if err != nil {
		return fmt.Errorf("langfuse: marshal batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.host+ingestionPath, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("langfuse: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(t.publicKey, t.secretKey)

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("langfuse: send batch: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("langfuse: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	// 207 responses list per-event failures.
	var result ingestionResponse
	if json.Unmarshal(body, &result) == nil && len(result.Errors) > 0 {
		errs := make([]error, len(result.Errors))
		for i, e := range result.Errors {
			errs[i] = fmt.Errorf("event %s: status %d: %s", e.ID, e.Status, e.Message)
		}
		return fmt.Errorf("langfuse: rejected events: %w", errors.Join(errs...))
	}
	return nil
}

func (t *Tracer) events(rec domain.TraceRecord) []event {
	name := rec.Name
	if name == "" {
		name = domain.TraceNameChat
	}
	traceID := t.newID()
	start := rec.StartedAt.UTC().Format(time.RFC3339Nano)
	end := rec.EndedAt.UTC().Format(time.RFC3339Nano)

	return []event{
		{
			ID:        t.newID(),
			Type:      eventTraceCreate,
			Timestamp: start,
			Body: traceBody{
				ID:        traceID,
				Name:      name,
				UserID:    rec.UserID,
				SessionID: rec.SessionID,
				Timestamp: start,
				Input:     rec.Query,
				Output:    rec.Output,
				Metadata: map[string]any{
					"query":            rec.Query,
					"retrieved_chunks": rec.RetrievedChunks,
					"num_chunks":       rec.NumChunks(),
				},
			},
		},
		{
			ID:        t.newID(),
			Type:      eventGenerationCreate,
			Timestamp: end,
			Body: generationBody{
				ID:        t.newID(),
				TraceID:   traceID,
				Name:      domain.GenerationNameRAG,
				Model:     rec.Model,
				Input:     rec.Prompt,
				Output:    rec.Output,
				StartTime: start,
				EndTime:   end,
			},
		},
	}
}

// Close stops accepting runs and waits up to the flush timeout for queued
// runs to be sent. Runs still in flight after that are abandoned.
func (t *Tracer) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	close(t.queue)
	t.mu.Unlock()

	timer := time.NewTimer(t.flushTimeout)
	defer timer.Stop()
	select {
	case <-t.done:
		t.cancel()
		return nil
	case <-timer.C:
		t.cancel()
		<-t.done
		return fmt.Errorf("langfuse: flush timed out after %s", t.flushTimeout)
	}
}
