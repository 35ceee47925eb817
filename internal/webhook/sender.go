// Package webhook pushes job outcomes and status transitions to configured
// external endpoints.
package webhook

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"printbridge/internal/config"
	"printbridge/internal/queue"
)

type Event string

const (
	EventJobSucceeded  Event = "job_succeeded"
	EventJobFailed     Event = "job_failed"
	EventStatusChanged Event = "status_changed"
)

type Payload struct {
	Event     string      `json:"event"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
	Signature string      `json:"signature,omitempty"`
}

type JobEventData struct {
	JobID       string `json:"job_id"`
	FileURL     string `json:"file_url"`
	FileName    string `json:"file_name"`
	Status      string `json:"status"`
	ErrorReason string `json:"error_reason,omitempty"`
}

type StatusEventData struct {
	State   string `json:"state"`
	Message string `json:"message"`
}

type task struct {
	endpoint config.WebhookEndpoint
	event    Event
	payload  *Payload
	attempt  int
}

// Sender delivers webhook payloads asynchronously with bounded retries.
type Sender struct {
	cfg        *config.WebhooksConfig
	log        *zap.Logger
	httpClient *http.Client
	tasks      chan *task
	stopCh     chan struct{}
	wg         sync.WaitGroup
}

func NewSender(cfg *config.WebhooksConfig, log *zap.Logger) *Sender {
	return &Sender{
		cfg: cfg,
		log: log,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		tasks:  make(chan *task, cfg.QueueSize),
		stopCh: make(chan struct{}),
	}
}

func (s *Sender) Start() {
	for i := 0; i < s.cfg.WorkerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}
}

func (s *Sender) Stop() {
	close(s.stopCh)
	s.wg.Wait()
}

func (s *Sender) SendJobSucceeded(job queue.Job) {
	s.enqueue(EventJobSucceeded, &JobEventData{
		JobID:    job.ID,
		FileURL:  job.SourceURL,
		FileName: job.DisplayName,
		Status:   "succeeded",
	})
}

func (s *Sender) SendJobFailed(job queue.Job, reason string) {
	s.enqueue(EventJobFailed, &JobEventData{
		JobID:       job.ID,
		FileURL:     job.SourceURL,
		FileName:    job.DisplayName,
		Status:      "failed",
		ErrorReason: reason,
	})
}

func (s *Sender) SendStatusChanged(state, message string) {
	s.enqueue(EventStatusChanged, &StatusEventData{State: state, Message: message})
}

func (s *Sender) enqueue(event Event, data interface{}) {
	for _, endpoint := range s.cfg.Endpoints {
		if !wantsEvent(endpoint, event) {
			continue
		}

		t := &task{
			endpoint: endpoint,
			event:    event,
			payload: &Payload{
				Event:     string(event),
				Timestamp: time.Now(),
				Data:      data,
			},
		}

		select {
		case s.tasks <- t:
		default:
			s.log.Warn("webhook queue full, dropping event",
				zap.String("endpoint", endpoint.Name),
				zap.String("event", string(event)),
			)
		}
	}
}

// wantsEvent reports whether the endpoint subscribed to the event. An empty
// event list subscribes to everything.
func wantsEvent(endpoint config.WebhookEndpoint, event Event) bool {
	if len(endpoint.Events) == 0 {
		return true
	}
	for _, e := range endpoint.Events {
		if e == string(event) {
			return true
		}
	}
	return false
}

func (s *Sender) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case <-s.stopCh:
			return
		case t := <-s.tasks:
			if err := s.sendWithRetry(t); err != nil {
				s.log.Error("webhook delivery failed",
					zap.Int("worker", id),
					zap.String("endpoint", t.endpoint.Name),
					zap.String("event", string(t.event)),
					zap.Int("attempts", t.attempt),
					zap.Error(err),
				)
			}
		}
	}
}

func (s *Sender) sendWithRetry(t *task) error {
	var lastErr error
	for t.attempt < s.cfg.RetryCount {
		t.attempt++

		err := s.sendRequest(t.endpoint, t.payload)
		if err == nil {
			return nil
		}

		lastErr = err

		if isClientError(err) {
			return err
		}

		if t.attempt < s.cfg.RetryCount {
			backoff := s.cfg.RetryDelay * time.Duration(1<<(t.attempt-1))
			select {
			case <-s.stopCh:
				return fmt.Errorf("shutdown requested")
			case <-time.After(backoff):
			}
		}
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (s *Sender) sendRequest(endpoint config.WebhookEndpoint, payload *Payload) error {
	dataBytes, err := json.Marshal(payload.Data)
	if err != nil {
		return fmt.Errorf("marshal data: %w", err)
	}

	if endpoint.Secret != "" {
		payload.Signature = signPayload(dataBytes, endpoint.Secret)
	}

	fullPayload, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, endpoint.URL, bytes.NewReader(fullPayload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Signature", payload.Signature)
	req.Header.Set("X-Webhook-Event", payload.Event)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("http error: %d", resp.StatusCode)
	}

	return nil
}

func signPayload(payload []byte, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

func isClientError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "http error: 4")
}
