// Package alert raises operator facing alerts through a chat webhook.
package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// HTTPClient is the part of the http client the manager uses.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config represents the settings of the alert manager.
type Config struct {
	Log     *zap.SugaredLogger
	Enabled bool
	Webhook string
	Device  string
	Client  HTTPClient
}

// Manager posts alerts to the webhook.
type Manager struct {
	log     *zap.SugaredLogger
	enabled bool
	webhook string
	device  string
	client  HTTPClient
	wg      sync.WaitGroup
}

type message struct {
	Text        string       `json:"text"`
	Attachments []attachment `json:"attachments,omitempty"`
}

type attachment struct {
	Color  string  `json:"color"`
	Title  string  `json:"title"`
	Fields []field `json:"fields"`
	Footer string  `json:"footer"`
	Ts     int64   `json:"ts"`
}

type field struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

// New constructs an alert manager.
func New(cfg Config) *Manager {
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	return &Manager{
		log:     cfg.Log,
		enabled: cfg.Enabled,
		webhook: cfg.Webhook,
		device:  cfg.Device,
		client:  client,
	}
}

// Alert raises the tamper shutdown alert. The post happens in the
// background so the caller is never held up by the network.
func (m *Manager) Alert(reason string) {
	m.log.Errorw("ALERT", "status", "tamper shutdown", "device", m.device, "reason", reason)

	if !m.enabled || m.webhook == "" {
		return
	}

	msg := message{
		Text: "*TAMPER SHUTDOWN*",
		Attachments: []attachment{
			{
				Color: "danger",
				Title: "Lockbox halted",
				Fields: []field{
					{Title: "Device", Value: m.device, Short: true},
					{Title: "Reason", Value: reason, Short: false},
				},
				Footer: "lockbox brain",
				Ts:     time.Now().Unix(),
			},
		},
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := m.send(ctx, msg); err != nil {
			m.log.Errorw("ALERT", "status", "webhook failed", "ERROR", err)
		}
	}()
}

// LedgerInvalid raises the alert for a ledger that failed validation.
func (m *Manager) LedgerInvalid(ctx context.Context, index int, reason string) error {
	m.log.Errorw("ALERT", "status", "ledger invalid", "index", index, "reason", reason)

	if !m.enabled || m.webhook == "" {
		return nil
	}

	msg := message{
		Text: "*LEDGER INTEGRITY VIOLATION*",
		Attachments: []attachment{
			{
				Color: "warning",
				Title: "Ledger failed validation",
				Fields: []field{
					{Title: "Device", Value: m.device, Short: true},
					{Title: "Block Index", Value: fmt.Sprintf("%d", index), Short: true},
					{Title: "Reason", Value: reason, Short: false},
				},
				Footer: "lockbox brain",
				Ts:     time.Now().Unix(),
			},
		},
	}

	return m.send(ctx, msg)
}

// Wait blocks until every background alert has been posted.
func (m *Manager) Wait() {
	m.wg.Wait()
}

func (m *Manager) send(ctx context.Context, msg message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.webhook, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}
