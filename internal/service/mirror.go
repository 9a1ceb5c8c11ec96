package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"agricoop-backend/internal/domain"
)

// webhookMirror pushes member snapshots to the external user directory over
// a plain webhook. Every call is best-effort; callers log and drop errors.
type webhookMirror struct {
	url       string
	authToken string
	client    *http.Client
}

func NewWebhookMirror(url, authToken string, timeout time.Duration) MirrorPublisher {
	return &webhookMirror{
		url:       url,
		authToken: authToken,
		client:    &http.Client{Timeout: timeout},
	}
}

func (m *webhookMirror) post(ctx context.Context, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.url+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if m.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+m.authToken)
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("mirror webhook returned status %d", resp.StatusCode)
	}
	return nil
}

func (m *webhookMirror) PublishMemberProfile(ctx context.Context, member *domain.Member) error {
	return m.post(ctx, "/members", member)
}

func (m *webhookMirror) PublishVerificationStatus(ctx context.Context, userID int32, status, reason string) error {
	payload := map[string]any{
		"user_id": userID,
		"status":  status,
		"reason":  reason,
	}
	return m.post(ctx, "/verification-status", payload)
}

// noopMirror is used when mirroring is disabled in configuration.
type noopMirror struct{}

func NewNoopMirror() MirrorPublisher {
	return noopMirror{}
}

func (noopMirror) PublishMemberProfile(ctx context.Context, m *domain.Member) error {
	return nil
}

func (noopMirror) PublishVerificationStatus(ctx context.Context, userID int32, status, reason string) error {
	return nil
}
