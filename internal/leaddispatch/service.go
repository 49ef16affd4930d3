// Package leaddispatch forwards captured leads to the external webhook.
// It subscribes to lead capture events and never sits on the visitor's
// request path: the funnel completes regardless of what happens here.
package leaddispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"quiz_funnel_backend/internal/events"
	"quiz_funnel_backend/platform/config"
	"quiz_funnel_backend/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// Payload is the document POSTed to the configured webhook. Field names
// are part of the external contract.
type Payload struct {
	Name                   string            `json:"name"`
	Email                  string            `json:"email"`
	Phone                  string            `json:"phone"`
	UserPath               string            `json:"userPath"`
	RecommendedPlan        string            `json:"recommendedPlan"`
	QuestionnaireResponses map[string]string `json:"questionnaireResponses"`
	SubmissionDate         string            `json:"submissionDate"`
}

// SentFlagResetter releases a session's send guard after a failed
// dispatch so a later submission may retry. Implemented by the funnel
// service.
type SentFlagResetter interface {
	ResetDispatchFlag(ctx context.Context, sessionID uuid.UUID) error
}

// Service delivers lead payloads to the webhook endpoint.
type Service struct {
	client   *http.Client
	url      string
	resetter SentFlagResetter
	bus      events.Bus
	log      *logger.Logger
	sf       singleflight.Group
}

// NewService creates the dispatch gateway.
func NewService(cfg config.DispatchConfig, resetter SentFlagResetter, bus events.Bus, log *logger.Logger) *Service {
	return &Service{
		client:   &http.Client{Timeout: cfg.GetWebhookTimeout()},
		url:      cfg.GetWebhookURL(),
		resetter: resetter,
		bus:      bus,
		log:      log,
	}
}

// RegisterHandlers subscribes the gateway to lead capture events.
func (s *Service) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.LeadCapturedName, events.HandlerFunc(s.handleLeadCaptured))
}

func (s *Service) handleLeadCaptured(ctx context.Context, event events.Event) error {
	captured, ok := event.(events.LeadCaptured)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}

	payload := Payload{
		Name:                   captured.Name,
		Email:                  captured.Email,
		Phone:                  captured.Phone,
		UserPath:               captured.Path,
		RecommendedPlan:        captured.Plan,
		QuestionnaireResponses: captured.Responses,
		SubmissionDate:         captured.CapturedAt.UTC().Format(time.RFC3339),
	}
	return s.Dispatch(ctx, captured.SessionID, payload)
}

// Dispatch POSTs the payload to the webhook. Concurrent dispatches for
// the same session collapse into one request. Delivery is fire-and-forget
// at the HTTP level: any response from the endpoint counts as delivered,
// only transport failures release the send guard for a retry.
func (s *Service) Dispatch(ctx context.Context, sessionID uuid.UUID, payload Payload) error {
	_, err, _ := s.sf.Do(sessionID.String(), func() (interface{}, error) {
		return nil, s.send(ctx, sessionID, payload)
	})
	return err
}

func (s *Service) send(ctx context.Context, sessionID uuid.UUID, payload Payload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		s.handleFailure(ctx, sessionID, err)
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	// Non-2xx responses are logged but still count as delivered; the
	// endpoint saw the lead and retrying risks a duplicate CRM entry.
	if resp.StatusCode >= 300 {
		s.log.Warn("webhook returned non-success status",
			"session_id", sessionID.String(),
			"status", resp.StatusCode,
		)
	}

	s.log.WebhookDispatch(sessionID.String(), true, nil)
	return nil
}

func (s *Service) handleFailure(ctx context.Context, sessionID uuid.UUID, cause error) {
	s.log.WebhookDispatch(sessionID.String(), false, cause)

	if err := s.resetter.ResetDispatchFlag(ctx, sessionID); err != nil {
		s.log.Error("failed to release dispatch guard",
			"session_id", sessionID.String(),
			"error", err.Error(),
		)
	}

	s.bus.Publish(ctx, events.LeadDispatchFailed{
		BaseEvent: events.NewBaseEvent(),
		SessionID: sessionID,
		Reason:    cause.Error(),
	})
}
