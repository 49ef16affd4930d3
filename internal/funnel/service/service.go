// Package service orchestrates funnel sessions: it applies visitor
// actions to the state machine, publishes domain events, and builds the
// renderable session views.
package service

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"quiz_funnel_backend/internal/events"
	"quiz_funnel_backend/internal/funnel/domain"
	"quiz_funnel_backend/internal/funnel/repository"
	"quiz_funnel_backend/internal/funnel/transport"
	"quiz_funnel_backend/platform/apperr"
	"quiz_funnel_backend/platform/config"
	"quiz_funnel_backend/platform/emailaddr"
	"quiz_funnel_backend/platform/logger"
	"quiz_funnel_backend/platform/phone"

	"github.com/google/uuid"
)

// Service coordinates session state transitions.
type Service struct {
	store       repository.SessionStore
	def         domain.Definition
	bus         events.Bus
	log         *logger.Logger
	delay       time.Duration
	redirectURL string
	now         func() time.Time
}

// New creates the funnel service.
func New(store repository.SessionStore, def domain.Definition, bus events.Bus, cfg config.FunnelConfig, log *logger.Logger) *Service {
	return &Service{
		store:       store,
		def:         def,
		bus:         bus,
		log:         log,
		delay:       cfg.GetProcessingDelay(),
		redirectURL: cfg.GetRedirectURL(),
		now:         time.Now,
	}
}

// CreateSession starts a fresh session at the welcome screen.
func (s *Service) CreateSession(ctx context.Context, attribution domain.Attribution) (transport.SessionView, error) {
	session := domain.NewSession(uuid.New(), attribution, s.now())
	if err := s.store.Create(ctx, session); err != nil {
		s.log.StoreError("create session", err)
		return transport.SessionView{}, apperr.Internal("failed to create session")
	}
	s.log.FunnelEvent("session_created", session.ID.String(), string(domain.StageWelcome))
	return s.buildView(session), nil
}

// GetSession returns the current renderable state.
func (s *Service) GetSession(ctx context.Context, id uuid.UUID) (transport.SessionView, error) {
	session, err := s.store.Get(ctx, id)
	if err != nil {
		return transport.SessionView{}, s.mapError(err)
	}
	return s.buildView(session), nil
}

// Start moves from the welcome screen to segmentation.
func (s *Service) Start(ctx context.Context, id uuid.UUID) (transport.SessionView, error) {
	session, err := s.store.Update(ctx, id, func(sess *domain.Session) error {
		return sess.Start(s.now())
	})
	if err != nil {
		return transport.SessionView{}, s.mapError(err)
	}

	s.bus.Publish(ctx, events.SessionStarted{
		BaseEvent: events.NewBaseEvent(),
		SessionID: id,
	})
	s.log.FunnelEvent("started", id.String(), string(domain.StageSegmentation))
	return s.buildView(session), nil
}

// Answer records a single-select answer and advances. An answer to the
// segmentation question that maps to no known path falls back to the
// adult path; the fallback is logged because it indicates content drift.
func (s *Service) Answer(ctx context.Context, id uuid.UUID, req transport.AnswerRequest) (transport.SessionView, error) {
	session, err := s.store.Update(ctx, id, func(sess *domain.Session) error {
		segmentation := sess.CurrentStep == domain.StepSegmentation
		if err := sess.Answer(s.def, req.QuestionID, req.OptionID, s.now()); err != nil {
			return err
		}
		if segmentation {
			if _, known := domain.ParsePath(req.OptionID); !known {
				s.log.Warn("segmentation option maps to no path, using fallback",
					"session_id", id.String(),
					"option_id", req.OptionID,
					"fallback", string(domain.FallbackPath),
				)
			}
		}
		return nil
	})
	if err != nil {
		return transport.SessionView{}, s.mapError(err)
	}
	return s.buildView(session), nil
}

// ToggleSelection toggles one pending multi-select option.
func (s *Service) ToggleSelection(ctx context.Context, id uuid.UUID, req transport.ToggleRequest) (transport.SessionView, error) {
	session, err := s.store.Update(ctx, id, func(sess *domain.Session) error {
		return sess.ToggleSelection(s.def, req.QuestionID, req.OptionID, s.now())
	})
	if err != nil {
		return transport.SessionView{}, s.mapError(err)
	}
	return s.buildView(session), nil
}

// ConfirmSelections commits the pending multi-select set and advances.
func (s *Service) ConfirmSelections(ctx context.Context, id uuid.UUID, req transport.ConfirmRequest) (transport.SessionView, error) {
	session, err := s.store.Update(ctx, id, func(sess *domain.Session) error {
		return sess.ConfirmSelections(s.def, req.QuestionID, s.now())
	})
	if err != nil {
		return transport.SessionView{}, s.mapError(err)
	}
	return s.buildView(session), nil
}

// GoBack returns to the previous step.
func (s *Service) GoBack(ctx context.Context, id uuid.UUID) (transport.SessionView, error) {
	session, err := s.store.Update(ctx, id, func(sess *domain.Session) error {
		return sess.GoBack(s.now())
	})
	if err != nil {
		return transport.SessionView{}, s.mapError(err)
	}
	return s.buildView(session), nil
}

// CaptureLead validates contact details, freezes the recommendation, and
// publishes the LeadCaptured event exactly once per outbound attempt. A
// repeat submission while a send is outstanding or succeeded is a no-op;
// after a dispatch failure it re-arms the send without recomputing.
func (s *Service) CaptureLead(ctx context.Context, id uuid.UUID, req transport.LeadRequest) (transport.SessionView, error) {
	if err := emailaddr.Validate(req.Email); err != nil {
		var ve *emailaddr.ValidationError
		if errors.As(err, &ve) {
			return transport.SessionView{}, apperr.Validation(ve.Message()).
				WithDetails(map[string]string{"field": "email", "reason": string(ve.Reason)})
		}
		return transport.SessionView{}, apperr.Validation("invalid email")
	}

	lead := domain.Lead{
		Name:          strings.TrimSpace(req.Name),
		Email:         strings.TrimSpace(req.Email),
		Phone:         phone.NormalizeE164(req.Phone),
		AgreedToTerms: req.AgreedToTerms,
	}

	dispatch := false
	session, err := s.store.Update(ctx, id, func(sess *domain.Session) error {
		err := sess.CaptureLead(s.def, lead, s.now(), s.delay)
		if err == nil {
			dispatch = true
			return nil
		}
		if errors.Is(err, domain.ErrAlreadyCompleted) {
			// Repeat submission: re-arm only when the previous dispatch
			// failed and released the guard; otherwise a silent no-op.
			dispatch = sess.BeginDispatch()
			return nil
		}
		return err
	})
	if err != nil {
		return transport.SessionView{}, s.mapError(err)
	}

	if dispatch {
		s.log.LeadCaptured(id.String(), string(session.Path), string(session.RecommendedPlan))
		s.bus.Publish(ctx, events.LeadCaptured{
			BaseEvent:  events.NewBaseEvent(),
			SessionID:  session.ID,
			Name:       session.Lead.Name,
			Email:      session.Lead.Email,
			Phone:      session.Lead.Phone,
			Path:       string(session.Path),
			Plan:       string(session.RecommendedPlan),
			Responses:  session.Answers,
			CapturedAt: s.now(),
		})
	}

	return s.buildView(session), nil
}

// ResetDispatchFlag releases the session's send guard after a failed
// webhook attempt. Implements the dispatch gateway's SentFlagResetter
// port. A session that already expired is not an error; the lead is lost
// either way and the visitor flow was never blocked on it.
func (s *Service) ResetDispatchFlag(ctx context.Context, sessionID uuid.UUID) error {
	_, err := s.store.Update(ctx, sessionID, func(sess *domain.Session) error {
		sess.ResetDispatch()
		return nil
	})
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	return err
}

// buildView projects a session onto its renderable view.
func (s *Service) buildView(session *domain.Session) transport.SessionView {
	now := s.now()
	stage := session.Stage(s.def, now)

	view := transport.SessionView{
		SessionID:   session.ID.String(),
		Stage:       string(stage),
		CurrentStep: session.CurrentStep,
		TotalSteps:  s.def.TotalSteps(session.Path),
		UserPath:    string(session.Path),
	}

	if session.Attribution.BannerEligible() {
		view.Banner = &transport.BannerView{
			Influencer: session.Attribution.Influencer,
			Discount:   session.Attribution.Discount,
			Code:       session.Attribution.Code,
			Image:      session.Attribution.Image,
		}
	}

	switch stage {
	case domain.StageSegmentation, domain.StageQuestion:
		if q, ok := session.CurrentQuestion(s.def, now); ok {
			qv := questionView(q)
			view.Question = &qv
			if q.Multi {
				view.PendingSelections = append([]string(nil), session.Pending...)
			}
		}
	case domain.StageLoading:
		view.LoadingMsRemaining = session.LoadingUntil.Sub(now).Milliseconds()
	case domain.StageCompleted:
		view.RecommendedPlan = string(session.RecommendedPlan)
		view.RedirectURL = s.completionRedirect(session.RecommendedPlan)
	}

	return view
}

// completionRedirect appends the recommended plan to the configured
// redirect target; the embed SDK forwards it to the host page.
func (s *Service) completionRedirect(plan domain.Plan) string {
	sep := "?"
	if strings.Contains(s.redirectURL, "?") {
		sep = "&"
	}
	return s.redirectURL + sep + "plan=" + url.QueryEscape(string(plan))
}

func questionView(q domain.Question) transport.QuestionView {
	opts := make([]transport.OptionView, 0, len(q.Options))
	for _, opt := range q.Options {
		opts = append(opts, transport.OptionView{ID: opt.ID, Text: opt.Text, Icon: opt.Icon})
	}
	return transport.QuestionView{
		ID:       q.ID,
		Title:    q.Title,
		Subtitle: q.Subtitle,
		Multi:    q.Multi,
		Options:  opts,
	}
}

// mapError converts storage and domain errors to typed API errors.
func (s *Service) mapError(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperr.NotFound("session not found")
	case errors.Is(err, domain.ErrAlreadyStarted),
		errors.Is(err, domain.ErrAlreadyCompleted),
		errors.Is(err, domain.ErrNotAtLeadCapture):
		return apperr.Conflict(err.Error())
	case errors.Is(err, domain.ErrQuestionMismatch),
		errors.Is(err, domain.ErrUnknownOption),
		errors.Is(err, domain.ErrMultiSelect),
		errors.Is(err, domain.ErrSingleSelect),
		errors.Is(err, domain.ErrNoSelections),
		errors.Is(err, domain.ErrNameRequired),
		errors.Is(err, domain.ErrEmailRequired),
		errors.Is(err, domain.ErrTermsRequired):
		return apperr.Validation(err.Error())
	default:
		s.log.StoreError("session update", err)
		return apperr.Internal("session update failed")
	}
}
