package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Step indexes. Step 0 is the welcome screen, step 1 the segmentation
// question, and path questions occupy steps 2..N+1. The lead capture step
// follows the last question; loading and completion derive from
// LoadingUntil rather than the step counter.
const (
	StepWelcome       = 0
	StepSegmentation  = 1
	firstQuestionStep = 2
)

// Stage is the conceptual screen derived from session state.
type Stage string

const (
	StageWelcome      Stage = "welcome"
	StageSegmentation Stage = "segmentation"
	StageQuestion     Stage = "question"
	StageLeadCapture  Stage = "lead_capture"
	StageLoading      Stage = "loading"
	StageCompleted    Stage = "completed"
)

// Transition errors. Services map these to typed API errors.
var (
	ErrAlreadyStarted   = errors.New("funnel already started")
	ErrAlreadyCompleted = errors.New("lead already captured")
	ErrQuestionMismatch = errors.New("question is not the current screen")
	ErrUnknownOption    = errors.New("unknown option")
	ErrSingleSelect     = errors.New("question does not allow multiple selections")
	ErrMultiSelect      = errors.New("question requires toggling and confirming selections")
	ErrNoSelections     = errors.New("at least one option must be selected")
	ErrNotAtLeadCapture = errors.New("lead capture is not the current screen")
	ErrNameRequired     = errors.New("name is required")
	ErrEmailRequired    = errors.New("email is required")
	ErrTermsRequired    = errors.New("terms must be accepted")
)

// Lead holds the contact details captured at the lead capture step.
type Lead struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	AgreedToTerms bool   `json:"agreedToTerms"`
}

// Attribution carries the influencer campaign parameters read once when
// the funnel is mounted. The personalized banner renders only when
// influencer, discount, and code are all present; image is optional.
type Attribution struct {
	Influencer string `json:"influencer,omitempty"`
	Discount   string `json:"discount,omitempty"`
	Code       string `json:"code,omitempty"`
	Image      string `json:"image,omitempty"`
}

// BannerEligible reports whether the personalized banner should render.
func (a Attribution) BannerEligible() bool {
	return a.Influencer != "" && a.Discount != "" && a.Code != ""
}

// Session is the full state of one visitor's funnel traversal. One
// instance per visitor; discarded when the visitor is redirected away or
// the store TTL expires.
type Session struct {
	ID          uuid.UUID   `json:"id"`
	CurrentStep int         `json:"currentStep"`
	Path        Path        `json:"userPath"`
	// Answers maps question ID to display text; Choices maps question ID
	// to option ID(s). Decisions key on Choices, the payload reports
	// Answers. Keys accumulate as questions are answered and are only
	// overwritten when a question is re-answered after going back.
	Answers map[string]string `json:"answers"`
	Choices map[string]string `json:"choices"`
	// Pending holds multi-select option IDs toggled but not yet confirmed.
	Pending         []string    `json:"pending,omitempty"`
	Lead            Lead        `json:"lead"`
	RecommendedPlan Plan        `json:"recommendedPlan,omitempty"`
	WebhookSent     bool        `json:"webhookSent"`
	LoadingUntil    time.Time   `json:"loadingUntil,omitzero"`
	Attribution     Attribution `json:"attribution"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
}

// NewSession creates a fresh session at the welcome screen.
func NewSession(id uuid.UUID, attribution Attribution, now time.Time) *Session {
	return &Session{
		ID:          id,
		CurrentStep: StepWelcome,
		Answers:     make(map[string]string),
		Choices:     make(map[string]string),
		Attribution: attribution,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Stage derives the current conceptual screen. Once the lead is captured
// the stage depends only on the loading deadline; before that it follows
// the step counter, with out-of-range question indexes resolving to lead
// capture so a malformed session can never render nothing.
func (s *Session) Stage(def Definition, now time.Time) Stage {
	if !s.LoadingUntil.IsZero() {
		if now.Before(s.LoadingUntil) {
			return StageLoading
		}
		return StageCompleted
	}

	switch s.CurrentStep {
	case StepWelcome:
		return StageWelcome
	case StepSegmentation:
		return StageSegmentation
	}

	if s.CurrentStep-firstQuestionStep < len(def.Questions(s.Path)) {
		return StageQuestion
	}
	return StageLeadCapture
}

// CurrentQuestion returns the question for the current screen, when the
// current screen is a question (including segmentation).
func (s *Session) CurrentQuestion(def Definition, now time.Time) (Question, bool) {
	switch s.Stage(def, now) {
	case StageSegmentation:
		return def.Segmentation, true
	case StageQuestion:
		return def.Questions(s.Path)[s.CurrentStep-firstQuestionStep], true
	}
	return Question{}, false
}

// Start moves from the welcome screen to segmentation.
func (s *Session) Start(now time.Time) error {
	if s.CurrentStep != StepWelcome {
		return ErrAlreadyStarted
	}
	s.CurrentStep = StepSegmentation
	s.touch(now)
	return nil
}

// Answer records a single-select answer for the current question and
// advances. At segmentation it also fixes the visitor's path: the chosen
// option ID selects the path, unknown option IDs that slip through content
// fall back to FallbackPath, and a path once set is never changed.
func (s *Session) Answer(def Definition, questionID, optionID string, now time.Time) error {
	if !s.LoadingUntil.IsZero() {
		return ErrAlreadyCompleted
	}

	q, ok := s.CurrentQuestion(def, now)
	if !ok || q.ID != questionID {
		return ErrQuestionMismatch
	}
	if q.Multi {
		return ErrMultiSelect
	}

	opt, ok := q.Option(optionID)
	if !ok {
		return ErrUnknownOption
	}

	s.Answers[q.ID] = opt.Text
	s.Choices[q.ID] = opt.ID

	if s.CurrentStep == StepSegmentation && s.Path == PathUnset {
		path, known := ParsePath(opt.ID)
		if !known {
			path = FallbackPath
		}
		s.Path = path
	}

	s.advance(def, now)
	return nil
}

// ToggleSelection adds or removes an option from the pending multi-select
// set for the current question. Nothing is committed until
// ConfirmSelections.
func (s *Session) ToggleSelection(def Definition, questionID, optionID string, now time.Time) error {
	if !s.LoadingUntil.IsZero() {
		return ErrAlreadyCompleted
	}

	q, ok := s.CurrentQuestion(def, now)
	if !ok || q.ID != questionID {
		return ErrQuestionMismatch
	}
	if !q.Multi {
		return ErrSingleSelect
	}
	if _, ok := q.Option(optionID); !ok {
		return ErrUnknownOption
	}

	for i, id := range s.Pending {
		if id == optionID {
			s.Pending = append(s.Pending[:i], s.Pending[i+1:]...)
			s.touch(now)
			return nil
		}
	}
	s.Pending = append(s.Pending, optionID)
	s.touch(now)
	return nil
}

// ConfirmSelections commits the pending multi-select set as a single
// answer (display texts joined with "; ", option IDs with ",") and
// advances. Refused while the pending set is empty.
func (s *Session) ConfirmSelections(def Definition, questionID string, now time.Time) error {
	if !s.LoadingUntil.IsZero() {
		return ErrAlreadyCompleted
	}

	q, ok := s.CurrentQuestion(def, now)
	if !ok || q.ID != questionID {
		return ErrQuestionMismatch
	}
	if !q.Multi {
		return ErrSingleSelect
	}
	if len(s.Pending) == 0 {
		return ErrNoSelections
	}

	texts := make([]string, 0, len(s.Pending))
	ids := make([]string, 0, len(s.Pending))
	for _, id := range s.Pending {
		if opt, ok := q.Option(id); ok {
			texts = append(texts, opt.Text)
			ids = append(ids, opt.ID)
		}
	}

	s.Answers[q.ID] = strings.Join(texts, "; ")
	s.Choices[q.ID] = strings.Join(ids, ",")
	s.Pending = nil
	s.advance(def, now)
	return nil
}

// GoBack returns to the previous step, floored at segmentation. Answers
// are not cleared; moving forward again overwrites the answer for the
// revisited question. Refused once the lead is captured.
func (s *Session) GoBack(now time.Time) error {
	if !s.LoadingUntil.IsZero() {
		return ErrAlreadyCompleted
	}
	if s.CurrentStep > StepSegmentation {
		s.CurrentStep--
	}
	s.Pending = nil
	s.touch(now)
	return nil
}

// CaptureLead validates and stores contact details, freezes the
// recommendation from the committed choices, and arms the fixed
// processing delay. WebhookSent is set before any outbound attempt starts;
// the dispatch gateway resets it only if the attempt fails.
func (s *Session) CaptureLead(def Definition, lead Lead, now time.Time, delay time.Duration) error {
	if !s.LoadingUntil.IsZero() {
		return ErrAlreadyCompleted
	}
	if s.Stage(def, now) != StageLeadCapture {
		return ErrNotAtLeadCapture
	}

	lead.Name = strings.TrimSpace(lead.Name)
	if lead.Name == "" {
		return ErrNameRequired
	}
	if strings.TrimSpace(lead.Email) == "" {
		return ErrEmailRequired
	}
	if !lead.AgreedToTerms {
		return ErrTermsRequired
	}

	s.Lead = lead
	s.RecommendedPlan = Recommend(s.Path, s.Choices)
	s.LoadingUntil = now.Add(delay)
	s.CurrentStep++
	s.WebhookSent = true
	s.touch(now)
	return nil
}

// BeginDispatch claims the outbound send guard. Returns false when a send
// is already outstanding or succeeded; at most one dispatch is in flight
// per session.
func (s *Session) BeginDispatch() bool {
	if s.WebhookSent {
		return false
	}
	s.WebhookSent = true
	return true
}

// ResetDispatch releases the send guard after a failed attempt so a later
// user action may retry.
func (s *Session) ResetDispatch() {
	s.WebhookSent = false
}

// advance moves to the next step, clamping past the end of the path's
// question list straight to lead capture.
func (s *Session) advance(def Definition, now time.Time) {
	s.CurrentStep++
	if lc := def.LeadCaptureStep(s.Path); s.CurrentStep > lc {
		s.CurrentStep = lc
	}
	s.Pending = nil
	s.touch(now)
}

func (s *Session) touch(now time.Time) {
	s.UpdatedAt = now
}
