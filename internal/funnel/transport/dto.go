// Package transport defines the request and response DTOs for the funnel
// HTTP API.
package transport

// Request DTOs

// AnswerRequest records a single-select answer for the current question.
type AnswerRequest struct {
	QuestionID string `json:"questionId" validate:"required,max=50"`
	OptionID   string `json:"optionId" validate:"required,max=50"`
}

// ToggleRequest toggles one option in a multi-select question's pending set.
type ToggleRequest struct {
	QuestionID string `json:"questionId" validate:"required,max=50"`
	OptionID   string `json:"optionId" validate:"required,max=50"`
}

// ConfirmRequest commits the pending multi-select set for a question.
type ConfirmRequest struct {
	QuestionID string `json:"questionId" validate:"required,max=50"`
}

// LeadRequest carries the lead capture form. AgreedToTerms must be true
// for the submission to proceed; required on a bool rejects false.
type LeadRequest struct {
	Name          string `json:"name" validate:"required,min=1,max=100"`
	Email         string `json:"email" validate:"required,funnel_email"`
	Phone         string `json:"phone" validate:"omitempty,max=25"`
	AgreedToTerms bool   `json:"agreedToTerms" validate:"required"`
}

// View DTOs

// OptionView is a selectable answer as rendered by the widget.
type OptionView struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	Icon string `json:"icon,omitempty"`
}

// QuestionView is the question screen currently designated by the state
// machine.
type QuestionView struct {
	ID       string       `json:"id"`
	Title    string       `json:"title"`
	Subtitle string       `json:"subtitle,omitempty"`
	Multi    bool         `json:"multi,omitempty"`
	Options  []OptionView `json:"options"`
}

// BannerView is the personalized influencer banner, present only when the
// influencer, discount, and code attribution parameters were all supplied.
type BannerView struct {
	Influencer string `json:"influencer"`
	Discount   string `json:"discount"`
	Code       string `json:"code"`
	Image      string `json:"image,omitempty"`
}

// SessionView is the renderable state of a session. The presentation
// layer shows whichever screen Stage designates and feeds input back.
type SessionView struct {
	SessionID          string        `json:"sessionId"`
	Stage              string        `json:"stage"`
	CurrentStep        int           `json:"currentStep"`
	TotalSteps         int           `json:"totalSteps"`
	UserPath           string        `json:"userPath,omitempty"`
	Question           *QuestionView `json:"question,omitempty"`
	PendingSelections  []string      `json:"pendingSelections,omitempty"`
	Banner             *BannerView   `json:"banner,omitempty"`
	RecommendedPlan    string        `json:"recommendedPlan,omitempty"`
	RedirectURL        string        `json:"redirectUrl,omitempty"`
	LoadingMsRemaining int64         `json:"loadingMsRemaining,omitempty"`
}
