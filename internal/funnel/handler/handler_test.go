package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"quiz_funnel_backend/internal/events"
	"quiz_funnel_backend/internal/funnel/domain"
	"quiz_funnel_backend/internal/funnel/repository"
	"quiz_funnel_backend/internal/funnel/service"
	"quiz_funnel_backend/internal/funnel/transport"
	"quiz_funnel_backend/platform/logger"
	"quiz_funnel_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

type nopBus struct{}

func (nopBus) Publish(context.Context, events.Event) {}
func (nopBus) PublishSync(context.Context, events.Event) error {
	return nil
}
func (nopBus) Subscribe(string, events.Handler) {}

type testConfig struct{}

func (testConfig) GetProcessingDelay() time.Duration { return 50 * time.Millisecond }
func (testConfig) GetRedirectURL() string            { return "https://school.example.com/offer" }
func (testConfig) GetAppBaseURL() string             { return "http://localhost:8080" }
func (testConfig) GetFunnelContentPath() string      { return "" }

func testDefinition() domain.Definition {
	return domain.Definition{
		Segmentation: domain.Question{
			ID:    "q1",
			Title: "Who will be learning?",
			Options: []domain.Option{
				{ID: "adult", Text: "For myself"},
				{ID: "family", Text: "For my family"},
				{ID: "company", Text: "For my company"},
			},
		},
		Paths: map[domain.Path][]domain.Question{
			domain.PathAdult: {
				{ID: "q2a", Title: "Goal", Options: []domain.Option{
					{ID: "travel", Text: "Travel"},
				}},
			},
			domain.PathChild: {},
			domain.PathFamily: {
				{ID: "q2f", Title: "Goals", Multi: true, Options: []domain.Option{
					{ID: "heritage", Text: "Heritage"},
					{ID: "travel", Text: "Travel"},
				}},
			},
			domain.PathCompany: {},
		},
	}
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := repository.NewMemoryStore(30 * time.Minute)
	t.Cleanup(store.Close)

	svc := service.New(store, testDefinition(), nopBus{}, testConfig{}, logger.New("test"))
	h := NewHandler(svc, validator.New())

	engine := gin.New()
	group := engine.Group("/api/v1/funnel")
	group.GET("/sdk.js", h.HandleServeSDK)
	group.POST("/sessions", h.HandleCreateSession)
	group.GET("/sessions/:sessionId", h.HandleGetSession)
	group.POST("/sessions/:sessionId/start", h.HandleStart)
	group.POST("/sessions/:sessionId/answer", h.HandleAnswer)
	group.POST("/sessions/:sessionId/back", h.HandleGoBack)
	group.POST("/sessions/:sessionId/selections/toggle", h.HandleToggleSelection)
	group.POST("/sessions/:sessionId/selections/confirm", h.HandleConfirmSelections)
	group.POST("/sessions/:sessionId/lead", h.HandleCaptureLead)
	return engine
}

func doJSON(t *testing.T, engine *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func decodeView(t *testing.T, rec *httptest.ResponseRecorder) transport.SessionView {
	t.Helper()
	var view transport.SessionView
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode view: %v (body %s)", err, rec.Body.String())
	}
	return view
}

func createSession(t *testing.T, engine *gin.Engine, query string) transport.SessionView {
	t.Helper()
	rec := doJSON(t, engine, http.MethodPost, "/api/v1/funnel/sessions"+query, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create session status = %d, body %s", rec.Code, rec.Body.String())
	}
	return decodeView(t, rec)
}

func TestCreateSession(t *testing.T) {
	engine := newTestRouter(t)

	view := createSession(t, engine, "")
	if view.Stage != "welcome" {
		t.Errorf("Stage = %q, want welcome", view.Stage)
	}
	if view.SessionID == "" {
		t.Error("SessionID missing")
	}
}

func TestCreateSessionWithAttribution(t *testing.T) {
	engine := newTestRouter(t)

	view := createSession(t, engine, "?influencer=Maria&discount=20%25&code=MARIA20&image=https%3A%2F%2Fcdn.example.com%2Fm.jpg")
	if view.Banner == nil {
		t.Fatal("Banner missing with full attribution")
	}
	if view.Banner.Influencer != "Maria" || view.Banner.Discount != "20%" || view.Banner.Code != "MARIA20" {
		t.Errorf("Banner = %+v", view.Banner)
	}
}

func TestGetSessionInvalidID(t *testing.T) {
	engine := newTestRouter(t)

	rec := doJSON(t, engine, http.MethodGet, "/api/v1/funnel/sessions/not-a-uuid", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestGetSessionNotFound(t *testing.T) {
	engine := newTestRouter(t)

	rec := doJSON(t, engine, http.MethodGet, "/api/v1/funnel/sessions/7f8de3a2-4a17-4d27-9f1f-1cf19c9824b1", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestFullAdultFlowOverHTTP(t *testing.T) {
	engine := newTestRouter(t)
	view := createSession(t, engine, "")
	base := "/api/v1/funnel/sessions/" + view.SessionID

	rec := doJSON(t, engine, http.MethodPost, base+"/start", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("start status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, engine, http.MethodPost, base+"/answer", transport.AnswerRequest{QuestionID: "q1", OptionID: "adult"})
	if rec.Code != http.StatusOK {
		t.Fatalf("segmentation status = %d, body %s", rec.Code, rec.Body.String())
	}
	if got := decodeView(t, rec); got.UserPath != "adult" {
		t.Errorf("UserPath = %q, want adult", got.UserPath)
	}

	rec = doJSON(t, engine, http.MethodPost, base+"/answer", transport.AnswerRequest{QuestionID: "q2a", OptionID: "travel"})
	if rec.Code != http.StatusOK {
		t.Fatalf("answer status = %d, body %s", rec.Code, rec.Body.String())
	}
	if got := decodeView(t, rec); got.Stage != "lead_capture" {
		t.Errorf("Stage = %q, want lead_capture", got.Stage)
	}

	rec = doJSON(t, engine, http.MethodPost, base+"/lead", transport.LeadRequest{
		Name:          "Ana",
		Email:         "ana@example.com",
		AgreedToTerms: true,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("lead status = %d, body %s", rec.Code, rec.Body.String())
	}
	if got := decodeView(t, rec); got.Stage != "loading" {
		t.Errorf("Stage = %q, want loading", got.Stage)
	}

	// The processing delay is short in tests; the next read resolves.
	time.Sleep(60 * time.Millisecond)
	rec = doJSON(t, engine, http.MethodGet, base, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	got := decodeView(t, rec)
	if got.Stage != "completed" {
		t.Errorf("Stage = %q, want completed", got.Stage)
	}
	if got.RecommendedPlan == "" || got.RedirectURL == "" {
		t.Errorf("completed view missing plan/redirect: %+v", got)
	}
}

func TestMultiSelectEndpoints(t *testing.T) {
	engine := newTestRouter(t)
	view := createSession(t, engine, "")
	base := "/api/v1/funnel/sessions/" + view.SessionID

	doJSON(t, engine, http.MethodPost, base+"/start", nil)
	doJSON(t, engine, http.MethodPost, base+"/answer", transport.AnswerRequest{QuestionID: "q1", OptionID: "family"})

	rec := doJSON(t, engine, http.MethodPost, base+"/selections/toggle", transport.ToggleRequest{QuestionID: "q2f", OptionID: "heritage"})
	if rec.Code != http.StatusOK {
		t.Fatalf("toggle status = %d, body %s", rec.Code, rec.Body.String())
	}
	if got := decodeView(t, rec); len(got.PendingSelections) != 1 {
		t.Errorf("PendingSelections = %v, want one entry", got.PendingSelections)
	}

	// Confirming with nothing pending is refused.
	doJSON(t, engine, http.MethodPost, base+"/selections/toggle", transport.ToggleRequest{QuestionID: "q2f", OptionID: "heritage"})
	rec = doJSON(t, engine, http.MethodPost, base+"/selections/confirm", transport.ConfirmRequest{QuestionID: "q2f"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("confirm empty status = %d, want 400", rec.Code)
	}

	doJSON(t, engine, http.MethodPost, base+"/selections/toggle", transport.ToggleRequest{QuestionID: "q2f", OptionID: "travel"})
	rec = doJSON(t, engine, http.MethodPost, base+"/selections/confirm", transport.ConfirmRequest{QuestionID: "q2f"})
	if rec.Code != http.StatusOK {
		t.Fatalf("confirm status = %d, body %s", rec.Code, rec.Body.String())
	}
	if got := decodeView(t, rec); got.Stage != "lead_capture" {
		t.Errorf("Stage = %q, want lead_capture", got.Stage)
	}
}

func TestAnswerValidation(t *testing.T) {
	engine := newTestRouter(t)
	view := createSession(t, engine, "")
	base := "/api/v1/funnel/sessions/" + view.SessionID
	doJSON(t, engine, http.MethodPost, base+"/start", nil)

	// Missing optionId fails struct validation.
	rec := doJSON(t, engine, http.MethodPost, base+"/answer", map[string]string{"questionId": "q1"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing option status = %d, want 400", rec.Code)
	}

	// Malformed JSON fails binding.
	req := httptest.NewRequest(http.MethodPost, base+"/answer", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed JSON status = %d, want 400", rec.Code)
	}
}

func TestLeadEmailValidationMessage(t *testing.T) {
	engine := newTestRouter(t)
	view := createSession(t, engine, "")
	base := "/api/v1/funnel/sessions/" + view.SessionID
	doJSON(t, engine, http.MethodPost, base+"/start", nil)
	doJSON(t, engine, http.MethodPost, base+"/answer", transport.AnswerRequest{QuestionID: "q1", OptionID: "company"})

	rec := doJSON(t, engine, http.MethodPost, base+"/lead", transport.LeadRequest{
		Name:          "Ana",
		Email:         "user@localhost",
		AgreedToTerms: true,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	var resp struct {
		Error   string            `json:"error"`
		Details map[string]string `json:"details"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if resp.Error != "Email must include a domain (e.g., example.com)" {
		t.Errorf("error = %q, want the missing-domain message", resp.Error)
	}
	if resp.Details["reason"] != "missing domain" {
		t.Errorf("details = %v, want reason missing domain", resp.Details)
	}
}

func TestLeadTermsRequired(t *testing.T) {
	engine := newTestRouter(t)
	view := createSession(t, engine, "")
	base := "/api/v1/funnel/sessions/" + view.SessionID
	doJSON(t, engine, http.MethodPost, base+"/start", nil)
	doJSON(t, engine, http.MethodPost, base+"/answer", transport.AnswerRequest{QuestionID: "q1", OptionID: "company"})

	rec := doJSON(t, engine, http.MethodPost, base+"/lead", transport.LeadRequest{
		Name:  "Ana",
		Email: "ana@example.com",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestDoubleLeadSubmitIsIdempotent(t *testing.T) {
	engine := newTestRouter(t)
	view := createSession(t, engine, "")
	base := "/api/v1/funnel/sessions/" + view.SessionID
	doJSON(t, engine, http.MethodPost, base+"/start", nil)
	doJSON(t, engine, http.MethodPost, base+"/answer", transport.AnswerRequest{QuestionID: "q1", OptionID: "company"})

	lead := transport.LeadRequest{Name: "Ana", Email: "ana@example.com", AgreedToTerms: true}
	first := doJSON(t, engine, http.MethodPost, base+"/lead", lead)
	if first.Code != http.StatusOK {
		t.Fatalf("first submit status = %d", first.Code)
	}
	second := doJSON(t, engine, http.MethodPost, base+"/lead", lead)
	if second.Code != http.StatusOK {
		t.Errorf("second submit status = %d, want 200 no-op", second.Code)
	}
}

func TestGoBackEndpoint(t *testing.T) {
	engine := newTestRouter(t)
	view := createSession(t, engine, "")
	base := "/api/v1/funnel/sessions/" + view.SessionID
	doJSON(t, engine, http.MethodPost, base+"/start", nil)
	doJSON(t, engine, http.MethodPost, base+"/answer", transport.AnswerRequest{QuestionID: "q1", OptionID: "adult"})

	rec := doJSON(t, engine, http.MethodPost, base+"/back", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("back status = %d", rec.Code)
	}
	if got := decodeView(t, rec); got.Stage != "segmentation" {
		t.Errorf("Stage = %q, want segmentation", got.Stage)
	}
}

func TestServeSDK(t *testing.T) {
	engine := newTestRouter(t)

	rec := doJSON(t, engine, http.MethodGet, "/api/v1/funnel/sdk.js", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/javascript; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
	if cc := rec.Header().Get("Cache-Control"); cc != "public, max-age=3600" {
		t.Errorf("Cache-Control = %q", cc)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("SDK must be servable cross-origin")
	}
	if rec.Body.Len() == 0 {
		t.Error("SDK body is empty")
	}
}
