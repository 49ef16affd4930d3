// Package funnel provides the quiz funnel bounded context module.
// This file defines the module that encapsulates funnel setup and route registration.
package funnel

import (
	"quiz_funnel_backend/internal/events"
	"quiz_funnel_backend/internal/funnel/domain"
	"quiz_funnel_backend/internal/funnel/handler"
	"quiz_funnel_backend/internal/funnel/repository"
	"quiz_funnel_backend/internal/funnel/service"
	apphttp "quiz_funnel_backend/internal/http"
	"quiz_funnel_backend/platform/config"
	"quiz_funnel_backend/platform/logger"
	"quiz_funnel_backend/platform/validator"
)

// Module is the funnel bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the funnel module with all its dependencies.
func NewModule(store repository.SessionStore, def domain.Definition, eventBus events.Bus, cfg config.FunnelConfig, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(store, def, eventBus, cfg, log)
	h := handler.NewHandler(svc, val)

	return &Module{
		handler: h,
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "funnel"
}

// Service exposes the funnel service for wiring into the dispatch gateway,
// which needs it to reset the send guard after a failed webhook attempt.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts funnel routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.V1.Group("/funnel")

	// Embed SDK (public, cached)
	group.GET("/sdk.js", m.handler.HandleServeSDK)

	// Session lifecycle
	group.POST("/sessions", m.handler.HandleCreateSession)
	group.GET("/sessions/:sessionId", m.handler.HandleGetSession)
	group.POST("/sessions/:sessionId/start", m.handler.HandleStart)
	group.POST("/sessions/:sessionId/answer", m.handler.HandleAnswer)
	group.POST("/sessions/:sessionId/back", m.handler.HandleGoBack)

	// Multi-select questions
	group.POST("/sessions/:sessionId/selections/toggle", m.handler.HandleToggleSelection)
	group.POST("/sessions/:sessionId/selections/confirm", m.handler.HandleConfirmSelections)

	// Lead submission triggers the outbound webhook, so it gets the
	// stricter limiter on top of the general one.
	group.POST("/sessions/:sessionId/lead", ctx.SubmitRateLimiter.RateLimit(), m.handler.HandleCaptureLead)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
