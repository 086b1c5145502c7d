package controllers

import (
	"net/http"

	"github.com/LuigiLanza93/cronache-trama-e-fato/internal/runtime"
	docsvc "github.com/LuigiLanza93/cronache-trama-e-fato/internal/services/documents"
	presencesvc "github.com/LuigiLanza93/cronache-trama-e-fato/internal/services/presence"
	logpkg "github.com/LuigiLanza93/cronache-trama-e-fato/pkg/log"
)

// ControllerRegistry manages all HTTP controllers.
type ControllerRegistry struct {
	general    *GeneralController
	characters *CharactersController
	realtime   *RealtimeController
}

// NewControllerRegistry initializes all controllers with the provided
// runtime and services.
func NewControllerRegistry(rt *runtime.Runtime, docs *docsvc.Service, pres *presencesvc.Service, logger logpkg.Logger) *ControllerRegistry {
	return &ControllerRegistry{
		general:    NewGeneralController(rt),
		characters: NewCharactersController(docs),
		realtime:   NewRealtimeController(rt, docs, pres, logger),
	}
}

// RegisterAllRoutes registers every controller's routes with the mux.
func (r *ControllerRegistry) RegisterAllRoutes(mux *http.ServeMux) {
	r.general.RegisterRoutes(mux)
	r.characters.RegisterRoutes(mux)
	r.realtime.RegisterRoutes(mux)
}

// CloseSessions drops every live websocket session. Used on shutdown.
func (r *ControllerRegistry) CloseSessions() {
	r.realtime.CloseSessions()
}
