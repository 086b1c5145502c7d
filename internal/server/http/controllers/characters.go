package controllers

import (
	"net/http"

	docsvc "github.com/LuigiLanza93/cronache-trama-e-fato/internal/services/documents"
)

// CharactersController is the REST read API used for first paint, before
// the realtime channel is established.
type CharactersController struct {
	docs *docsvc.Service
}

// NewCharactersController creates a new characters controller.
func NewCharactersController(docs *docsvc.Service) *CharactersController {
	return &CharactersController{docs: docs}
}

// RegisterRoutes registers character routes with the given mux.
func (c *CharactersController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/characters", c.handleList)
	mux.HandleFunc("GET /v1/characters/{slug}", c.handleGet)
}

// handleGet returns the current document for a slug, preferring live
// in-memory state over disk. Unknown slugs are an explicit 404, not a
// generic failure.
func (c *CharactersController) handleGet(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	doc, err := c.docs.Resolve(slug)
	if err != nil {
		writeError(w, http.StatusNotFound, "character not found")
		return
	}
	writeJSON(w, doc)
}

// handleList returns every known character slug.
func (c *CharactersController) handleList(w http.ResponseWriter, r *http.Request) {
	slugs, err := c.docs.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list characters")
		return
	}
	if slugs == nil {
		slugs = []string{}
	}
	writeJSON(w, map[string]any{"characters": slugs})
}
