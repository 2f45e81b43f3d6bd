package deck

import (
	"github.com/go-chi/chi/v5"

	"github.com/matchdeck/matchdeck/internal/app"
)

// Registrar ties the deck service into the HTTP router
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the deck service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register mounts the deck endpoints on the router
func (reg *Registrar) Register(r chi.Router) {
	service := NewService(reg.appCtx)

	r.Get("/v1/deck", service.HandleDeck)
	r.Post("/v1/deck/next", service.HandleFetchNext)
	r.Put("/v1/decisions", service.HandlePutDecision)
	r.Get("/v1/users/{userID}/matches", service.HandleMatches)
	r.Get("/v1/users/{userID}/matches/count", service.HandleMatchCount)
}
