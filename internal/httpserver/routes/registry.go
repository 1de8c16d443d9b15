package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/stellarlink/stellar/internal/httpserver/deps"
)

// Registrar attaches a group of related routes to the router. Each
// route file contributes one via init(), so the server picks up new
// endpoints without a central wiring list.
type Registrar func(r chi.Router, d deps.Deps)

var registrars []Registrar

func Register(reg Registrar) {
	registrars = append(registrars, reg)
}

// RegisterAll runs every registered registrar. Called once when the
// router is built.
func RegisterAll(r chi.Router, d deps.Deps) {
	for _, reg := range registrars {
		reg(r, d)
	}
}
