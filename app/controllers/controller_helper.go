package controllers

import (
	"github.com/SvenKoller/RenderKeep/internal/pkg/credits"
	"github.com/SvenKoller/RenderKeep/internal/pkg/generation"
)

// Services bundles the domain services the controllers delegate to.
// Constructed once in main and injected here; no ambient singletons.
type Services struct {
	Ledger      *credits.Ledger
	Resolver    *credits.Resolver
	Awarder     *credits.Awarder
	Coordinator *generation.Coordinator
}

var svc Services

// Initialize injects the service instances used by all handlers.
func Initialize(s Services) {
	svc = s
}
