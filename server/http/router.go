package serverhttp

import (
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"carbon-index-service/internal/config"
	fpHnd "carbon-index-service/internal/footprint/handler"
	"carbon-index-service/internal/footprint/service"
	"carbon-index-service/internal/middleware"
	"carbon-index-service/server/http/handlers"
)

func NewRouter(cfg config.Config, logger zerolog.Logger, calc *service.Calculator, sug fpHnd.AlternativeSuggester) *chi.Mux {
	r := chi.NewRouter()

	// order matters: recover -> requestID -> logging -> cors
	r.Use(middleware.Recover(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS(cfg.AllowOrigins))

	r.Get("/health", handlers.Health)

	// aggregate calculation
	r.Post("/indices", fpHnd.Indices(calc, logger))

	// lower-emission suggestions
	r.Get("/heating/alternatives", fpHnd.HeatingAlternatives(sug, logger))
	r.Get("/transport/alternatives", fpHnd.TransportAlternatives(sug, logger))

	return r
}
