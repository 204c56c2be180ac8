package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"carbon-index-service/internal/footprint/model"
	"carbon-index-service/internal/footprint/service"
)

// AlternativeSuggester proposes lower-emission heating/transport options.
type AlternativeSuggester interface {
	SuggestHeatingAlternatives(ctx context.Context, m2 float64, currentID int, season model.Season) []model.Emission
	SuggestTransportAlternatives(ctx context.Context, km float64, currentID int) []model.Emission
}

// Indices handles the aggregate calculation: one request carries the food,
// heating and transport parameters, the response carries per-domain indices
// (nullable) plus the global rank.
func Indices(calc *service.Calculator, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log := requestLogger(logger, r)

		defer r.Body.Close()
		var req model.IndicesRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(log, w, http.StatusBadRequest, "invalid json: "+err.Error())
			return
		}
		if err := validateIndicesRequest(req); err != nil {
			writeError(log, w, http.StatusBadRequest, err.Error())
			return
		}

		res := calc.CalculateIndices(r.Context(), req)
		writeJSON(log, w, http.StatusOK, res)

		log.Info().
			Str("product", req.ProductName).
			Bool("food", res.Food != nil).
			Bool("heating", res.Heating != nil).
			Bool("transport", res.Transport != nil).
			Dur("elapsed", time.Since(start)).
			Msg("indices done")
	}
}

func validateIndicesRequest(req model.IndicesRequest) error {
	if strings.TrimSpace(req.ProductName) == "" {
		return fmt.Errorf("product_name is required")
	}
	if req.WeightKg <= 0 {
		return fmt.Errorf("weight_kg must be > 0")
	}
	if req.M2 <= 0 {
		return fmt.Errorf("m2 must be > 0")
	}
	if req.HeatingID <= 0 {
		return fmt.Errorf("heating_id is required")
	}
	if !req.Season.Valid() {
		return fmt.Errorf("season must be one of winter, summer, year")
	}
	if req.DistanceKm < 0 {
		return fmt.Errorf("distance must be >= 0")
	}
	if req.TransportID <= 0 {
		return fmt.Errorf("transport_id is required")
	}
	return nil
}

// HeatingAlternatives suggests up to three lower-emission heating systems
// for the same area and season.
func HeatingAlternatives(sug AlternativeSuggester, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := requestLogger(logger, r)

		m2 := toFloat(r.URL.Query().Get("m2"), 0)
		if m2 <= 0 {
			writeError(log, w, http.StatusBadRequest, "m2 must be > 0")
			return
		}
		heatingID := atoi(r.URL.Query().Get("heating_id"), 0)
		if heatingID <= 0 {
			writeError(log, w, http.StatusBadRequest, "heating_id is required")
			return
		}
		season := model.Season(r.URL.Query().Get("season"))
		if season == "" {
			season = model.SeasonYear
		}
		if !season.Valid() {
			writeError(log, w, http.StatusBadRequest, "season must be one of winter, summer, year")
			return
		}

		alts := sug.SuggestHeatingAlternatives(r.Context(), m2, heatingID, season)
		writeJSON(log, w, http.StatusOK, map[string]any{"alternatives": alts})
		log.Info().Int("heating_id", heatingID).Int("count", len(alts)).Msg("heating alternatives")
	}
}

// TransportAlternatives suggests up to three lower-emission transport modes
// credible over the given distance.
func TransportAlternatives(sug AlternativeSuggester, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := requestLogger(logger, r)

		km := toFloat(r.URL.Query().Get("km"), -1)
		if km < 0 {
			writeError(log, w, http.StatusBadRequest, "km must be >= 0")
			return
		}
		transportID := atoi(r.URL.Query().Get("transport_id"), 0)
		if transportID <= 0 {
			writeError(log, w, http.StatusBadRequest, "transport_id is required")
			return
		}

		alts := sug.SuggestTransportAlternatives(r.Context(), km, transportID)
		writeJSON(log, w, http.StatusOK, map[string]any{"alternatives": alts})
		log.Info().Int("transport_id", transportID).Int("count", len(alts)).Msg("transport alternatives")
	}
}

func requestLogger(logger zerolog.Logger, r *http.Request) zerolog.Logger {
	if rid := r.Header.Get("X-Request-ID"); rid != "" {
		return logger.With().Str("req_id", rid).Logger()
	}
	return logger
}
