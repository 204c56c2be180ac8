package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carbon-index-service/internal/footprint/cache"
	"carbon-index-service/internal/footprint/dataset"
	"carbon-index-service/internal/footprint/model"
	"carbon-index-service/internal/footprint/remote"
	"carbon-index-service/internal/footprint/service"
)

type stubProducts struct {
	product remote.Product
	ok      bool
}

func (s *stubProducts) Lookup(_ context.Context, _ string) (remote.Product, bool) {
	return s.product, s.ok
}

type stubEmissions struct {
	heating   []model.Emission
	transport []model.Emission
}

func (s *stubEmissions) HeatingEmissions(_ context.Context, _ float64, _ []int, _ model.Season) []model.Emission {
	return s.heating
}

func (s *stubEmissions) TransportEmissions(_ context.Context, _ float64, _ []int) []model.Emission {
	return s.transport
}

type stubSuggester struct {
	heating   []model.Emission
	transport []model.Emission
}

func (s *stubSuggester) SuggestHeatingAlternatives(_ context.Context, _ float64, _ int, _ model.Season) []model.Emission {
	return s.heating
}

func (s *stubSuggester) SuggestTransportAlternatives(_ context.Context, _ float64, _ int) []model.Emission {
	return s.transport
}

func newTestCalculator(t *testing.T, products *stubProducts, em *stubEmissions) *service.Calculator {
	t.Helper()
	store, err := cache.Load(filepath.Join(t.TempDir(), "cache.json"))
	require.NoError(t, err)
	ix, err := service.BuildIndex([]dataset.Dataset{
		{Key: "par_etape", Names: []string{"pomme de terre"}, Factors: []float64{0.2}},
	})
	require.NoError(t, err)
	m := service.NewMatcher(store, products, ix, zerolog.Nop())
	return service.NewCalculator(m, em, em, zerolog.Nop())
}

func postIndices(t *testing.T, calc *service.Calculator, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/indices", strings.NewReader(body))
	rec := httptest.NewRecorder()
	Indices(calc, zerolog.Nop())(rec, req)
	return rec
}

func TestIndicesValidation(t *testing.T) {
	calc := newTestCalculator(t, &stubProducts{}, &stubEmissions{})

	cases := []struct {
		name string
		body string
	}{
		{"bad_json", `{`},
		{"missing_product", `{"weight_kg":1,"m2":50,"heating_id":1,"season":"winter","distance":5,"transport_id":4}`},
		{"zero_weight", `{"product_name":"pomme","weight_kg":0,"m2":50,"heating_id":1,"season":"winter","distance":5,"transport_id":4}`},
		{"zero_m2", `{"product_name":"pomme","weight_kg":1,"m2":0,"heating_id":1,"season":"winter","distance":5,"transport_id":4}`},
		{"missing_heating_id", `{"product_name":"pomme","weight_kg":1,"m2":50,"season":"winter","distance":5,"transport_id":4}`},
		{"missing_transport_id", `{"product_name":"pomme","weight_kg":1,"m2":50,"heating_id":1,"season":"winter","distance":5}`},
		{"bad_season", `{"product_name":"pomme","weight_kg":1,"m2":50,"heating_id":1,"season":"spring","distance":5,"transport_id":4}`},
		{"negative_distance", `{"product_name":"pomme","weight_kg":1,"m2":50,"heating_id":1,"season":"winter","distance":-1,"transport_id":4}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := postIndices(t, calc, tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestIndicesSuccess(t *testing.T) {
	products := &stubProducts{product: remote.Product{Name: "Pomme", Per100g: 0.5}, ok: true}
	em := &stubEmissions{
		heating:   []model.Emission{{Name: "Chauffage au gaz", Value: 300}},
		transport: []model.Emission{{ID: 7, Name: "Vélo", Value: 0.1}},
	}
	calc := newTestCalculator(t, products, em)

	rec := postIndices(t, calc,
		`{"product_name":"pomme","weight_kg":1,"m2":100,"heating_id":1,"season":"winter","distance":10,"transport_id":7}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var res model.IndicesResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.NotNil(t, res.Food)
	require.NotNil(t, res.Heating)
	require.NotNil(t, res.Transport)
	require.NotNil(t, res.GlobalRank)
	assert.Equal(t, 3, res.Food.Rank)      // 5 kg vs 2.5 optimal -> index 50
	assert.Equal(t, 1, res.Heating.Rank)   // 300 vs 300 optimal -> index 100
	assert.Equal(t, 1, res.Transport.Rank) // capped at 100
	assert.Equal(t, 2, *res.GlobalRank)    // round(mean(3,1,1)) = round(1.67)
}

func TestIndicesPartialFailure(t *testing.T) {
	// all upstreams down, only the similarity fallback survives
	calc := newTestCalculator(t, &stubProducts{}, &stubEmissions{})

	rec := postIndices(t, calc,
		`{"product_name":"pomme de terre","weight_kg":1,"m2":50,"heating_id":1,"season":"year","distance":5,"transport_id":4}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var res model.IndicesResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.NotNil(t, res.Food)
	assert.Nil(t, res.Heating)
	assert.Nil(t, res.Transport)
	require.NotNil(t, res.GlobalRank)
	assert.Equal(t, res.Food.Rank, *res.GlobalRank)
}

func TestHeatingAlternativesHandler(t *testing.T) {
	sug := &stubSuggester{heating: []model.Emission{{Name: "Chauffage avec une pompe à chaleur", Value: 10}}}

	t.Run("ok", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/heating/alternatives?m2=50&heating_id=1&season=winter", nil)
		rec := httptest.NewRecorder()
		HeatingAlternatives(sug, zerolog.Nop())(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Alternatives []model.Emission `json:"alternatives"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Len(t, body.Alternatives, 1)
		assert.Equal(t, "Chauffage avec une pompe à chaleur", body.Alternatives[0].Name)
	})

	t.Run("season_defaults_to_year", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/heating/alternatives?m2=50&heating_id=1", nil)
		rec := httptest.NewRecorder()
		HeatingAlternatives(sug, zerolog.Nop())(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing_m2", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/heating/alternatives?heating_id=1", nil)
		rec := httptest.NewRecorder()
		HeatingAlternatives(sug, zerolog.Nop())(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bad_season", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/heating/alternatives?m2=50&heating_id=1&season=spring", nil)
		rec := httptest.NewRecorder()
		HeatingAlternatives(sug, zerolog.Nop())(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestTransportAlternativesHandler(t *testing.T) {
	sug := &stubSuggester{transport: []model.Emission{{ID: 7, Name: "Vélo", Value: 0}}}

	t.Run("ok", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/transport/alternatives?km=3&transport_id=4", nil)
		rec := httptest.NewRecorder()
		TransportAlternatives(sug, zerolog.Nop())(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Alternatives []model.Emission `json:"alternatives"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Len(t, body.Alternatives, 1)
	})

	t.Run("missing_transport_id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/transport/alternatives?km=3", nil)
		rec := httptest.NewRecorder()
		TransportAlternatives(sug, zerolog.Nop())(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing_km", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/transport/alternatives?transport_id=4", nil)
		rec := httptest.NewRecorder()
		TransportAlternatives(sug, zerolog.Nop())(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
