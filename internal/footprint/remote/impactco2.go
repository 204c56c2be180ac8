package remote

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"carbon-index-service/internal/footprint/model"
)

// HeatingOptions are the heating systems the emission API knows about.
var HeatingOptions = map[int]string{
	1: "Chauffage au gaz",
	2: "Chauffage au fioul",
	3: "Chauffage électrique",
	4: "Chauffage avec une pompe à chaleur",
	5: "Chauffage avec un poêle à granulés",
	6: "Chauffage avec un poêle à bois",
	7: "Chauffage via un réseau de chaleur",
}

// TransportOptions are the transport modes of the emission API.
var TransportOptions = map[int]string{
	1:  "Avion",
	2:  "TGV",
	3:  "Intercités",
	4:  "Voiture thermique",
	5:  "Voiture électrique",
	6:  "Autocar thermique",
	7:  "Vélo",
	8:  "Vélo à assistance électrique",
	9:  "Bus thermique",
	10: "Tramway",
	11: "Métro",
	12: "Scooter ou moto légère thermique",
	13: "Moto thermique",
	14: "RER ou Transilien",
	15: "TER",
	16: "Bus électrique",
	17: "Trottinette à assistance électrique",
	21: "Bus (GNV)",
	22: "Covoiturage thermique (1 passager)",
	23: "Covoiturage thermique (2 passagers)",
	24: "Covoiturage thermique (3 passagers)",
	25: "Covoiturage thermique (4 passagers)",
	26: "Covoiturage électrique (1 passager)",
	27: "Covoiturage électrique (2 passagers)",
	28: "Covoiturage électrique (3 passagers)",
	29: "Covoiturage électrique (4 passagers)",
	30: "Marche",
}

// credibleRanges bound the distances (km) over which each transport mode is a
// realistic alternative; a plane does not replace a 3 km bus ride.
var credibleRanges = map[int][2]float64{
	1:  {200, math.Inf(1)},
	2:  {100, math.Inf(1)},
	3:  {10, 400},
	4:  {5, 1000},
	5:  {5, 1000},
	6:  {0.1, 500},
	7:  {0.1, 20},
	8:  {0.1, 50},
	9:  {0.2, 100},
	10: {0.5, 30},
	11: {0.1, 50},
	12: {0.5, 100},
	13: {0.8, 300},
	14: {0.5, 200},
	15: {0.5, 300},
	16: {0.1, 100},
	17: {0.1, 10},
	21: {0.5, 100},
	22: {5, 1000},
	23: {5, 1000},
	24: {5, 1000},
	25: {5, 1000},
	26: {5, 1000},
	27: {5, 1000},
	28: {5, 1000},
	29: {5, 1000},
	30: {0.01, 10},
}

// ImpactClient talks to the emission-factor API for heating and transport.
// Failed calls degrade to nil, never to an error that aborts a request.
type ImpactClient struct {
	baseURL  string
	language string
	http     *http.Client
	log      zerolog.Logger
}

func NewImpactClient(baseURL, language string, timeout time.Duration, log zerolog.Logger) *ImpactClient {
	return &ImpactClient{
		baseURL:  strings.TrimRight(baseURL, "/"),
		language: language,
		http:     &http.Client{Timeout: timeout},
		log:      log,
	}
}

type heatingResponse struct {
	Data []struct {
		Name string  `json:"name"`
		ECV  float64 `json:"ecv"`
	} `json:"data"`
}

type transportResponse struct {
	Data []struct {
		ID    int     `json:"id"`
		Name  string  `json:"name"`
		Value float64 `json:"value"`
	} `json:"data"`
}

func joinIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}

// HeatingEmissions fetches emissions for the given systems over m2 square
// meters and applies the seasonal multiplier client-side.
func (c *ImpactClient) HeatingEmissions(ctx context.Context, m2 float64, ids []int, season model.Season) []model.Emission {
	q := url.Values{
		"m2":         {strconv.FormatFloat(m2, 'f', -1, 64)},
		"chauffages": {joinIDs(ids)},
		"language":   {c.language},
	}
	var body heatingResponse
	if !c.get(ctx, "/chauffage", q, &body) {
		return nil
	}
	if len(body.Data) == 0 {
		c.log.Warn().Float64("m2", m2).Msg("no emissions data in heating response")
		return nil
	}
	factor := season.Factor()
	out := make([]model.Emission, 0, len(body.Data))
	for _, d := range body.Data {
		out = append(out, model.Emission{Name: d.Name, Value: d.ECV * factor})
	}
	return out
}

// TransportEmissions fetches emissions for the given modes over km.
// No local adjustment applies.
func (c *ImpactClient) TransportEmissions(ctx context.Context, km float64, ids []int) []model.Emission {
	q := url.Values{
		"km":         {strconv.FormatFloat(km, 'f', -1, 64)},
		"transports": {joinIDs(ids)},
		"language":   {c.language},
	}
	var body transportResponse
	if !c.get(ctx, "/transport", q, &body) {
		return nil
	}
	if len(body.Data) == 0 {
		c.log.Warn().Float64("km", km).Msg("no emissions data in transport response")
		return nil
	}
	out := make([]model.Emission, 0, len(body.Data))
	for _, d := range body.Data {
		out = append(out, model.Emission{ID: d.ID, Name: d.Name, Value: d.Value})
	}
	return out
}

// SuggestHeatingAlternatives returns up to three systems emitting strictly
// less than the current one for the same area and season, best first.
func (c *ImpactClient) SuggestHeatingAlternatives(ctx context.Context, m2 float64, currentID int, season model.Season) []model.Emission {
	currentName, ok := HeatingOptions[currentID]
	if !ok {
		c.log.Warn().Int("heating_id", currentID).Msg("unknown heating system")
		return nil
	}
	ids := sortedKeys(HeatingOptions)
	all := c.HeatingEmissions(ctx, m2, ids, season)
	if all == nil {
		return nil
	}
	var current *model.Emission
	for i := range all {
		if all[i].Name == currentName {
			current = &all[i]
			break
		}
	}
	if current == nil {
		c.log.Warn().Int("heating_id", currentID).Msg("current heating system absent from response")
		return nil
	}
	alts := make([]model.Emission, 0, len(all))
	for _, e := range all {
		if e.Value < current.Value {
			alts = append(alts, e)
		}
	}
	sort.Slice(alts, func(i, j int) bool { return alts[i].Value < alts[j].Value })
	return top3(alts)
}

// SuggestTransportAlternatives returns up to three lower-emission modes whose
// credible distance range covers km, best first.
func (c *ImpactClient) SuggestTransportAlternatives(ctx context.Context, km float64, currentID int) []model.Emission {
	if _, ok := TransportOptions[currentID]; !ok {
		c.log.Warn().Int("transport_id", currentID).Msg("unknown transport mode")
		return nil
	}
	ids := sortedKeys(TransportOptions)
	all := c.TransportEmissions(ctx, km, ids)
	if all == nil {
		return nil
	}
	var current *model.Emission
	for i := range all {
		if all[i].ID == currentID {
			current = &all[i]
			break
		}
	}
	if current == nil {
		c.log.Warn().Int("transport_id", currentID).Msg("current transport mode absent from response")
		return nil
	}
	alts := make([]model.Emission, 0, len(all))
	for _, e := range all {
		rng, ok := credibleRanges[e.ID]
		if !ok {
			continue
		}
		if e.Value < current.Value && rng[0] <= km && km <= rng[1] {
			alts = append(alts, e)
		}
	}
	sort.Slice(alts, func(i, j int) bool { return alts[i].Value < alts[j].Value })
	return top3(alts)
}

func (c *ImpactClient) get(ctx context.Context, path string, q url.Values, into any) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("path", path).Msg("emission api failed")
		return false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		c.log.Warn().Int("status", resp.StatusCode).Str("path", path).Msg("emission api non-200")
		return false
	}
	if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
		c.log.Warn().Err(err).Str("path", path).Msg("emission api bad json")
		return false
	}
	return true
}

func sortedKeys(m map[int]string) []int {
	ids := make([]int, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func top3(e []model.Emission) []model.Emission {
	if len(e) > 3 {
		return e[:3]
	}
	return e
}
