package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Product is a remote lookup hit with a usable emission figure.
type Product struct {
	Name    string
	Per100g float64 // kg CO2e per 100 g
}

// ProductClient queries the public product database by free-text name.
// It never returns an error past this boundary: any timeout, non-200 or
// missing field degrades to "not found".
type ProductClient struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

func NewProductClient(baseURL string, timeout time.Duration, log zerolog.Logger) *ProductClient {
	return &ProductClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

// flexFloat tolerates the API returning numbers either bare or quoted.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		// garbage field, treat as absent
		*f = 0
		return nil
	}
	*f = flexFloat(v)
	return nil
}

type productResponse struct {
	Products []struct {
		ProductName         string    `json:"product_name"`
		CarbonFootprint100g flexFloat `json:"carbon_footprint_100g"`
	} `json:"products"`
}

// Lookup searches for the product by name, page size 1.
func (c *ProductClient) Lookup(ctx context.Context, name string) (Product, bool) {
	q := url.Values{
		"search_terms":  {name},
		"search_simple": {"1"},
		"json":          {"1"},
		"page_size":     {"1"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return Product{}, false
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("product", name).Msg("product lookup failed")
		return Product{}, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Warn().Int("status", resp.StatusCode).Str("product", name).Msg("product lookup non-200")
		return Product{}, false
	}

	var body productResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		c.log.Warn().Err(err).Str("product", name).Msg("product lookup bad json")
		return Product{}, false
	}
	if len(body.Products) == 0 {
		return Product{}, false
	}
	p := body.Products[0]
	if p.CarbonFootprint100g == 0 {
		// no emission data in the response counts as no match
		return Product{}, false
	}
	prodName := p.ProductName
	if prodName == "" {
		prodName = "Unknown Product"
	}
	return Product{Name: prodName, Per100g: float64(p.CarbonFootprint100g)}, true
}
