// Package openfoodfacts searches the Open Food Facts product database.
package openfoodfacts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"nutrihelper/internal/core"
)

const DefaultBaseURL = "https://world.openfoodfacts.org"

// Number accepts JSON numbers, numeric strings and null.
type Number struct {
	Value float64
	Valid bool
}

func (n *Number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*n = Number{}
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*n = Number{}
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			*n = Number{}
			return nil
		}
		*n = Number{Value: v, Valid: true}
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("parse nutriment: %w", err)
	}
	*n = Number{Value: v, Valid: true}
	return nil
}

type nutriments struct {
	EnergyKcal    Number `json:"energy-kcal"`
	Proteins      Number `json:"proteins"`
	Carbohydrates Number `json:"carbohydrates"`
	Fat           Number `json:"fat"`
	Fiber         Number `json:"fiber"`
	Sugars        Number `json:"sugars"`
}

type product struct {
	ID          string     `json:"id"`
	Code        string     `json:"code"`
	ProductName string     `json:"product_name"`
	Nutriments  nutriments `json:"nutriments"`
}

type searchResponse struct {
	Products []product `json:"products"`
}

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Search returns products matching terms that carry a name, an id and all
// six per-100 g nutriments. Incomplete products are left out.
func (c *Client) Search(ctx context.Context, terms string) ([]core.FoodCandidate, error) {
	terms = strings.TrimSpace(terms)
	if terms == "" {
		return nil, nil
	}

	q := url.Values{}
	q.Set("search_terms", terms)
	q.Set("search_simple", "1")
	q.Set("action", "process")
	q.Set("json", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/cgi/search.pl?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "nutrihelper/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
		return nil, fmt.Errorf("search products: unexpected status %d", resp.StatusCode)
	}

	var body searchResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 16<<20)).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	out := make([]core.FoodCandidate, 0, len(body.Products))
	for _, p := range body.Products {
		if cand, ok := p.candidate(); ok {
			out = append(out, cand)
		}
	}
	return out, nil
}

func (p product) candidate() (core.FoodCandidate, bool) {
	id := p.ID
	if id == "" {
		id = p.Code
	}
	name := strings.TrimSpace(p.ProductName)
	n := p.Nutriments
	if id == "" || name == "" {
		return core.FoodCandidate{}, false
	}
	for _, v := range []Number{n.EnergyKcal, n.Proteins, n.Carbohydrates, n.Fat, n.Fiber, n.Sugars} {
		if !v.Valid {
			return core.FoodCandidate{}, false
		}
	}
	return core.FoodCandidate{
		ID:   id,
		Name: name,
		Macros: core.Macros{
			Calories:      n.EnergyKcal.Value,
			Protein:       n.Proteins.Value,
			Fat:           n.Fat.Value,
			Carbohydrates: n.Carbohydrates.Value,
			Fiber:         n.Fiber.Value,
			Sugar:         n.Sugars.Value,
		},
	}, true
}
