package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"github.com/curelink/records-portal/internal/models"
	"github.com/samber/lo"
)

// Vendor keys of the scraper's per-site response shape, in display order
var legacyVendors = []struct {
	key  string
	name string
}{
	{"one_mg", "1mg"},
	{"apollopharmacy", "Apollo Pharmacy"},
	{"pharmeasy", "PharmEasy"},
}

// MedicineSearch is the parsed fetch-medicines answer
type MedicineSearch struct {
	Success bool
	Quotes  []models.MedicineQuote
}

// text decodes a JSON string or number into its textual form
type text string

func (t *text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*t = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = text(s)
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return err
		}
		*t = text(n.String())
	}
	return nil
}

type quoteJSON struct {
	Store              string `json:"store"`
	Title              string `json:"title"`
	Titile             string `json:"titile"`
	Name               string `json:"name"`
	PackSize           string `json:"pack_size"`
	UnitSize           string `json:"unit_size"`
	Price              text   `json:"price"`
	DiscountPrice      text   `json:"discount_price"`
	OriginalPrice      text   `json:"original_price"`
	DiscountPercentage text   `json:"discount_percentage"`
	URL                string `json:"url"`
}

func (q quoteJSON) toQuote(vendor string) models.MedicineQuote {
	price := q.Price
	if price == "" {
		price = q.DiscountPrice
	}
	if vendor == "" {
		vendor = q.Store
	}
	title, _ := lo.Coalesce(q.Title, q.Titile, q.Name)
	packSize, _ := lo.Coalesce(q.PackSize, q.UnitSize)
	return models.MedicineQuote{
		VendorName:         vendor,
		Title:              title,
		PackSize:           packSize,
		Price:              strings.TrimSpace(string(price)),
		OriginalPrice:      string(q.OriginalPrice),
		DiscountPercentage: string(q.DiscountPercentage),
		URL:                q.URL,
	}
}

// FetchMedicines runs a price search across pharmacy vendors
func (c *Client) FetchMedicines(ctx context.Context, query string) (*MedicineSearch, error) {
	var raw map[string]json.RawMessage
	if err := c.post(ctx, pathFetchMedicines, map[string]string{"search": query}, &raw); err != nil {
		return nil, err
	}
	return parseMedicines(raw)
}

func parseMedicines(raw map[string]json.RawMessage) (*MedicineSearch, error) {
	var success bool
	field, ok := raw["success"]
	if !ok {
		return nil, malformed(pathFetchMedicines, "missing success")
	}
	if err := json.Unmarshal(field, &success); err != nil {
		return nil, malformed(pathFetchMedicines, "success: %v", err)
	}

	res := &MedicineSearch{Success: success}
	if !success {
		return res, nil
	}

	if results, ok := raw["results"]; ok {
		var list []quoteJSON
		if err := json.Unmarshal(results, &list); err != nil {
			return nil, malformed(pathFetchMedicines, "results: %v", err)
		}
		res.Quotes = lo.Map(list, func(q quoteJSON, _ int) models.MedicineQuote {
			return q.toQuote("")
		})
	}

	for _, v := range legacyVendors {
		field, ok := raw[v.key]
		if !ok || bytes.Equal(bytes.TrimSpace(field), []byte("null")) {
			continue
		}
		var q quoteJSON
		if err := json.Unmarshal(field, &q); err != nil {
			return nil, malformed(pathFetchMedicines, "%s: %v", v.key, err)
		}
		res.Quotes = append(res.Quotes, q.toQuote(v.name))
	}

	return res, nil
}
