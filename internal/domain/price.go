package domain

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// PriceVisitor has one method per price shape. Adding a shape to Price means
// adding a method here, which breaks every visitor until it handles the shape.
type PriceVisitor interface {
	VisitCalculated(p CalculatedPrice)
	VisitList(p PriceList)
}

// Price is the closed set of variant price representations:
// CalculatedPrice or PriceList.
type Price interface {
	Accept(v PriceVisitor)
}

// CalculatedPrice is a price already computed by the backend for the shopper's region
type CalculatedPrice struct {
	Amount       *float64
	CurrencyCode string
}

func (p CalculatedPrice) Accept(v PriceVisitor) { v.VisitCalculated(p) }

// PriceEntry is one raw price of a variant
type PriceEntry struct {
	Amount       *float64 `json:"amount"`
	CurrencyCode string   `json:"currency_code,omitempty"`
}

// PriceList is the raw list of prices of a variant
type PriceList struct {
	Entries []PriceEntry
}

func (p PriceList) Accept(v PriceVisitor) { v.VisitList(p) }

// Variant is a purchasable product variant. A nil Price means the backend sent
// no price representation.
type Variant struct {
	ID    string
	Title string
	SKU   string
	Price Price
}

type variantWire struct {
	ID              string               `json:"id"`
	Title           string               `json:"title,omitempty"`
	SKU             string               `json:"sku,omitempty"`
	CalculatedPrice *calculatedPriceWire `json:"calculated_price,omitempty"`
	Prices          []priceEntryWire     `json:"prices,omitempty"`
}

type calculatedPriceWire struct {
	CalculatedAmount json.RawMessage `json:"calculated_amount"`
	CurrencyCode     string          `json:"currency_code,omitempty"`
}

type priceEntryWire struct {
	Amount       json.RawMessage `json:"amount"`
	CurrencyCode string          `json:"currency_code,omitempty"`
}

// UnmarshalJSON decodes the backend variant shape. The calculated price is
// authoritative when both shapes are present.
func (v *Variant) UnmarshalJSON(data []byte) error {
	var w variantWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*v = Variant{ID: w.ID, Title: w.Title, SKU: w.SKU}
	switch {
	case w.CalculatedPrice != nil:
		v.Price = CalculatedPrice{
			Amount:       parseAmount(w.CalculatedPrice.CalculatedAmount),
			CurrencyCode: w.CalculatedPrice.CurrencyCode,
		}
	case w.Prices != nil:
		entries := make([]PriceEntry, 0, len(w.Prices))
		for _, p := range w.Prices {
			entries = append(entries, PriceEntry{Amount: parseAmount(p.Amount), CurrencyCode: p.CurrencyCode})
		}
		v.Price = PriceList{Entries: entries}
	}
	return nil
}

func (v Variant) MarshalJSON() ([]byte, error) {
	w := variantWire{ID: v.ID, Title: v.Title, SKU: v.SKU}
	if v.Price != nil {
		v.Price.Accept(&wireEncoder{w: &w})
	}
	return json.Marshal(w)
}

type wireEncoder struct {
	w *variantWire
}

func (e *wireEncoder) VisitCalculated(p CalculatedPrice) {
	e.w.CalculatedPrice = &calculatedPriceWire{
		CalculatedAmount: encodeAmount(p.Amount),
		CurrencyCode:     p.CurrencyCode,
	}
}

func (e *wireEncoder) VisitList(p PriceList) {
	e.w.Prices = make([]priceEntryWire, 0, len(p.Entries))
	for _, entry := range p.Entries {
		e.w.Prices = append(e.w.Prices, priceEntryWire{Amount: encodeAmount(entry.Amount), CurrencyCode: entry.CurrencyCode})
	}
}

// parseAmount accepts a JSON number or a numeric string; anything else is absent.
func parseAmount(raw json.RawMessage) *float64 {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return &f
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}
	return &f
}

func encodeAmount(amount *float64) json.RawMessage {
	if amount == nil || math.IsNaN(*amount) || math.IsInf(*amount, 0) {
		return json.RawMessage("null")
	}
	return json.RawMessage(strconv.FormatFloat(*amount, 'f', -1, 64))
}

// Amount is a helper for building prices in code
func Amount(f float64) *float64 {
	return &f
}
