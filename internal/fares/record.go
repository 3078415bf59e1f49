package fares

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// Columns is the persisted table schema, in order. The raw offer copy is
// deliberately not part of it.
var Columns = []string{
	"origin",
	"destination",
	"depart_date",
	"return_date",
	"price_total",
	"currency",
	"validating_airline",
	"outbound_legs",
	"return_legs",
	"united_booking_link",
}

// unparsedPrice sorts records without a numeric price after everything else
const unparsedPrice = 1e12

// Record is one flattened carrier-only offer for one weekend window
type Record struct {
	Origin            string `json:"origin"`
	Destination       string `json:"destination"`
	DepartDate        string `json:"depart_date"`
	ReturnDate        string `json:"return_date"`
	PriceTotal        string `json:"price_total"`
	Currency          string `json:"currency"`
	ValidatingAirline string `json:"validating_airline"`
	OutboundLegs      string `json:"outbound_legs"`
	ReturnLegs        string `json:"return_legs"`
	BookingLink       string `json:"united_booking_link"`

	// RawOffer is the audit copy of the upstream offer. Never persisted.
	RawOffer string `json:"-"`
}

// Values returns the record's fields in Columns order
func (r Record) Values() []string {
	return []string{
		r.Origin,
		r.Destination,
		r.DepartDate,
		r.ReturnDate,
		r.PriceTotal,
		r.Currency,
		r.ValidatingAirline,
		r.OutboundLegs,
		r.ReturnLegs,
		r.BookingLink,
	}
}

// ParsePrice parses a decimal price. NaN and infinities count as unparseable.
func ParsePrice(value string) (float64, bool) {
	price, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, false
	}
	return price, true
}

// sortablePrice maps unparseable prices to a sentinel so they sort last
func sortablePrice(value string) float64 {
	if price, ok := ParsePrice(value); ok {
		return price
	}
	return unparsedPrice
}

// Sort orders records by depart date, then by numeric price. Records whose
// price can't be parsed come last within their date.
func Sort(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].DepartDate != records[j].DepartDate {
			return records[i].DepartDate < records[j].DepartDate
		}
		return sortablePrice(records[i].PriceTotal) < sortablePrice(records[j].PriceTotal)
	})
}

// BookingLink expands a booking URL template. Supported placeholders are
// {origin}, {destination}, {depart} and {return}.
func BookingLink(template, origin, destination, depart, ret string) string {
	return strings.NewReplacer(
		"{origin}", origin,
		"{destination}", destination,
		"{depart}", depart,
		"{return}", ret,
	).Replace(template)
}
