package amadeus

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// SearchRequest contains the parameters of one round-trip offer search
type SearchRequest struct {
	Origin      string
	Destination string
	DepartDate  string
	ReturnDate  string
	Adults      int
	Currency    string
	TravelClass string // optional: ECONOMY, PREMIUM_ECONOMY, BUSINESS, FIRST
	NonStop     bool
}

// SearchResponse is the flight-offers search payload
type SearchResponse struct {
	Data []Offer `json:"data"`
}

// Offer is a priced itinerary combination. Optional nested blocks are
// pointers so a missing block can be told apart from an empty one.
type Offer struct {
	ID                     string             `json:"id,omitempty"`
	Itineraries            []Itinerary        `json:"itineraries"`
	Price                  *Price             `json:"price,omitempty"`
	ValidatingAirlineCodes *ValidatingAirline `json:"validatingAirlineCodes,omitempty"`
	ValidatingAirlineCode  *ValidatingAirline `json:"validatingAirlineCode,omitempty"`

	// Raw is the offer exactly as received, compacted
	Raw json.RawMessage `json:"-"`
}

type offerFields Offer

// UnmarshalJSON decodes the typed fields and keeps a compact raw copy
func (o *Offer) UnmarshalJSON(data []byte) error {
	var fields offerFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	var raw bytes.Buffer
	if err := json.Compact(&raw, data); err != nil {
		return err
	}

	*o = Offer(fields)
	o.Raw = raw.Bytes()
	return nil
}

// Itinerary is one direction of the trip
type Itinerary struct {
	Duration string    `json:"duration,omitempty"`
	Segments []Segment `json:"segments"`
}

// Segment is a single flight
type Segment struct {
	Departure   *Endpoint  `json:"departure,omitempty"`
	Arrival     *Endpoint  `json:"arrival,omitempty"`
	CarrierCode string     `json:"carrierCode,omitempty"`
	Number      string     `json:"number,omitempty"`
	Operating   *Operating `json:"operating,omitempty"`
}

// OperatingCarrier returns the operating carrier, falling back to the
// marketing carrier when the segment doesn't name one.
func (s Segment) OperatingCarrier() string {
	if s.Operating != nil && s.Operating.CarrierCode != "" {
		return s.Operating.CarrierCode
	}
	return s.CarrierCode
}

// Endpoint is a departure or arrival
type Endpoint struct {
	IATACode string `json:"iataCode,omitempty"`
	Terminal string `json:"terminal,omitempty"`
	At       string `json:"at,omitempty"`
}

// Operating names the carrier that flies a codeshare segment
type Operating struct {
	CarrierCode string `json:"carrierCode,omitempty"`
}

// Price is the offer's price block. Totals are decimal strings.
type Price struct {
	Currency   string `json:"currency,omitempty"`
	Total      string `json:"total,omitempty"`
	Base       string `json:"base,omitempty"`
	GrandTotal string `json:"grandTotal,omitempty"`
}

// ValidatingAirline is either a single airline code or a list of codes
type ValidatingAirline struct {
	Single string
	List   []string
	IsList bool
}

// UnmarshalJSON accepts both "UA" and ["UA", "LH"]
func (v *ValidatingAirline) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*v = ValidatingAirline{}
		return nil
	}

	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []string
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return fmt.Errorf("invalid validating airline list: %w", err)
		}
		*v = ValidatingAirline{List: list, IsList: true}
		return nil
	}

	var single string
	if err := json.Unmarshal(trimmed, &single); err != nil {
		return fmt.Errorf("invalid validating airline code: %w", err)
	}
	*v = ValidatingAirline{Single: single}
	return nil
}

// MarshalJSON writes the value back in the shape it was received
func (v ValidatingAirline) MarshalJSON() ([]byte, error) {
	if v.IsList {
		if v.List == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.List)
	}
	return json.Marshal(v.Single)
}

// Empty reports whether the value names no airline
func (v ValidatingAirline) Empty() bool {
	if v.IsList {
		return len(v.List) == 0
	}
	return v.Single == ""
}

// Joined normalizes the value to a single comma-separated string
func (v ValidatingAirline) Joined() string {
	if v.IsList {
		return strings.Join(v.List, ",")
	}
	return v.Single
}
