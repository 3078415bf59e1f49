package offers

import (
	"fmt"
	"strings"

	"github.com/yegors/weekend-fares/internal/amadeus"
	"github.com/yegors/weekend-fares/internal/fares"
)

// MalformedOfferError reports a passing offer that lacks a field needed to
// summarize its legs.
type MalformedOfferError struct {
	OfferID   string
	Itinerary int
	Segment   int
	Field     string
}

func (e *MalformedOfferError) Error() string {
	return fmt.Sprintf("malformed offer %q: itinerary %d segment %d is missing %s",
		e.OfferID, e.Itinerary, e.Segment, e.Field)
}

// IsCarrierOnly reports whether every segment is marketed by carrier, or
// every segment is operated by carrier. The two checks are independent: an
// offer where one segment matches only on marketing and another only on
// operating fails both.
func IsCarrierOnly(offer amadeus.Offer, carrier string) bool {
	allMarketing := true
	allOperating := true
	for _, itin := range offer.Itineraries {
		for _, seg := range itin.Segments {
			allMarketing = allMarketing && seg.CarrierCode == carrier
			allOperating = allOperating && seg.OperatingCarrier() == carrier
		}
	}
	return allMarketing || allOperating
}

// IsNonStop reports whether every itinerary is a single segment
func IsNonStop(offer amadeus.Offer) bool {
	for _, itin := range offer.Itineraries {
		if len(itin.Segments) != 1 {
			return false
		}
	}
	return true
}

// Extract flattens the carrier-only offers of one search response. The
// returned records carry price, airline, legs and the raw copy; route, dates
// and booking link are stamped by the caller. A malformed passing offer fails
// the whole response.
func Extract(payload *amadeus.SearchResponse, carrier string, enforceNonStop bool) ([]fares.Record, error) {
	if payload == nil {
		return []fares.Record{}, nil
	}

	records := make([]fares.Record, 0, len(payload.Data))
	for _, offer := range payload.Data {
		if !IsCarrierOnly(offer, carrier) {
			continue
		}
		if enforceNonStop && !IsNonStop(offer) {
			continue
		}

		record, err := Flatten(offer)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// Flatten converts one offer into a record
func Flatten(offer amadeus.Offer) (fares.Record, error) {
	legs := make([]string, 0, len(offer.Itineraries))
	for i, itin := range offer.Itineraries {
		summary, err := summarizeItinerary(offer.ID, i, itin)
		if err != nil {
			return fares.Record{}, err
		}
		legs = append(legs, summary)
	}

	record := fares.Record{
		ValidatingAirline: validatingAirline(offer),
		RawOffer:          string(offer.Raw),
	}
	if offer.Price != nil {
		record.PriceTotal = offer.Price.GrandTotal
		record.Currency = offer.Price.Currency
	}
	if len(legs) > 0 {
		record.OutboundLegs = legs[0]
	}
	if len(legs) > 1 {
		record.ReturnLegs = legs[1]
	}
	return record, nil
}

// validatingAirline prefers the list field and falls back to the single one
func validatingAirline(offer amadeus.Offer) string {
	if offer.ValidatingAirlineCodes != nil && !offer.ValidatingAirlineCodes.Empty() {
		return offer.ValidatingAirlineCodes.Joined()
	}
	if offer.ValidatingAirlineCode != nil {
		return offer.ValidatingAirlineCode.Joined()
	}
	return ""
}

func summarizeItinerary(offerID string, index int, itin amadeus.Itinerary) (string, error) {
	parts := make([]string, 0, len(itin.Segments))
	for j, seg := range itin.Segments {
		missing := missingField(seg)
		if missing != "" {
			return "", &MalformedOfferError{OfferID: offerID, Itinerary: index, Segment: j, Field: missing}
		}
		parts = append(parts, fmt.Sprintf("%s %s → %s %s (%s%s)",
			seg.Departure.IATACode, seg.Departure.At,
			seg.Arrival.IATACode, seg.Arrival.At,
			seg.CarrierCode, seg.Number,
		))
	}
	return strings.Join(parts, " | "), nil
}

func missingField(seg amadeus.Segment) string {
	switch {
	case seg.Departure == nil:
		return "departure"
	case seg.Departure.IATACode == "":
		return "departure.iataCode"
	case seg.Departure.At == "":
		return "departure.at"
	case seg.Arrival == nil:
		return "arrival"
	case seg.Arrival.IATACode == "":
		return "arrival.iataCode"
	case seg.Arrival.At == "":
		return "arrival.at"
	}
	return ""
}
