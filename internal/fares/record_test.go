package fares

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func prices(records []Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.PriceTotal)
	}
	return out
}

func TestSortUnparseablePricesLast(t *testing.T) {
	records := []Record{
		{DepartDate: "2025-03-07", PriceTotal: "100"},
		{DepartDate: "2025-03-07", PriceTotal: "abc"},
		{DepartDate: "2025-03-07", PriceTotal: "50"},
	}

	Sort(records)
	require.Equal(t, []string{"50", "100", "abc"}, prices(records))
}

func TestSortByDateThenPrice(t *testing.T) {
	records := []Record{
		{DepartDate: "2025-03-14", PriceTotal: "20.00"},
		{DepartDate: "2025-03-07", PriceTotal: ""},
		{DepartDate: "2025-03-07", PriceTotal: "310.25"},
		{DepartDate: "2025-03-07", PriceTotal: "99.9"},
		{DepartDate: "2025-03-14", PriceTotal: "NaN"},
	}

	Sort(records)

	expected := []Record{
		{DepartDate: "2025-03-07", PriceTotal: "99.9"},
		{DepartDate: "2025-03-07", PriceTotal: "310.25"},
		{DepartDate: "2025-03-07", PriceTotal: ""},
		{DepartDate: "2025-03-14", PriceTotal: "20.00"},
		{DepartDate: "2025-03-14", PriceTotal: "NaN"},
	}
	if diff := cmp.Diff(expected, records); diff != "" {
		t.Fatalf("unexpected order (-want +got):\n%s", diff)
	}
}

func TestParsePrice(t *testing.T) {
	price, ok := ParsePrice(" 189.40 ")
	require.True(t, ok)
	require.InDelta(t, 189.40, price, 1e-9)

	for _, bad := range []string{"", "abc", "NaN", "inf", "12,50"} {
		_, ok := ParsePrice(bad)
		require.False(t, ok, bad)
	}
}

func TestValuesFollowColumns(t *testing.T) {
	r := Record{
		Origin:            "SFO",
		Destination:       "BIH",
		DepartDate:        "2025-03-07",
		ReturnDate:        "2025-03-09",
		PriceTotal:        "189.40",
		Currency:          "USD",
		ValidatingAirline: "UA",
		OutboundLegs:      "out",
		ReturnLegs:        "back",
		BookingLink:       "link",
		RawOffer:          `{"id":"1"}`,
	}

	values := r.Values()
	require.Len(t, values, len(Columns))
	require.NotContains(t, values, r.RawOffer)
	require.Equal(t, "SFO", values[0])
	require.Equal(t, "link", values[len(values)-1])
}

func TestBookingLink(t *testing.T) {
	link := BookingLink(
		"https://www.united.com/en/us/fsr/choose-flights?f={origin}&t={destination}&d={depart}&r={return}&tqp=R",
		"SFO", "BIH", "2025-03-07", "2025-03-09",
	)
	require.Equal(t, "https://www.united.com/en/us/fsr/choose-flights?f=SFO&t=BIH&d=2025-03-07&r=2025-03-09&tqp=R", link)
}
