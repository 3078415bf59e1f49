package amadeus

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidatingAirlineShapes(t *testing.T) {
	cases := []struct {
		input  string
		joined string
		isList bool
	}{
		{input: `"UA"`, joined: "UA"},
		{input: `["UA"]`, joined: "UA", isList: true},
		{input: `["UA","LH"]`, joined: "UA,LH", isList: true},
		{input: `[]`, joined: "", isList: true},
	}

	for _, test := range cases {
		var v ValidatingAirline
		require.NoError(t, json.Unmarshal([]byte(test.input), &v))
		require.Equal(t, test.joined, v.Joined())
		require.Equal(t, test.isList, v.IsList)

		out, err := json.Marshal(v)
		require.NoError(t, err)
		require.JSONEq(t, test.input, string(out))
	}

	var v ValidatingAirline
	require.Error(t, json.Unmarshal([]byte(`42`), &v))
}

func TestOfferKeepsRawCopy(t *testing.T) {
	input := `{
		"id": "7",
		"itineraries": [{"segments": [{"carrierCode": "UA", "operating": {"carrierCode": "OO"}}]}],
		"validatingAirlineCode": "UA",
		"somethingUnmodelled": {"nested": true}
	}`

	var offer Offer
	require.NoError(t, json.Unmarshal([]byte(input), &offer))

	require.Equal(t, "7", offer.ID)
	require.Nil(t, offer.Price)
	require.Nil(t, offer.ValidatingAirlineCodes)
	require.Equal(t, "UA", offer.ValidatingAirlineCode.Joined())
	require.Equal(t, "OO", offer.Itineraries[0].Segments[0].OperatingCarrier())
	require.JSONEq(t, input, string(offer.Raw))
	require.NotContains(t, string(offer.Raw), "\n")
}

func TestOperatingCarrierFallsBackToMarketing(t *testing.T) {
	require.Equal(t, "UA", Segment{CarrierCode: "UA"}.OperatingCarrier())
	require.Equal(t, "UA", Segment{CarrierCode: "UA", Operating: &Operating{}}.OperatingCarrier())
	require.Equal(t, "SKW", Segment{CarrierCode: "UA", Operating: &Operating{CarrierCode: "SKW"}}.OperatingCarrier())
}
