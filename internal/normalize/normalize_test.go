package normalize

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rxcompare/price-service/internal/types"
)

const flatPayload = `{
  "pharmacies": [
    {"name": "CVS Pharmacy", "price": "$12.99", "distance": "1.2 miles",
     "address": "100 Congress Ave", "city": "Austin", "state": "TX", "zip": "78701",
     "phone": "512-555-0100", "latitude": 30.2672, "longitude": -97.7431,
     "open24H": true, "driveUpWindow": false, "handicapAccess": true},
    {"pharmacyName": "H-E-B Pharmacy", "price": 9.5, "distance": 3,
     "address": "2400 S Congress Ave", "city": "Austin", "state": "TX", "zipCode": "78704",
     "phoneNumber": "512-555-0199"}
  ]
}`

const nestedPayload = `{
  "data": {
    "pharmacyPrices": [
      {"pharmacy": {"pharmacyName": "CVS Pharmacy", "distance": 1.2,
                    "address": {"address1": "100 Congress Ave", "city": "Austin", "state": "TX", "zipCode": "78701"},
                    "phoneNumber": "512-555-0100", "lat": "30.2672", "lng": "-97.7431",
                    "open24Hours": "Y", "driveThru": "N", "handicapAccessible": 1},
       "price": {"amount": 12.99}},
      {"pharmacy": {"name": "H-E-B Pharmacy", "distance": "3 mi",
                    "address": "2400 S Congress Ave", "city": "Austin", "state": "TX", "postalCode": "78704",
                    "phone": "512-555-0199"},
       "price": {"price": "9.50"}}
    ]
  }
}`

func TestFlatAndNestedShapesAreEquivalent(t *testing.T) {
	flat, err := Offers([]byte(flatPayload), "price-by-name", nil)
	require.NoError(t, err)
	nested, err := Offers([]byte(nestedPayload), "price-by-gsn", nil)
	require.NoError(t, err)

	require.Len(t, flat, 2)
	assert.Equal(t, flat, nested)

	cvs := flat[0]
	assert.Equal(t, "CVS Pharmacy", cvs.PharmacyName)
	assert.Equal(t, 12.99, cvs.Price)
	assert.Equal(t, 1.2, cvs.DistanceMiles)
	assert.Equal(t, "78701", cvs.PostalCode)
	require.NotNil(t, cvs.Latitude)
	assert.Equal(t, 30.2672, *cvs.Latitude)
	assert.True(t, cvs.Open24H)
	assert.False(t, cvs.DriveUpWindow)
	assert.True(t, cvs.HandicapAccess)
	assert.Equal(t, types.DataSourceUpstream, cvs.DataSource)

	heb := flat[1]
	assert.Equal(t, 9.5, heb.Price)
	assert.Nil(t, heb.Latitude)
	assert.Equal(t, "78704", heb.PostalCode)
}

func TestOffersCoercesPrices(t *testing.T) {
	tests := []struct {
		price string
		want  float64
	}{
		{`12.99`, 12.99},
		{`"12.99"`, 12.99},
		{`"$1,012.50"`, 1012.50},
		{`"7.5 USD"`, 7.5},
		{`12.346`, 12.35},
		{`0`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.price, func(t *testing.T) {
			raw := `{"pharmacies":[{"name":"Walgreens","price":` + tt.price + `}]}`
			offers, err := Offers([]byte(raw), "test", nil)
			require.NoError(t, err)
			require.Len(t, offers, 1)
			assert.Equal(t, tt.want, offers[0].Price)
		})
	}
}

func TestOffersParsesDistances(t *testing.T) {
	tests := []struct {
		distance string
		want     float64
	}{
		{`1.2`, 1.2},
		{`"1.2 miles"`, 1.2},
		{`"1.2 mi"`, 1.2},
		{`"1 mile"`, 1},
		{`"0.5"`, 0.5},
		{`"2 km"`, 1.24},
		{`"far"`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.distance, func(t *testing.T) {
			raw := `{"pharmacies":[{"name":"Walgreens","price":5,"distance":` + tt.distance + `}]}`
			offers, err := Offers([]byte(raw), "test", nil)
			require.NoError(t, err)
			require.Len(t, offers, 1)
			assert.Equal(t, tt.want, offers[0].DistanceMiles)
		})
	}
}

func TestOffersComputesMissingDistanceFromOrigin(t *testing.T) {
	raw := `{"pharmacies":[{"name":"Walgreens","price":5,"latitude":30.50,"longitude":-97.75}]}`
	origin := &types.Location{Latitude: 30.40, Longitude: -97.75, RadiusMiles: 10}

	offers, err := Offers([]byte(raw), "test", origin)
	require.NoError(t, err)
	require.Len(t, offers, 1)
	assert.InDelta(t, 6.91, offers[0].DistanceMiles, 0.02)
}

func TestOffersDropsUnusableRecords(t *testing.T) {
	raw := `{"pharmacies":[
	  {"price": 10},
	  {"name": "  ", "price": 10},
	  {"name": "No Price"},
	  {"name": "Negative", "price": -1},
	  {"name": "Garbage", "price": "call for price"},
	  "not an object",
	  {"name": "Kept", "price": "4.00"}
	]}`
	offers, err := Offers([]byte(raw), "test", nil)
	require.NoError(t, err)
	require.Len(t, offers, 1)
	assert.Equal(t, "Kept", offers[0].PharmacyName)
}

func TestOffersToleratesUnknownShapes(t *testing.T) {
	for _, raw := range []string{`{}`, `{"message":"no results"}`, `[]`, `null`, `{"pharmacies":[]}`, `"ok"`} {
		offers, err := Offers([]byte(raw), "test", nil)
		require.NoError(t, err, raw)
		assert.Empty(t, offers, raw)
	}
}

func TestOffersSkipsEmptyListForPopulatedEnvelope(t *testing.T) {
	raw := `{"pharmacies":[],"data":{"pharmacyPrices":[{"pharmacy":{"name":"Walgreens"},"price":"11.40"}]}}`

	offers, err := Offers([]byte(raw), "price-by-name", nil)
	require.NoError(t, err)
	require.Len(t, offers, 1)
	assert.Equal(t, "Walgreens", offers[0].PharmacyName)
	assert.Equal(t, 11.40, offers[0].Price)
}

func TestOffersRejectsInvalidJSON(t *testing.T) {
	_, err := Offers([]byte(`<html>502 Bad Gateway</html>`), "price-by-gsn", nil)
	var se *types.SchemaError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "price-by-gsn", se.Source)
}

func TestDrug(t *testing.T) {
	raw := `{"pharmacies": [], "drug": {
	  "brandName": "Lipitor", "genericName": "atorvastatin", "gsn": "16784",
	  "forms": [{"label": "tablet", "selected": true}, {"label": "capsule", "selected": true}],
	  "strengths": [{"label": "10mg", "gsn": 16784}, {"label": "20mg", "gsn": 16785}],
	  "quantities": ["30", "90"]
	}}`
	drug, err := Drug([]byte(raw))
	require.NoError(t, err)
	require.NotNil(t, drug)

	assert.Equal(t, "Lipitor", drug.BrandName)
	assert.Equal(t, "atorvastatin", drug.GenericName)
	assert.Equal(t, 16784, drug.GSN)

	require.Len(t, drug.Forms, 2)
	assert.True(t, drug.Forms[0].Selected)
	assert.False(t, drug.Forms[1].Selected, "only one entry may stay selected")

	def, ok := drug.Strengths.Default()
	require.True(t, ok)
	assert.Equal(t, "10mg", def.Label)
	assert.Equal(t, 16784, def.GSN)

	assert.Equal(t, "90", drug.Quantities[1].Label)
}

func TestDrugAbsent(t *testing.T) {
	drug, err := Drug([]byte(`{"pharmacies": []}`))
	require.NoError(t, err)
	assert.Nil(t, drug)
}

func TestNames(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"strings", `["Lipitor", "Lisinopril"]`, []string{"Lipitor", "Lisinopril"}},
		{"label objects", `[{"label":"Lipitor","value":"lipitor"},{"label":"Lisinopril"}]`, []string{"Lipitor", "Lisinopril"}},
		{"wrapped", `{"names": ["Lipitor"]}`, []string{"Lipitor"}},
		{"data wrapped", `{"data": {"drugNames": ["Lipitor"]}}`, []string{"Lipitor"}},
		{"single", `{"drugName": "atorvastatin"}`, []string{"atorvastatin"}},
		{"dedupe", `["Lipitor", " lipitor ", "LIPITOR", ""]`, []string{"Lipitor"}},
		{"empty", `{}`, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Names([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := Names([]byte(`not json`))
	var se *types.SchemaError
	assert.True(t, errors.As(err, &se))
}

func TestGSN(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{`{"gsn": 16784}`, 16784},
		{`{"gsn": "16784"}`, 16784},
		{`{"data": {"gsn": 16784}}`, 16784},
		{`[{"gsn": 16784}]`, 16784},
		{`{"gsn": null}`, 0},
		{`{}`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := GSN([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
