package geo_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/checkout-engine/internal/geo"
)

func TestHaversineIdenticalPointsIsZero(t *testing.T) {
	t.Parallel()

	p := geo.Coordinate{Lat: -6.2088, Lng: 106.8456}
	require.Zero(t, geo.Haversine(p, p))
}

func TestHaversineSymmetric(t *testing.T) {
	t.Parallel()

	jakarta := geo.Coordinate{Lat: -6.2088, Lng: 106.8456}
	medan := geo.Coordinate{Lat: 3.5952, Lng: 98.6722}
	require.InEpsilon(t, geo.Haversine(jakarta, medan), geo.Haversine(medan, jakarta), 1e-12)
}

func TestHaversineJakartaBandung(t *testing.T) {
	t.Parallel()

	jakarta := geo.Coordinate{Lat: -6.2088, Lng: 106.8456}
	bandung := geo.Coordinate{Lat: -6.9175, Lng: 107.6191}
	d := geo.Haversine(jakarta, bandung)
	// Roughly 115 km by road-free great circle, allow 5%.
	require.InDelta(t, 115, d, 115*0.05)
}

func TestStaticGeocoderKnownCities(t *testing.T) {
	t.Parallel()

	g := geo.NewStaticGeocoder(nil)

	cases := map[string]geo.Coordinate{
		"Bandung":         {Lat: -6.9175, Lng: 107.6191},
		"KOTA BANDUNG":    {Lat: -6.9175, Lng: 107.6191},
		"Jakarta Selatan": {Lat: -6.2088, Lng: 106.8456},
		"denpasar, bali":  {Lat: -8.6705, Lng: 115.2126},
		"Medan Kota":      {Lat: 3.5952, Lng: 98.6722},
		"Semarang Tengah": {Lat: -7.0051, Lng: 110.4381},
	}
	for input, want := range cases {
		require.Equal(t, want, g.Resolve(input), "input %q", input)
	}
}

func TestStaticGeocoderYogyakarta(t *testing.T) {
	t.Parallel()

	g := geo.NewStaticGeocoder(nil)
	require.Equal(t, geo.Coordinate{Lat: -7.7956, Lng: 110.3695}, g.Resolve("Yogyakarta"))
}

func TestStaticGeocoderAmbiguousInputUsesLookupOrder(t *testing.T) {
	t.Parallel()

	g := geo.NewStaticGeocoder(nil)
	// Matches both "jakarta" and "bandung"; the table places jakarta first
	// so that is what wins.
	require.Equal(t, geo.Coordinate{Lat: -6.2088, Lng: 106.8456}, g.Resolve("Jakarta-Bandung express"))
}

func TestStaticGeocoderUnknownCityJittersNearFallback(t *testing.T) {
	t.Parallel()

	g := geo.NewStaticGeocoder(rand.New(rand.NewSource(42)))
	for i := 0; i < 20; i++ {
		coord := g.Resolve("Kecamatan Antah Berantah")
		require.GreaterOrEqual(t, coord.Lat, -6.2)
		require.LessOrEqual(t, coord.Lat, -6.1)
		require.GreaterOrEqual(t, coord.Lng, 106.8)
		require.LessOrEqual(t, coord.Lng, 106.9)
	}
}
