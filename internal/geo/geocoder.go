package geo

import (
	"math/rand"
	"strings"
	"sync"
)

// Geocoder resolves free-text destination input into a coordinate.
type Geocoder interface {
	Resolve(text string) Coordinate
}

type cityEntry struct {
	key   string
	coord Coordinate
}

// cityTable lists the markets the store ships to. Lookup is first-match over
// this ordering, so input naming several cities resolves to the earliest
// entry.
var cityTable = []cityEntry{
	{"jakarta", Coordinate{Lat: -6.2088, Lng: 106.8456}},
	{"bandung", Coordinate{Lat: -6.9175, Lng: 107.6191}},
	{"surabaya", Coordinate{Lat: -7.2575, Lng: 112.7521}},
	{"medan", Coordinate{Lat: 3.5952, Lng: 98.6722}},
	{"makassar", Coordinate{Lat: -5.1477, Lng: 119.4328}},
	{"semarang", Coordinate{Lat: -7.0051, Lng: 110.4381}},
	{"yogya", Coordinate{Lat: -7.7956, Lng: 110.3695}},
	{"denpasar", Coordinate{Lat: -8.6705, Lng: 115.2126}},
}

// fallbackCenter is the point unknown destinations are jittered around.
var fallbackCenter = Coordinate{Lat: -6.2000, Lng: 106.8000}

// StaticGeocoder resolves city names against a hardcoded lookup table. It is a
// stand-in for a real geocoding provider and must not be treated as
// production-accurate: unknown input falls back to a small random jitter
// around the Jakarta city centre so downstream math always has a coordinate
// to work with.
type StaticGeocoder struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewStaticGeocoder constructs a geocoder seeded by the provided source. A nil
// rng falls back to a fixed-seed source, which keeps tests deterministic.
func NewStaticGeocoder(rng *rand.Rand) *StaticGeocoder {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &StaticGeocoder{rng: rng}
}

// Resolve matches known city names as case-insensitive substrings of the
// input. "Bandung Barat" and "KOTA BANDUNG" both resolve to Bandung.
func (g *StaticGeocoder) Resolve(text string) Coordinate {
	key := strings.ToLower(strings.TrimSpace(text))
	for _, entry := range cityTable {
		if strings.Contains(key, entry.key) {
			return entry.coord
		}
	}
	return g.jitter()
}

func (g *StaticGeocoder) jitter() Coordinate {
	g.mu.Lock()
	defer g.mu.Unlock()
	return Coordinate{
		Lat: fallbackCenter.Lat + g.rng.Float64()*0.1,
		Lng: fallbackCenter.Lng + g.rng.Float64()*0.1,
	}
}

// KnownCities returns the resolvable city keys in lookup order.
func KnownCities() []string {
	keys := make([]string, 0, len(cityTable))
	for _, entry := range cityTable {
		keys = append(keys, entry.key)
	}
	return keys
}
