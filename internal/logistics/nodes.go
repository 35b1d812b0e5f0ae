package logistics

import "github.com/noah-isme/checkout-engine/internal/geo"

// WarehouseNode is a fixed origin hub shipments can depart from.
type WarehouseNode struct {
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Coord geo.Coordinate `json:"coord"`
}

// PackagingSpec describes one cooler box size from the fixed catalog.
type PackagingSpec struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	WidthCm        int    `json:"widthCm"`
	LengthCm       int    `json:"lengthCm"`
	HeightCm       int    `json:"heightCm"`
	MaxWeightGrams int    `json:"maxWeightGrams"`
	UnitCost       int64  `json:"unitCost"`
}

// VolumeCm3 returns the interior volume of the box.
func (p PackagingSpec) VolumeCm3() float64 {
	return float64(p.WidthCm) * float64(p.LengthCm) * float64(p.HeightCm)
}

// DefaultWarehouseNodes returns the process-wide hub list.
func DefaultWarehouseNodes() []WarehouseNode {
	return []WarehouseNode{
		{ID: "WH-JKT", Name: "Jakarta Hub", Coord: geo.Coordinate{Lat: -6.1751, Lng: 106.8650}},
		{ID: "WH-SBY", Name: "Surabaya Hub", Coord: geo.Coordinate{Lat: -7.2575, Lng: 112.7521}},
		{ID: "WH-MDN", Name: "Medan Hub", Coord: geo.Coordinate{Lat: 3.5952, Lng: 98.6722}},
		{ID: "WH-MKS", Name: "Makassar Hub", Coord: geo.Coordinate{Lat: -5.1477, Lng: 119.4328}},
	}
}

// DefaultPackagingSpecs returns the styrofoam cooler catalog. Dimensions in cm,
// weight capacity in grams, cost in IDR.
func DefaultPackagingSpecs() []PackagingSpec {
	return []PackagingSpec{
		{ID: "BOX-S", Name: "Small Cooler", WidthCm: 20, LengthCm: 20, HeightCm: 15, MaxWeightGrams: 3000, UnitCost: 3000},
		{ID: "BOX-M", Name: "Medium Cooler", WidthCm: 30, LengthCm: 25, HeightCm: 20, MaxWeightGrams: 8000, UnitCost: 6000},
		{ID: "BOX-L", Name: "Large Cooler", WidthCm: 40, LengthCm: 30, HeightCm: 25, MaxWeightGrams: 15000, UnitCost: 10000},
		{ID: "BOX-XL", Name: "Jumbo Cooler", WidthCm: 50, LengthCm: 40, HeightCm: 35, MaxWeightGrams: 25000, UnitCost: 15000},
	}
}
