// Package logistics resolves shipments at checkout time: nearest origin hub,
// volumetric packaging and the final shipping quote.
package logistics

import (
	"math"
	"sort"

	"github.com/noah-isme/checkout-engine/internal/geo"
)

// CartLine is the minimal cart projection the resolver needs.
type CartLine struct {
	WeightGrams int `json:"weightGrams" validate:"gte=0"`
	Qty         int `json:"qty" validate:"gte=0"`
}

// ShipmentVector is the computed shipping quote for one checkout. It is never
// persisted by this service.
type ShipmentVector struct {
	DistanceKm     float64  `json:"distanceKm"`
	EtaMinutes     int      `json:"etaMinutes"`
	OriginNodeID   string   `json:"originNodeId"`
	BoxesUsed      []string `json:"boxesUsed"`
	TotalVolumeCm3 float64  `json:"totalVolumeCm3"`
	PackagingCost  int64    `json:"packagingCost"`
	FinalCost      int64    `json:"finalCost"`
}

// Config holds the shipping cost model tunables. Monetary values in IDR.
type Config struct {
	PerKmRate          int64
	Flagfall           int64
	FuelSurchargeIndex float64
	ColdChainPremium   int64
	VoidFillFraction   float64
	MinShippingCost    int64
	AvgSpeedKmh        float64
	HandlingMinutes    int
	MaxBoxes           int
}

// DefaultConfig returns the cost model used in production.
func DefaultConfig() Config {
	return Config{
		PerKmRate:          1200,
		Flagfall:           8500,
		FuelSurchargeIndex: 1.12,
		ColdChainPremium:   5000,
		VoidFillFraction:   0.15,
		MinShippingCost:    15000,
		AvgSpeedKmh:        40,
		HandlingMinutes:    60,
		MaxBoxes:           20,
	}
}

// Resolver computes shipment vectors from the fixed warehouse and packaging
// catalogs. Construct once at startup; all methods are safe for concurrent
// use since the resolver holds no mutable state.
type Resolver struct {
	nodes []WarehouseNode
	boxes []PackagingSpec
	cfg   Config
}

// NewResolver constructs a resolver. Nil node or box slices fall back to the
// defaults, and boxes are sorted by descending volume for the packing pass.
func NewResolver(cfg Config, nodes []WarehouseNode, boxes []PackagingSpec) *Resolver {
	if len(nodes) == 0 {
		nodes = DefaultWarehouseNodes()
	}
	if len(boxes) == 0 {
		boxes = DefaultPackagingSpecs()
	}
	sorted := make([]PackagingSpec, len(boxes))
	copy(sorted, boxes)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].VolumeCm3() > sorted[j].VolumeCm3()
	})
	if cfg.MaxBoxes <= 0 {
		cfg.MaxBoxes = DefaultConfig().MaxBoxes
	}
	return &Resolver{nodes: nodes, boxes: sorted, cfg: cfg}
}

// NearestNode scans the warehouse list and returns the hub with minimal
// great-circle distance to the destination. Ties resolve to the earlier
// entry.
func (r *Resolver) NearestNode(dest geo.Coordinate) (WarehouseNode, float64) {
	nearest := r.nodes[0]
	minDistance := math.Inf(1)
	for _, node := range r.nodes {
		if d := geo.Haversine(node.Coord, dest); d < minDistance {
			minDistance = d
			nearest = node
		}
	}
	return nearest, minDistance
}

// Resolve produces the complete shipment vector for the cart and destination.
// It does not fail: coordinates are taken as given and every input resolves
// to a quote.
func (r *Resolver) Resolve(lines []CartLine, dest geo.Coordinate) ShipmentVector {
	node, distance := r.NearestNode(dest)
	packing := r.pack(lines)

	transport := distance * float64(r.cfg.PerKmRate) * r.cfg.FuelSurchargeIndex
	transport += float64(r.cfg.Flagfall)

	finalCost := int64(math.Ceil(transport + float64(packing.PackagingCost)))
	if finalCost < r.cfg.MinShippingCost {
		finalCost = r.cfg.MinShippingCost
	}

	etaMinutes := int(math.Ceil(distance/r.cfg.AvgSpeedKmh*60)) + r.cfg.HandlingMinutes

	return ShipmentVector{
		DistanceKm:     math.Round(distance*100) / 100,
		EtaMinutes:     etaMinutes,
		OriginNodeID:   node.ID,
		BoxesUsed:      packing.BoxesUsed,
		TotalVolumeCm3: packing.TotalVolume,
		PackagingCost:  packing.PackagingCost,
		FinalCost:      finalCost,
	}
}
