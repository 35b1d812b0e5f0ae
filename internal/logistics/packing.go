package logistics

// PackingResult summarises the box selection for one shipment.
type PackingResult struct {
	BoxesUsed     []string
	PackagingCost int64
	TotalVolume   float64
	CapReached    bool
}

// pack estimates the cooler boxes needed for the given cart lines.
//
// Real bin packing is NP-hard; this is a greedy volumetric approximation.
// Frozen goods are close to water density, so 1 g is treated as 1 cm3. The
// aggregated volume is inflated by the configured void-fill fraction, then
// boxes are drawn from the catalog (largest first) while either remaining
// volume or remaining weight is positive. A box is selected when it is at
// most twice the remaining requirement; otherwise the smallest box closes the
// gap. The loop stops at the iteration ceiling so degenerate input cannot
// spin forever.
func (r *Resolver) pack(lines []CartLine) PackingResult {
	var totalVolume, totalWeight float64
	for _, line := range lines {
		if line.Qty <= 0 || line.WeightGrams <= 0 {
			continue
		}
		weight := float64(line.WeightGrams) * float64(line.Qty)
		totalVolume += weight
		totalWeight += weight
	}

	requiredVolume := totalVolume * (1 + r.cfg.VoidFillFraction)

	remainingVol := requiredVolume
	remainingWeight := totalWeight
	result := PackingResult{TotalVolume: totalVolume}

	for remainingVol > 0 || remainingWeight > 0 {
		if len(result.BoxesUsed) >= r.cfg.MaxBoxes {
			result.CapReached = true
			break
		}

		selected := r.boxes[len(r.boxes)-1] // smallest as fallback
		for _, box := range r.boxes {
			if remainingVol > box.VolumeCm3()*0.5 || remainingWeight > float64(box.MaxWeightGrams)*0.5 {
				selected = box
				break
			}
		}

		result.BoxesUsed = append(result.BoxesUsed, selected.Name)
		result.PackagingCost += selected.UnitCost

		remainingVol -= selected.VolumeCm3()
		remainingWeight -= float64(selected.MaxWeightGrams)
	}

	result.PackagingCost += int64(len(result.BoxesUsed)) * r.cfg.ColdChainPremium
	return result
}
