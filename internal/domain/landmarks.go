package domain

// Landmarks market structure levels derived from a volume profile.
// This is a value object, recomputed whenever the profile changes.
type Landmarks struct {
	// PointOfControlIndex is the bin with maximum volume (lowest index among ties).
	PointOfControlIndex int `json:"poc_index"`
	// PointOfControlPrice is the midpoint of the point of control bin.
	PointOfControlPrice float64 `json:"poc_price"`
	// ValueAreaLow is the lower edge of the lowest value area bin.
	ValueAreaLow float64 `json:"value_area_low"`
	// ValueAreaHigh is the upper edge of the highest value area bin.
	ValueAreaHigh float64 `json:"value_area_high"`
	// ValueAreaIndices are the bins selected for the value area, ascending.
	ValueAreaIndices []int `json:"value_area_indices"`
	// ValueAreaVolume is the volume accumulated by the selected bins.
	ValueAreaVolume float64 `json:"value_area_volume"`
	// TotalVolume is the profile volume.
	TotalVolume float64 `json:"total_volume"`
	// SupportPrice is the point of control minus the wider side of the price range.
	SupportPrice float64 `json:"support_price"`
	// ResistancePrice is the point of control plus the wider side of the price range.
	ResistancePrice float64 `json:"resistance_price"`
}

// InValueArea reports whether the bin was selected into the value area.
func (l Landmarks) InValueArea(bin int) bool {
	for _, idx := range l.ValueAreaIndices {
		if idx == bin {
			return true
		}
		if idx > bin {
			return false
		}
	}
	return false
}
