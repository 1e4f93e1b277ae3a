package catalog

import "time"

// ApplyFlow identifies the application mechanism a posting uses.
type ApplyFlow string

const (
	ApplyFlowSimple     ApplyFlow = "simple"
	ApplyFlowWorkday    ApplyFlow = "workday"
	ApplyFlowGreenhouse ApplyFlow = "greenhouse"
	ApplyFlowLever      ApplyFlow = "lever"
	ApplyFlowCustom     ApplyFlow = "custom"
)

// LocationType describes where the role is performed.
type LocationType string

const (
	LocationRemote LocationType = "remote"
	LocationHybrid LocationType = "hybrid"
	LocationOnsite LocationType = "onsite"
)

// Posting is a discovered job opportunity. It is created once at discovery
// time and never mutated afterwards.
type Posting struct {
	ID                string       `json:"id"`
	Title             string       `json:"title"`
	Company           string       `json:"company"`
	URL               string       `json:"url"`
	Description       string       `json:"description"`
	Skills            []string     `json:"skills"`
	Compensation      int          `json:"compensation,omitempty"`
	ApplyFlow         ApplyFlow    `json:"applyFlow"`
	LocationType      LocationType `json:"locationType"`
	RequiresClearance bool         `json:"requiresClearance"`
	DiscoveredAt      time.Time    `json:"discoveredAt"`
}

// ValidApplyFlow reports whether the given value is a known apply flow.
func ValidApplyFlow(v ApplyFlow) bool {
	switch v {
	case ApplyFlowSimple, ApplyFlowWorkday, ApplyFlowGreenhouse, ApplyFlowLever, ApplyFlowCustom:
		return true
	}
	return false
}

// ValidLocationType reports whether the given value is a known location type.
func ValidLocationType(v LocationType) bool {
	switch v {
	case LocationRemote, LocationHybrid, LocationOnsite:
		return true
	}
	return false
}
