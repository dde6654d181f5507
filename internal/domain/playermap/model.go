package playermap

import "fmt"

// Position represents football position categories as reported by the
// provider's element types.
type Position string

const (
	PositionGoalkeeper Position = "GKP"
	PositionDefender   Position = "DEF"
	PositionMidfielder Position = "MID"
	PositionForward    Position = "FWD"
)

var AllPositions = map[Position]struct{}{
	PositionGoalkeeper: {},
	PositionDefender:   {},
	PositionMidfielder: {},
	PositionForward:    {},
}

// Mapping links one on-chain player id to one provider player id. The id
// linkage is fixed for the lifetime of the mapping; the descriptive fields
// may be refreshed from live provider data.
type Mapping struct {
	InternalID uint64
	ExternalID int
	Name       string
	Team       string
	Position   Position
}

func (m Mapping) Validate() error {
	if m.InternalID == 0 {
		return fmt.Errorf("mapping internal id is required")
	}
	if m.ExternalID <= 0 {
		return fmt.Errorf("mapping external id must be greater than zero")
	}
	if m.Name == "" {
		return fmt.Errorf("mapping name is required")
	}
	if _, ok := AllPositions[m.Position]; !ok {
		return fmt.Errorf("invalid mapping position: %s", m.Position)
	}

	return nil
}

// SeedRow is one row of the static mapping table. It is the single source
// of truth for the internal/external id linkage.
type SeedRow struct {
	InternalID uint64
	ExternalID int
	Name       string
	Team       string
	Position   Position
}

func (r SeedRow) Validate() error {
	return Mapping(r).Validate()
}
