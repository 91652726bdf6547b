package graph

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/mnemonic-no/grafeo-sub002/pkg/models"
)

// Direction of an edge relative to a vertex.
type Direction int

const (
	DirectionOut  Direction = iota // vertex --fact--> other
	DirectionIn                    // vertex <--fact-- other
	DirectionBoth                  // either of the above
)

func (d Direction) String() string {
	switch d {
	case DirectionOut:
		return "out"
	case DirectionIn:
		return "in"
	case DirectionBoth:
		return "both"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// ParseDirection parses "out", "in" or "both" (case-insensitive).
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "out":
		return DirectionOut, nil
	case "in":
		return DirectionIn, nil
	case "both":
		return DirectionBoth, nil
	default:
		return 0, fmt.Errorf("unknown direction %q", s)
	}
}

// MatchesDirection reports whether fact is traversable from the object with the given id
// in the given direction.
//
// Only two-legged Facts between two distinct Objects produce edges. Bidirectional Facts match
// every direction. Otherwise OUT requires the object to be the source, IN requires it to be the
// destination, and BOTH requires either.
func MatchesDirection(fact *models.FactRecord, objectID uuid.UUID, direction Direction) bool {
	if fact == nil || !fact.IsTwoLegged() || fact.IsLoop() {
		return false
	}

	if fact.BidirectionalBinding {
		return true
	}

	isSource := fact.SourceObject.ID == objectID
	isDestination := fact.DestinationObject.ID == objectID

	switch direction {
	case DirectionOut:
		return isSource
	case DirectionIn:
		return isDestination
	case DirectionBoth:
		return isSource || isDestination
	default:
		return false
	}
}
