package domain

import "fmt"

// Map dimension bounds. Each dimension of a store map grid must fall inside
// [MinMapSize, MaxMapSize].
const (
	MinMapSize = 2
	MaxMapSize = 100
)

// SegmentTypes is the closed set of map segment types.
var SegmentTypes = []string{
	"shelf", "fridge", "empty", "cashregister", "entrance", "wall", "outside",
}

// ValidSegmentType reports whether s is a known segment type.
func ValidSegmentType(s string) bool {
	for _, t := range SegmentTypes {
		if s == t {
			return true
		}
	}
	return false
}

// ValidateMapSize checks both grid dimensions against the bounds.
func ValidateMapSize(xSize, ySize int) map[string]string {
	errs := map[string]string{}
	if xSize < MinMapSize || xSize > MaxMapSize {
		errs["x_size"] = fmt.Sprintf("The x size must be between %d and %d.", MinMapSize, MaxMapSize)
	}
	if ySize < MinMapSize || ySize > MaxMapSize {
		errs["y_size"] = fmt.Sprintf("The y size must be between %d and %d.", MinMapSize, MaxMapSize)
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// InBounds reports whether a segment coordinate lies inside a map of the
// given size. This is the single bounds predicate used both when validating
// segment writes and when filtering segments on a map resize: a segment
// survives a resize exactly when InBounds(x, y, newX, newY) holds.
func InBounds(x, y, xSize, ySize int) bool {
	return x >= 0 && x < xSize && y >= 0 && y < ySize
}

// ValidateSegment checks coordinates and type for a segment write against
// the owning map's current size.
func ValidateSegment(x, y, xSize, ySize int, segType string) map[string]string {
	errs := map[string]string{}
	if x < 0 || x >= xSize {
		errs["x"] = fmt.Sprintf("The x must be between 0 and %d.", xSize-1)
	}
	if y < 0 || y >= ySize {
		errs["y"] = fmt.Sprintf("The y must be between 0 and %d.", ySize-1)
	}
	if !ValidSegmentType(segType) {
		errs["type"] = "The selected type is invalid."
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}
