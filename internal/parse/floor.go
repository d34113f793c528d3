package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// AllFloors is the floor selection that shows every machine.
const AllFloors = "all"

var floorRe = regexp.MustCompile(`(?i)^(-?\d+)\s*F?$`)

// FloorSelection is a parsed floor filter value.
type FloorSelection struct {
	All   bool
	Floor int
}

// String renders the selection the way the floor selector expects it.
func (f FloorSelection) String() string {
	if f.All {
		return AllFloors
	}
	return strconv.Itoa(f.Floor)
}

// Matches reports whether a machine on floor passes the filter.
func (f FloorSelection) Matches(floor int) bool {
	return f.All || f.Floor == floor
}

// ParseFloor parses a floor selector value: "all", or a floor number such as
// "2", " 2 " or "2F". An empty value selects all floors.
func ParseFloor(raw string) (FloorSelection, error) {
	s := strings.TrimSpace(raw)
	if s == "" || strings.EqualFold(s, AllFloors) {
		return FloorSelection{All: true}, nil
	}

	m := floorRe.FindStringSubmatch(s)
	if m == nil {
		return FloorSelection{}, fmt.Errorf("unable to parse floor selection: %q", raw)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return FloorSelection{}, fmt.Errorf("unable to parse floor selection %q: %w", raw, err)
	}
	return FloorSelection{Floor: n}, nil
}
