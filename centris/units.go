package centris

import (
	"fmt"
	"regexp"
	"strconv"
)

// Matches the compact Quebec unit notation, e.g. "2 x 5 ½" meaning two units
// of five main rooms plus a half-room.
var unitPattern = regexp.MustCompile(`(\d+)\s*x\s*(\d+)\s*½`)

const (
	minUnitRooms = 1
	maxUnitRooms = 15
)

// ParseUnits expands unit notation into one normalized label per unit, in the
// order matches appear. "2 x 5 ½, 1 x 3 ½" becomes
// ["5 1/2", "5 1/2", "3 1/2"]. Room counts outside [1,15] are dropped as
// corrupt text. Zero matches yield an empty list, which is a true negative
// (free-form layout descriptions exist), never an error.
func ParseUnits(unitText string) []string {
	units := []string{}
	for _, m := range unitPattern.FindAllStringSubmatch(unitText, -1) {
		count, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		rooms, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		if rooms < minUnitRooms || rooms > maxUnitRooms {
			continue
		}
		label := fmt.Sprintf("%d 1/2", rooms)
		for i := 0; i < count; i++ {
			units = append(units, label)
		}
	}
	return units
}
