package matching

import (
	"errors"
	"strings"
	"unicode/utf8"
)

var (
	// ErrPointNotFound is returned when a pickup or drop-off does not match the path.
	ErrPointNotFound = errors.New("route point not found on path")
	// ErrInvalidOrdering is returned when the pickup does not come before the drop-off.
	ErrInvalidOrdering = errors.New("pickup must come before drop-off")
)

// RoutePoint is one stop on a ride's path.
type RoutePoint struct {
	City  string `json:"city"`
	Point string `json:"point"`
}

// Path is the ordered list of stops: origin first, destination last.
type Path []RoutePoint

// Segments returns the number of legs between consecutive points.
func (p Path) Segments() int {
	if len(p) < 2 {
		return 0
	}
	return len(p) - 1
}

// Segment is a resolved pickup/drop-off pair on a Path.
type Segment struct {
	PickupIndex  int
	DropoffIndex int
	Pickup       RoutePoint
	Dropoff      RoutePoint
}

// BuildPath lays out origin, stopovers and destination in travel order.
func BuildPath(originCity, originPoint string, stopovers []RoutePoint, destinationCity, destinationPoint string) Path {
	path := make(Path, 0, len(stopovers)+2)
	path = append(path, RoutePoint{City: originCity, Point: originPoint})
	path = append(path, stopovers...)
	path = append(path, RoutePoint{City: destinationCity, Point: destinationPoint})
	return path
}

// regionSuffixes are stripped from the end of addresses before comparison.
var regionSuffixes = []string{
	"india",
	"maharashtra",
	"tamil nadu",
	"andhra pradesh",
	"karnataka",
	"kerala",
	"telangana",
}

// Normalize lowercases s, collapses whitespace and drops trailing
// ", <state>" / ", india" parts.
func Normalize(s string) string {
	n := strings.Join(strings.Fields(strings.ToLower(s)), " ")

	for stripped := true; stripped; {
		stripped = false
		for _, region := range regionSuffixes {
			if !strings.HasSuffix(n, region) {
				continue
			}
			head := strings.TrimSpace(strings.TrimSuffix(n, region))
			if strings.HasSuffix(head, ",") {
				n = strings.TrimSpace(strings.TrimSuffix(head, ","))
				stripped = true
			}
		}
	}

	return n
}

// MainCity returns the part before the first comma when it is at least three
// characters long, otherwise the whole normalized string.
func MainCity(normalized string) string {
	first, _, _ := strings.Cut(normalized, ",")
	first = strings.TrimSpace(first)
	if runeLen(first) >= 3 {
		return first
	}
	return normalized
}

// candidate is a RoutePoint after normalization.
type candidate struct {
	city  string
	point string
}

type strategy struct {
	name  string
	match func(c candidate, search string) bool
}

// strategies are tried in order; the first hit wins.
var strategies = []strategy{
	{name: "point", match: matchPoint},
	{name: "city", match: matchCity},
	{name: "main-city", match: matchMainCity},
}

func matchPoint(c candidate, search string) bool {
	if c.point == "" {
		return false
	}
	return c.point == search || containsEither(c.point, search)
}

func matchCity(c candidate, search string) bool {
	if c.city == "" {
		return false
	}
	if c.city == search {
		return true
	}
	if min(runeLen(c.city), runeLen(search)) <= 2 {
		return false
	}
	return containsEither(c.city, search)
}

func matchMainCity(c candidate, search string) bool {
	searchMain := MainCity(search)
	if runeLen(searchMain) < 3 {
		return false
	}
	if c.city != "" && containsEither(MainCity(c.city), searchMain) {
		return true
	}
	return c.point != "" && containsEither(MainCity(c.point), searchMain)
}

// MatchedBy returns the name of the first strategy that matches, or "".
func MatchedBy(rp RoutePoint, search string) string {
	s := Normalize(search)
	if s == "" {
		return ""
	}

	c := candidate{city: Normalize(rp.City), point: Normalize(rp.Point)}
	for _, st := range strategies {
		if st.match(c, s) {
			return st.name
		}
	}
	return ""
}

// Matches reports whether a free-text search refers to the given stop.
func Matches(rp RoutePoint, search string) bool {
	return MatchedBy(rp, search) != ""
}

// IndexOf returns the first index at or after from whose point matches
// search, or -1.
func (p Path) IndexOf(search string, from int) int {
	if from < 0 {
		from = 0
	}
	for i := from; i < len(p); i++ {
		if Matches(p[i], search) {
			return i
		}
	}
	return -1
}

// CanAccommodateJourney reports whether the path passes the search origin and
// then, strictly later, the search destination.
func CanAccommodateJourney(path Path, searchOrigin, searchDestination string) bool {
	origin := path.IndexOf(searchOrigin, 0)
	if origin == -1 {
		return false
	}
	return path.IndexOf(searchDestination, origin+1) != -1
}

// FindMatchingSegment resolves a join request's pickup and drop-off onto the
// path. The drop-off scan starts at the pickup index, so a search that only
// matches the pickup stop yields ErrInvalidOrdering.
func FindMatchingSegment(path Path, pickup, dropoff string) (Segment, error) {
	pickupIdx := path.IndexOf(pickup, 0)
	if pickupIdx == -1 {
		return Segment{}, ErrPointNotFound
	}

	dropoffIdx := path.IndexOf(dropoff, pickupIdx)
	if dropoffIdx == -1 {
		return Segment{}, ErrPointNotFound
	}

	if pickupIdx >= dropoffIdx {
		return Segment{}, ErrInvalidOrdering
	}

	return Segment{
		PickupIndex:  pickupIdx,
		DropoffIndex: dropoffIdx,
		Pickup:       path[pickupIdx],
		Dropoff:      path[dropoffIdx],
	}, nil
}

func containsEither(a, b string) bool {
	return strings.Contains(a, b) || strings.Contains(b, a)
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
