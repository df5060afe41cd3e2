package entities

import "strings"

type HierarchyLevel string

const (
	HierarchyLevelNational     HierarchyLevel = "national"
	HierarchyLevelProvince     HierarchyLevel = "province"
	HierarchyLevelRegion       HierarchyLevel = "region"
	HierarchyLevelMunicipality HierarchyLevel = "municipality"
	HierarchyLevelWard         HierarchyLevel = "ward"
)

func (l HierarchyLevel) Valid() bool {
	switch l {
	case HierarchyLevelNational,
		HierarchyLevelProvince,
		HierarchyLevelRegion,
		HierarchyLevelMunicipality,
		HierarchyLevelWard:
		return true
	default:
		return false
	}
}

// ParseHierarchyLevel normalizes free-form input from transport layers.
func ParseHierarchyLevel(raw string) (HierarchyLevel, bool) {
	level := HierarchyLevel(strings.ToLower(strings.TrimSpace(raw)))
	return level, level.Valid()
}

// Position is a read-only catalog entry such as "Ward Chairperson".
type Position struct {
	PositionID     string
	Title          string
	HierarchyLevel HierarchyLevel
}

// PositionKey identifies one leadership seat: a position at one level inside
// one organizational entity. At most one active appointment exists per key.
type PositionKey struct {
	PositionID     string
	HierarchyLevel HierarchyLevel
	EntityID       string
}

func (k PositionKey) Normalize() PositionKey {
	return PositionKey{
		PositionID:     strings.TrimSpace(k.PositionID),
		HierarchyLevel: HierarchyLevel(strings.ToLower(strings.TrimSpace(string(k.HierarchyLevel)))),
		EntityID:       strings.TrimSpace(k.EntityID),
	}
}

func (k PositionKey) Valid() bool {
	k = k.Normalize()
	return k.PositionID != "" && k.EntityID != "" && k.HierarchyLevel.Valid()
}

func (k PositionKey) String() string {
	return k.PositionID + "/" + string(k.HierarchyLevel) + "/" + k.EntityID
}
