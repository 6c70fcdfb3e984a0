package api

import (
	"cmp"
	"slices"
)

// Resource names a physically exclusive subsystem
type Resource string

const (
	ResourceTCS    Resource = "TCS"
	ResourceGcal   Resource = "Gcal"
	ResourceGems   Resource = "Gems"
	ResourceAltair Resource = "Altair"
	ResourceGmosS  Resource = "GmosS"
	ResourceGmosN  Resource = "GmosN"
	ResourceF2     Resource = "F2"
	ResourceGhost  Resource = "Ghost"
	ResourceGnirs  Resource = "Gnirs"
	ResourceGpi    Resource = "Gpi"
	ResourceGsaoi  Resource = "Gsaoi"
	ResourceNiri   Resource = "Niri"
	ResourceNifs   Resource = "Nifs"
)

var resourceRank = func() map[Resource]int {
	order := []Resource{
		ResourceTCS, ResourceGcal, ResourceGems, ResourceAltair,
		ResourceGmosS, ResourceGmosN, ResourceF2, ResourceGhost,
		ResourceGnirs, ResourceGpi, ResourceGsaoi, ResourceNiri,
		ResourceNifs,
	}
	res := make(map[Resource]int, len(order))
	for i, r := range order {
		res[r] = i
	}
	return res
}()

// IsKnown reports whether the Resource is one of the canonical resources
func (r Resource) IsKnown() bool {
	_, ok := resourceRank[r]
	return ok
}

// CompareResources orders resources canonically: telescope and common
// facilities first, then instruments. Unknown resources sort after all known
// ones, by name
func CompareResources(a, b Resource) int {
	ra, aKnown := resourceRank[a]
	rb, bKnown := resourceRank[b]
	switch {
	case aKnown && bKnown:
		return cmp.Compare(ra, rb)
	case aKnown:
		return -1
	case bKnown:
		return 1
	default:
		return cmp.Compare(a, b)
	}
}

// SortResources sorts resources in place in canonical order
func SortResources(res []Resource) {
	slices.SortFunc(res, CompareResources)
}
