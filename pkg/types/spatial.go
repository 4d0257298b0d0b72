package types

import "fmt"

// Profile types. Centerlines live in their own feature class.
const (
	ProfileTypeGeneric    int64 = 1
	ProfileTypeCenterline int64 = 2
)

// Profile is a longitudinal line feature set.
type Profile struct {
	ID            int64
	Name          string
	ProfileTypeID int64
}

// FeatureClassName returns the class holding this profile's features.
func (p *Profile) FeatureClassName() string {
	if p.ProfileTypeID == ProfileTypeCenterline {
		return "profile_centerlines"
	}
	return "profile_features"
}

// CrossSection is a set of transect line features.
type CrossSection struct {
	ID   int64
	Name string
}

// PourPoint is a watershed outlet point with an associated upslope
// catchment polygon. The catchment row carries pour_point_id.
type PourPoint struct {
	ID   int64
	Name string
}

// xmlID formats the fixed manifest ids used by the exporter.
func xmlID(prefix string, id int64) string {
	return fmt.Sprintf("%s_%d", prefix, id)
}
