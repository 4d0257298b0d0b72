package types

// Raster is a surface or context raster registered on the project. Path is
// relative to the project directory, posix separators.
type Raster struct {
	ID           int64
	Name         string
	Path         string
	RasterTypeID int64
	IsContext    bool
	Date         string
}

// XMLID returns the raster's stable manifest dataset id.
func (r *Raster) XMLID() string {
	if r.IsContext {
		return xmlID("context", r.ID)
	}
	return xmlID("surface", r.ID)
}

// ScratchVector is a contextual vector layer stored in the companion
// scratch geopackage rather than the project store.
type ScratchVector struct {
	ID           int64
	Name         string
	FCName       string
	VectorTypeID int64
}
