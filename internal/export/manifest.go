package export

import (
	"encoding/xml"
	"fmt"
	"sort"
	"time"

	"github.com/riverscapes/qris/pkg/types"
)

// Manifest is the project.rs.xml document describing an exported project
// to downstream riverscapes tooling.
type Manifest struct {
	XMLName       xml.Name       `xml:"Project"`
	XSIType       string         `xml:"xmlns:xsi,attr"`
	Name          string         `xml:"Name"`
	ProjectType   string         `xml:"ProjectType"`
	Description   string         `xml:"Description,omitempty"`
	MetaData      MetaData       `xml:"MetaData"`
	ProjectBounds *ProjectBounds `xml:"ProjectBounds,omitempty"`
	Realizations  Realizations   `xml:"Realizations"`
}

// MetaData is a list of named values.
type MetaData struct {
	Meta []Meta `xml:"Meta"`
}

// Meta is one key/value pair of project metadata.
type Meta struct {
	Name  string `xml:"name,attr"`
	Value string `xml:",chardata"`
}

// ProjectBounds describes the project's spatial extent.
type ProjectBounds struct {
	Centroid    Centroid    `xml:"Centroid"`
	BoundingBox BoundingBox `xml:"BoundingBox"`
	Path        string      `xml:"Path"`
}

// Centroid is the center of the bounding box.
type Centroid struct {
	Lat float64 `xml:"Lat"`
	Lng float64 `xml:"Lng"`
}

// BoundingBox is the extent in decimal degrees.
type BoundingBox struct {
	MinLat float64 `xml:"MinLat"`
	MinLng float64 `xml:"MinLng"`
	MaxLat float64 `xml:"MaxLat"`
	MaxLng float64 `xml:"MaxLng"`
}

// Realizations wraps the realization list.
type Realizations struct {
	Realization []Realization `xml:"Realization"`
}

// Realization is one analyzed state of the project: the shared inputs
// realization, one per event, and one per analysis.
type Realization struct {
	ID             string    `xml:"id,attr"`
	DateCreated    string    `xml:"dateCreated,attr"`
	ProductVersion string    `xml:"productVersion,attr"`
	Name           string    `xml:"Name"`
	Description    string    `xml:"Description,omitempty"`
	MetaData       *MetaData `xml:"MetaData,omitempty"`
	Datasets       Datasets  `xml:"Datasets"`
}

// Datasets groups a realization's geopackages and rasters.
type Datasets struct {
	Geopackage []Geopackage `xml:"Geopackage"`
	Raster     []Raster     `xml:"Raster"`
}

// Geopackage is one exported database with its published layers.
type Geopackage struct {
	ID     string `xml:"id,attr"`
	Name   string `xml:"Name"`
	Path   string `xml:"Path"`
	Layers Layers `xml:"Layers"`
}

// Layers wraps a geopackage's vector layer list.
type Layers struct {
	Vector []Vector `xml:"Vector"`
}

// Vector is one published layer within a geopackage.
type Vector struct {
	ID      string `xml:"id,attr"`
	LyrName string `xml:"lyrName,attr"`
	Name    string `xml:"Name"`
}

// Raster is one exported raster dataset.
type Raster struct {
	ID   string `xml:"id,attr"`
	Name string `xml:"Name"`
	Path string `xml:"Path"`
}

// manifestVersion stamps realizations; overridden by the exporter when a
// release version is known.
const manifestVersion = "0.0.1"

// boundsFileName is the geojson sidecar referenced from ProjectBounds.
const boundsFileName = "project_bounds.geojson"

// BuildManifest assembles the manifest document for a loaded project.
// Output is deterministic: every collection is emitted in ascending id
// order and timestamps come from the supplied clock.
func BuildManifest(project *types.Project, bounds types.Envelope, now time.Time, version string) *Manifest {
	if version == "" {
		version = manifestVersion
	}
	dateCreated := now.UTC().Format(time.RFC3339)

	m := &Manifest{
		XSIType:     "http://www.w3.org/2001/XMLSchema-instance",
		Name:        project.Name,
		ProjectType: "RiverscapesStudio",
		Description: project.Description,
		MetaData:    projectMetaData(project),
	}

	if !bounds.IsEmpty() {
		centroid := bounds.Centroid()
		m.ProjectBounds = &ProjectBounds{
			Centroid: Centroid{Lat: centroid.Y(), Lng: centroid.X()},
			BoundingBox: BoundingBox{
				MinLat: bounds.MinY, MinLng: bounds.MinX,
				MaxLat: bounds.MaxY, MaxLng: bounds.MaxX,
			},
			Path: boundsFileName,
		}
	}

	m.Realizations.Realization = append(m.Realizations.Realization,
		inputsRealization(project, dateCreated, version))
	for _, event := range sortedEvents(project) {
		m.Realizations.Realization = append(m.Realizations.Realization,
			eventRealization(event, dateCreated, version))
	}
	for _, analysis := range sortedAnalyses(project) {
		m.Realizations.Realization = append(m.Realizations.Realization,
			analysisRealization(analysis, dateCreated, version))
	}
	return m
}

// projectMetaData carries the project's name, description, and free-form
// metadata in stable key order.
func projectMetaData(project *types.Project) MetaData {
	meta := []Meta{
		{Name: "QRiS Project Name", Value: project.Name},
	}
	if project.Description != "" {
		meta = append(meta, Meta{Name: "QRiS Project Description", Value: project.Description})
	}
	if project.MapGUID != "" {
		meta = append(meta, Meta{Name: "QRiS Map GUID", Value: project.MapGUID})
	}

	keys := make([]string, 0, len(project.Metadata))
	for k := range project.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		meta = append(meta, Meta{Name: k, Value: project.Metadata[k]})
	}
	return MetaData{Meta: meta}
}

// inputsRealization publishes the shared inputs: sample frames, profiles,
// cross sections, pour points, rasters, and scratch vectors.
func inputsRealization(project *types.Project, dateCreated, version string) Realization {
	r := Realization{
		ID:             "inputs",
		DateCreated:    dateCreated,
		ProductVersion: version,
		Name:           "Inputs",
	}

	inputs := Geopackage{ID: "inputs_gpkg", Name: "QRiS Layers", Path: projectGeopackageName}
	for _, sf := range sortedSampleFrames(project) {
		prefix := "sample_frame"
		switch sf.SampleFrameType {
		case types.SampleFrameTypeAOI:
			prefix = "aoi"
		case types.SampleFrameTypeValleyBottom:
			prefix = "valley_bottom"
		}
		lyrName := fmt.Sprintf("vw_%s_%d", prefix, sf.ID)
		inputs.Layers.Vector = append(inputs.Layers.Vector, Vector{
			ID: lyrName, LyrName: lyrName, Name: sf.Name,
		})
	}
	for _, p := range sortedProfiles(project) {
		lyrName := fmt.Sprintf("vw_profile_%d", p.ID)
		inputs.Layers.Vector = append(inputs.Layers.Vector, Vector{
			ID: lyrName, LyrName: lyrName, Name: p.Name,
		})
	}
	for _, xs := range sortedCrossSections(project) {
		lyrName := fmt.Sprintf("vw_cross_section_%d", xs.ID)
		inputs.Layers.Vector = append(inputs.Layers.Vector, Vector{
			ID: lyrName, LyrName: lyrName, Name: xs.Name,
		})
	}
	r.Datasets.Geopackage = append(r.Datasets.Geopackage, inputs)

	if len(project.ScratchVectors) > 0 {
		contextGpkg := Geopackage{ID: "context_gpkg", Name: "Context", Path: contextGeopackagePath}
		for _, sv := range sortedScratchVectors(project) {
			contextGpkg.Layers.Vector = append(contextGpkg.Layers.Vector, Vector{
				ID: fmt.Sprintf("scratch_vector_%d", sv.ID), LyrName: sv.FCName, Name: sv.Name,
			})
		}
		r.Datasets.Geopackage = append(r.Datasets.Geopackage, contextGpkg)
	}

	for _, pp := range sortedPourPoints(project) {
		gpkg := Geopackage{
			ID:   fmt.Sprintf("pour_points_%d_gpkg", pp.ID),
			Name: pp.Name,
			Path: projectGeopackageName,
		}
		pointLyr := fmt.Sprintf("vw_pour_point_%d", pp.ID)
		catchmentLyr := fmt.Sprintf("vw_catchment_%d", pp.ID)
		gpkg.Layers.Vector = append(gpkg.Layers.Vector,
			Vector{ID: pointLyr, LyrName: pointLyr, Name: pp.Name},
			Vector{ID: catchmentLyr, LyrName: catchmentLyr, Name: pp.Name + " Catchment"},
		)
		r.Datasets.Geopackage = append(r.Datasets.Geopackage, gpkg)
	}

	for _, raster := range sortedRasters(project) {
		r.Datasets.Raster = append(r.Datasets.Raster, Raster{
			ID:   raster.XMLID(),
			Name: raster.Name,
			Path: rasterExportPath(raster),
		})
	}
	return r
}

// eventRealization publishes one event's layer views, tagged with the
// event's type label.
func eventRealization(event *types.Event, dateCreated, version string) Realization {
	r := Realization{
		ID:             fmt.Sprintf("realization_qris_%d", event.ID),
		DateCreated:    dateCreated,
		ProductVersion: version,
		Name:           event.Name,
		Description:    event.Description,
	}
	if label, ok := types.EventTypeLabels[event.EventType]; ok {
		r.MetaData = &MetaData{Meta: []Meta{{Name: label}}}
	}

	gpkg := Geopackage{
		ID:   fmt.Sprintf("realization_qris_%d_gpkg", event.ID),
		Name: event.Name,
		Path: projectGeopackageName,
	}
	layers := append([]*types.EventLayer(nil), event.EventLayers...)
	sort.Slice(layers, func(i, j int) bool { return layers[i].ID < layers[j].ID })
	for _, el := range layers {
		if el.Layer == nil {
			continue
		}
		lyrName := fmt.Sprintf("vw_%s_%d", el.Layer.MachineID, event.ID)
		gpkg.Layers.Vector = append(gpkg.Layers.Vector, Vector{
			ID: lyrName, LyrName: lyrName, Name: el.Layer.Name,
		})
	}
	r.Datasets.Geopackage = append(r.Datasets.Geopackage, gpkg)
	return r
}

// analysisRealization publishes one analysis as its own realization
// carrying the pivoted metric view.
func analysisRealization(analysis *types.Analysis, dateCreated, version string) Realization {
	r := Realization{
		ID:             fmt.Sprintf("analysis_%d", analysis.ID),
		DateCreated:    dateCreated,
		ProductVersion: version,
		Name:           analysis.Name,
	}
	lyrName := fmt.Sprintf("vw_analysis_%d", analysis.ID)
	gpkg := Geopackage{
		ID:   fmt.Sprintf("%d_gpkg", analysis.ID),
		Name: analysis.Name,
		Path: projectGeopackageName,
	}
	gpkg.Layers.Vector = append(gpkg.Layers.Vector, Vector{
		ID: lyrName, LyrName: lyrName, Name: analysis.Name,
	})
	r.Datasets.Geopackage = append(r.Datasets.Geopackage, gpkg)
	return r
}

func sortedEvents(project *types.Project) []*types.Event {
	out := make([]*types.Event, 0, len(project.Events))
	for _, e := range project.Events {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func sortedSampleFrames(project *types.Project) []*types.SampleFrame {
	out := make([]*types.SampleFrame, 0, len(project.SampleFrames))
	for _, sf := range project.SampleFrames {
		out = append(out, sf)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func sortedProfiles(project *types.Project) []*types.Profile {
	out := make([]*types.Profile, 0, len(project.Profiles))
	for _, p := range project.Profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func sortedCrossSections(project *types.Project) []*types.CrossSection {
	out := make([]*types.CrossSection, 0, len(project.CrossSections))
	for _, xs := range project.CrossSections {
		out = append(out, xs)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func sortedPourPoints(project *types.Project) []*types.PourPoint {
	out := make([]*types.PourPoint, 0, len(project.PourPoints))
	for _, pp := range project.PourPoints {
		out = append(out, pp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func sortedRasters(project *types.Project) []*types.Raster {
	out := make([]*types.Raster, 0, len(project.Rasters))
	for _, r := range project.Rasters {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func sortedScratchVectors(project *types.Project) []*types.ScratchVector {
	out := make([]*types.ScratchVector, 0, len(project.ScratchVectors))
	for _, sv := range project.ScratchVectors {
		out = append(out, sv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func sortedAnalyses(project *types.Project) []*types.Analysis {
	out := make([]*types.Analysis, 0, len(project.Analyses))
	for _, a := range project.Analyses {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
