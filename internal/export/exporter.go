// Package export writes a project to a riverscapes exchange tree: the
// project geopackage with its derived views, rasters, the bounds sidecar,
// and the project.rs.xml manifest.
package export

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/riverscapes/qris/internal/common"
	"github.com/riverscapes/qris/internal/store"
	"github.com/riverscapes/qris/internal/task"
	"github.com/riverscapes/qris/pkg/types"
)

// Export tree layout.
const (
	projectGeopackageName = "qris.gpkg"
	contextGeopackagePath = "context/feature_classes.gpkg"
	manifestFileName      = "project.rs.xml"
)

// rasterExportPath places surface rasters under surfaces/ and context
// rasters under context/, flattening to the base file name.
func rasterExportPath(r *types.Raster) string {
	base := filepath.Base(r.Path)
	if r.IsContext {
		return "context/" + base
	}
	return "surfaces/" + base
}

// Exporter writes one project to an output directory. Zero-value fields
// take defaults: byte-copy translation, wall clock time.
type Exporter struct {
	Store     *store.Store
	OutputDir string

	// Translator converts vector datasets on the way out; nil selects a
	// verbatim byte copy.
	Translator VectorTranslator
	// Now supplies the manifest timestamp; nil selects time.Now.
	Now     func() time.Time
	Version string
}

// Description implements task.Task.
func (e *Exporter) Description() string {
	return fmt.Sprintf("Export project to %s", e.OutputDir)
}

// Run implements task.Task. The copies land before any view work so a
// failed view pass never leaves a manifest pointing at missing files:
// the manifest is written last.
func (e *Exporter) Run(ctx context.Context, progress *task.Progress) error {
	translator := e.Translator
	if translator == nil {
		translator = byteCopyTranslator{}
	}
	now := e.Now
	if now == nil {
		now = time.Now
	}
	log := common.Logger()

	project, err := e.Store.LoadProject(ctx)
	if err != nil {
		return err
	}
	progress.Set(10, "loaded project")

	if err := os.MkdirAll(e.OutputDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	outGpkg := filepath.Join(e.OutputDir, projectGeopackageName)
	if err := translator.Translate(e.Store.Path(), outGpkg); err != nil {
		return err
	}
	progress.Set(30, "copied project geopackage")

	srcContext := filepath.Join(e.Store.Dir(), filepath.FromSlash(contextGeopackagePath))
	if _, err := os.Stat(srcContext); err == nil {
		dest := filepath.Join(e.OutputDir, filepath.FromSlash(contextGeopackagePath))
		if err := translator.Translate(srcContext, dest); err != nil {
			return err
		}
	}

	for _, raster := range sortedRasters(project) {
		if err := ctx.Err(); err != nil {
			return err
		}
		src := filepath.Join(e.Store.Dir(), filepath.FromSlash(raster.Path))
		dest := filepath.Join(e.OutputDir, filepath.FromSlash(rasterExportPath(raster)))
		if err := copyFile(src, dest); err != nil {
			return fmt.Errorf("exporting raster %s: %w", raster.Name, err)
		}
	}
	progress.Set(50, "copied datasets")

	// Views materialize in the output copy only; the working store is
	// left untouched.
	outStore := store.New(outGpkg)
	if _, err := outStore.RefreshSpatialViews(ctx, project); err != nil {
		return err
	}
	for _, event := range sortedEvents(project) {
		for _, el := range event.EventLayers {
			if el.Layer == nil {
				continue
			}
			spec := store.EventLayerViewSpec(event, el.Layer)
			if err := outStore.CreateSpatialView(ctx, spec); err != nil {
				return err
			}
		}
	}
	for _, analysis := range sortedAnalyses(project) {
		if err := outStore.CreateSpatialView(ctx, store.AnalysisViewSpec(analysis)); err != nil {
			return err
		}
	}
	progress.Set(70, "materialized views")

	bounds, err := e.projectBounds(ctx, project)
	if err != nil {
		return err
	}
	if !bounds.IsEmpty() {
		if err := writeBoundsFile(filepath.Join(e.OutputDir, boundsFileName), bounds); err != nil {
			return err
		}
	}
	progress.Set(85, "wrote project bounds")

	manifest := BuildManifest(project, bounds, now(), e.Version)
	if err := writeManifest(filepath.Join(e.OutputDir, manifestFileName), manifest); err != nil {
		return err
	}

	progress.Set(100, "export complete")
	log.Info("export: finished", "project", project.Name, "output", e.OutputDir)
	return nil
}

// projectBounds prefers the union of AOI features; projects with no AOI
// fall back to the union of their observation features.
func (e *Exporter) projectBounds(ctx context.Context, project *types.Project) (types.Envelope, error) {
	var env types.Envelope
	aois := project.AOIs()
	if len(aois) == 0 {
		return e.Store.ObservationEnvelope(ctx)
	}
	for _, aoi := range aois {
		features, err := e.Store.SampleFrameFeatures(ctx, aoi.ID)
		if err != nil {
			return env, err
		}
		for _, feature := range features {
			featureEnv, err := feature.Geometry.Envelope()
			if err != nil {
				return env, err
			}
			env.Union(featureEnv)
		}
	}
	return env, nil
}

// writeBoundsFile writes the extent as a single-feature GeoJSON document.
func writeBoundsFile(path string, bounds types.Envelope) error {
	doc := map[string]any{
		"type": "FeatureCollection",
		"features": []map[string]any{
			{
				"type":       "Feature",
				"properties": map[string]any{},
				"geometry":   bounds.AsPolygon(),
			},
		},
	}
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding project bounds: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("writing project bounds: %w", err)
	}
	return nil
}

func writeManifest(path string, manifest *Manifest) error {
	raw, err := xml.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	content := append([]byte(xml.Header), raw...)
	content = append(content, '\n')
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}
