package store

// Schema DDL. Tables are introduced by the migration that first shipped
// them; the engine replays the full history onto new files, so these
// constants are the whole schema in creation order.

// Core project tables.
const (
	createProjects = `CREATE TABLE projects (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    description TEXT,
    map_guid TEXT,
    metadata TEXT,
    created_on TEXT NOT NULL
);`

	createLayers = `CREATE TABLE layers (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    machine_id TEXT NOT NULL UNIQUE,
    name TEXT NOT NULL,
    geom_type TEXT NOT NULL,
    fc_name TEXT NOT NULL,
    is_lookup INTEGER NOT NULL DEFAULT 0,
    metadata TEXT
);`

	createSampleFrames = `CREATE TABLE sample_frames (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    description TEXT,
    metadata TEXT
);`

	createSampleFrameFeatures = `CREATE TABLE sample_frame_features (
    fid INTEGER PRIMARY KEY AUTOINCREMENT,
    sample_frame_id INTEGER NOT NULL,
    display_label TEXT,
    geom TEXT,
    metadata TEXT,
    FOREIGN KEY (sample_frame_id) REFERENCES sample_frames(id) ON DELETE CASCADE
);`

	createEvents = `CREATE TABLE events (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    description TEXT,
    event_type TEXT NOT NULL,
    start_date TEXT,
    end_date TEXT,
    metadata TEXT
);`

	createEventLayers = `CREATE TABLE event_layers (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    event_id INTEGER NOT NULL,
    layer_id INTEGER NOT NULL,
    FOREIGN KEY (event_id) REFERENCES events(id) ON DELETE CASCADE,
    FOREIGN KEY (layer_id) REFERENCES layers(id)
);`

	createRasters = `CREATE TABLE rasters (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    path TEXT NOT NULL,
    raster_type_id INTEGER NOT NULL,
    is_context INTEGER NOT NULL DEFAULT 0,
    date TEXT
);`
)

// Observation feature classes. Geometry is held as GeoJSON text; the
// embedded vector driver is an external collaborator and its binary
// encoding is out of scope.
const (
	createDcePoints = `CREATE TABLE dce_points (
    fid INTEGER PRIMARY KEY AUTOINCREMENT,
    event_id INTEGER NOT NULL,
    event_layer_id INTEGER NOT NULL,
    geom TEXT,
    metadata TEXT
);`

	createDceLines = `CREATE TABLE dce_lines (
    fid INTEGER PRIMARY KEY AUTOINCREMENT,
    event_id INTEGER NOT NULL,
    event_layer_id INTEGER NOT NULL,
    geom TEXT,
    metadata TEXT
);`

	createDcePolygons = `CREATE TABLE dce_polygons (
    fid INTEGER PRIMARY KEY AUTOINCREMENT,
    event_id INTEGER NOT NULL,
    event_layer_id INTEGER NOT NULL,
    geom TEXT,
    metadata TEXT
);`
)

// GeoPackage catalog tables.
const (
	createGpkgSpatialRefSys = `CREATE TABLE gpkg_spatial_ref_sys (
    srs_name TEXT NOT NULL,
    srs_id INTEGER PRIMARY KEY,
    organization TEXT NOT NULL,
    organization_coordsys_id INTEGER NOT NULL,
    definition TEXT NOT NULL,
    description TEXT
);`

	createGpkgContents = `CREATE TABLE gpkg_contents (
    table_name TEXT PRIMARY KEY,
    data_type TEXT NOT NULL,
    identifier TEXT UNIQUE,
    description TEXT DEFAULT '',
    last_change TEXT,
    min_x REAL,
    min_y REAL,
    max_x REAL,
    max_y REAL,
    srs_id INTEGER
);`

	createGpkgGeometryColumns = `CREATE TABLE gpkg_geometry_columns (
    table_name TEXT NOT NULL,
    column_name TEXT NOT NULL,
    geometry_type_name TEXT NOT NULL,
    srs_id INTEGER NOT NULL,
    z TINYINT NOT NULL,
    m TINYINT NOT NULL,
    PRIMARY KEY (table_name, column_name)
);`
)

// Metric and analysis tables.
const (
	createMetrics = `CREATE TABLE metrics (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    machine_name TEXT NOT NULL UNIQUE,
    description TEXT,
    default_unit TEXT
);`

	createMetricValues = `CREATE TABLE metric_values (
    analysis_id INTEGER NOT NULL,
    sample_frame_feature_id INTEGER NOT NULL,
    metric_id INTEGER NOT NULL,
    is_manual INTEGER NOT NULL DEFAULT 0,
    manual_value REAL,
    automated_value REAL,
    metadata TEXT,
    PRIMARY KEY (analysis_id, sample_frame_feature_id, metric_id)
);`

	createAnalyses = `CREATE TABLE analyses (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    description TEXT,
    sample_frame_id INTEGER NOT NULL,
    FOREIGN KEY (sample_frame_id) REFERENCES sample_frames(id)
);`

	createAnalysisMetrics = `CREATE TABLE analysis_metrics (
    analysis_id INTEGER NOT NULL,
    metric_id INTEGER NOT NULL,
    level_id INTEGER NOT NULL DEFAULT 1,
    PRIMARY KEY (analysis_id, metric_id),
    FOREIGN KEY (analysis_id) REFERENCES analyses(id) ON DELETE CASCADE,
    FOREIGN KEY (metric_id) REFERENCES metrics(id)
);`
)

// Longitudinal and watershed entities.
const (
	createProfiles = `CREATE TABLE profiles (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    profile_type_id INTEGER NOT NULL DEFAULT 1
);`

	createProfileFeatures = `CREATE TABLE profile_features (
    fid INTEGER PRIMARY KEY AUTOINCREMENT,
    profile_id INTEGER NOT NULL,
    geom TEXT,
    metadata TEXT
);`

	createProfileCenterlines = `CREATE TABLE profile_centerlines (
    fid INTEGER PRIMARY KEY AUTOINCREMENT,
    profile_id INTEGER NOT NULL,
    geom TEXT,
    metadata TEXT
);`

	createCrossSections = `CREATE TABLE cross_sections (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL
);`

	createCrossSectionFeatures = `CREATE TABLE cross_section_features (
    fid INTEGER PRIMARY KEY AUTOINCREMENT,
    cross_section_id INTEGER NOT NULL,
    geom TEXT,
    metadata TEXT
);`

	createPourPoints = `CREATE TABLE pour_points (
    fid INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    geom TEXT,
    metadata TEXT
);`

	createCatchments = `CREATE TABLE catchments (
    fid INTEGER PRIMARY KEY AUTOINCREMENT,
    pour_point_id INTEGER NOT NULL,
    geom TEXT,
    FOREIGN KEY (pour_point_id) REFERENCES pour_points(fid) ON DELETE CASCADE
);`

	createScratchVectors = `CREATE TABLE scratch_vectors (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    fc_name TEXT NOT NULL,
    vector_type_id INTEGER NOT NULL DEFAULT 1
);`
)

// Time series tables.
const (
	createTimeSeries = `CREATE TABLE time_series (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    source TEXT,
    url TEXT,
    metadata TEXT
);`

	createSampleFrameTimeSeries = `CREATE TABLE sample_frame_time_series (
    sample_frame_fid INTEGER NOT NULL,
    time_series_id INTEGER NOT NULL,
    time_value TEXT NOT NULL,
    value REAL,
    FOREIGN KEY (time_series_id) REFERENCES time_series(id) ON DELETE CASCADE
);`
)

// Lookup tables. Seeded by the migration that creates them.
const (
	createLkpEventTypes = `CREATE TABLE lkp_event_types (
    id INTEGER PRIMARY KEY,
    name TEXT NOT NULL UNIQUE
);`

	createLkpRasterTypes = `CREATE TABLE lkp_raster_types (
    id INTEGER PRIMARY KEY,
    name TEXT NOT NULL UNIQUE
);`

	createLkpScratchVectorTypes = `CREATE TABLE lkp_scratch_vector_types (
    id INTEGER PRIMARY KEY,
    name TEXT NOT NULL UNIQUE
);`
)

// Attachment registry.
const createAttachments = `CREATE TABLE attachments (
    attachment_id INTEGER PRIMARY KEY AUTOINCREMENT,
    display_label TEXT NOT NULL,
    attachment_type TEXT NOT NULL,
    path TEXT NOT NULL,
    description TEXT,
    metadata TEXT
);`
