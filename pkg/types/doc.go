// Package types defines the project entity types, geometry primitives, and
// standard errors shared by the QRiS core: the store, the climate ingestion
// pipeline, and the riverscapes exporter.
package types
