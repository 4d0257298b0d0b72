// Package qris exposes release identity shared by the CLI and export
// manifests.
package qris

// Version is the release version stamped into manifests and the CLI.
const Version = "1.0.0"
