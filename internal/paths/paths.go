// Package paths normalizes the file paths stored in a project database.
// The store holds paths relative to its own directory with posix
// separators so an exported project opens on any operating system.
package paths

import (
	"net/url"
	"path/filepath"
	"strings"
)

// ToPosix replaces backslashes with forward slashes and collapses the
// result to a canonical posix form. No other trimming is applied.
func ToPosix(path string) string {
	cleaned := strings.ReplaceAll(path, "\\", "/")
	if cleaned == "" {
		return cleaned
	}
	// path.Clean strips a lone trailing slash and collapses doubled
	// separators, matching pure-posix normalization.
	out := cleanPosix(cleaned)
	return out
}

func cleanPosix(p string) string {
	segs := strings.Split(p, "/")
	out := make([]string, 0, len(segs))
	for i, seg := range segs {
		if seg == "" && i > 0 {
			continue
		}
		if seg == "." && len(segs) > 1 {
			continue
		}
		out = append(out, seg)
	}
	joined := strings.Join(out, "/")
	if joined == "" {
		joined = p[:1]
	}
	return joined
}

// SafeRelPath converts an absolute path to one relative to base. Paths that
// are already relative, empty, or on a different volume are returned
// unchanged. Never fails.
func SafeRelPath(inPath, base string) string {
	if inPath == "" || !filepath.IsAbs(inPath) {
		return inPath
	}
	rel, err := filepath.Rel(base, inPath)
	if err != nil {
		// Cross-volume (or otherwise unrelatable): keep the input.
		return inPath
	}
	return ToPosix(rel)
}

// SafeAbsPath resolves a relative path against base. Absolute and empty
// inputs are returned unchanged. Never fails.
func SafeAbsPath(inPath, base string) string {
	if inPath == "" || filepath.IsAbs(inPath) {
		return inPath
	}
	return ToPosix(filepath.Join(base, filepath.FromSlash(inPath)))
}

// IsURL reports whether s parses to a URL with both a scheme and a network
// location. Empty strings and bare paths are not URLs.
func IsURL(s string) bool {
	if s == "" {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Host != ""
}

// AttachmentsDir returns the directory that holds file-attachment blobs
// for the given project file.
func AttachmentsDir(projectFile string) string {
	return ToPosix(filepath.Join(filepath.Dir(projectFile), "attachments"))
}

// SafeFileName converts a raw display name into a file-system safe name:
// trimmed, spaces replaced with underscores, doubled underscores collapsed.
// The extension, when given, should include the leading dot.
func SafeFileName(raw, ext string) string {
	name := strings.TrimSpace(raw)
	name = strings.ReplaceAll(name, " ", "_")
	for strings.Contains(name, "__") {
		name = strings.ReplaceAll(name, "__", "_")
	}
	if ext != "" {
		name += ext
	}
	return name
}
