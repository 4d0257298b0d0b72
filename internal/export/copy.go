package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// VectorTranslator copies a vector dataset into the export tree. The
// default implementation copies bytes; a GDAL-backed host can substitute
// a real format translation.
type VectorTranslator interface {
	Translate(src, dest string) error
}

// byteCopyTranslator copies the dataset file verbatim.
type byteCopyTranslator struct{}

func (byteCopyTranslator) Translate(src, dest string) error {
	return copyFile(src, dest)
}

func copyFile(src, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(dest), err)
	}
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()
	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dest, err)
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copying to %s: %w", dest, err)
	}
	return out.Close()
}
