package ingest

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// ExtractZIP extracts all regular files from a ZIP archive into destDir,
// flattening directory structure. Returns the extracted paths.
func ExtractZIP(zipPath, destDir string) ([]string, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: open zip")
	}
	defer r.Close() //nolint:errcheck

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, eris.Wrap(err, "ingest: create extract dir")
	}

	var extracted []string
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		destPath := filepath.Join(destDir, filepath.Base(f.Name))

		rc, err := f.Open()
		if err != nil {
			return extracted, eris.Wrapf(err, "ingest: open zip entry %s", f.Name)
		}
		out, err := os.Create(destPath)
		if err != nil {
			rc.Close() //nolint:errcheck
			return extracted, eris.Wrapf(err, "ingest: create %s", destPath)
		}
		if _, err := io.Copy(out, rc); err != nil {
			out.Close() //nolint:errcheck
			rc.Close()  //nolint:errcheck
			return extracted, eris.Wrapf(err, "ingest: extract %s", f.Name)
		}
		out.Close() //nolint:errcheck
		rc.Close()  //nolint:errcheck
		extracted = append(extracted, destPath)
	}
	return extracted, nil
}

// findFileByExt finds the first file with the given extension in a directory.
func findFileByExt(dir, ext string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", eris.Wrap(err, "ingest: read directory")
	}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(strings.ToLower(e.Name()), ext) {
			return filepath.Join(dir, e.Name()), nil
		}
	}
	return "", eris.Errorf("ingest: no %s file found in %s", ext, dir)
}
