package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/saferoute/internal/config"
	"github.com/sells-group/saferoute/internal/model"
	"github.com/sells-group/saferoute/internal/store"
)

// Importer loads a crime dataset from a local path or URL into the store
// and records provenance.
type Importer struct {
	store   store.Store
	fetcher *Fetcher
	cfg     config.ImportConfig
}

// NewImporter creates an Importer over the given store.
func NewImporter(st store.Store, cfg config.ImportConfig) *Importer {
	return &Importer{
		store:   st,
		fetcher: NewFetcher(cfg),
		cfg:     cfg,
	}
}

// Import fetches, parses, and stores one dataset. ZIP sources are
// extracted and the first contained CSV, XLSX, or shapefile is loaded.
func (im *Importer) Import(ctx context.Context, src string) (*model.ImportRecord, error) {
	local, err := im.fetcher.Fetch(ctx, src, im.cfg.TempDir)
	if err != nil {
		return nil, err
	}

	if strings.EqualFold(filepath.Ext(local), ".zip") {
		local, err = im.extractDataFile(local)
		if err != nil {
			return nil, err
		}
	}

	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(local)), ".")
	obs, skipped, err := im.parse(local, format, src)
	if err != nil {
		return nil, err
	}
	if len(obs) == 0 {
		return nil, eris.Errorf("ingest: %s yielded no usable observations", src)
	}

	if _, err := im.store.InsertObservations(ctx, obs); err != nil {
		return nil, err
	}

	rec := model.ImportRecord{
		ID:         uuid.New().String(),
		Source:     src,
		Format:     format,
		Rows:       len(obs),
		Skipped:    skipped,
		ImportedAt: time.Now().UTC(),
	}
	if err := im.store.RecordImport(ctx, rec); err != nil {
		return nil, err
	}

	zap.L().Info("ingest: imported dataset",
		zap.String("source", src),
		zap.String("format", format),
		zap.Int("rows", rec.Rows),
		zap.Int("skipped", rec.Skipped),
	)
	return &rec, nil
}

func (im *Importer) parse(path, format, src string) ([]model.Observation, int, error) {
	return parseFile(path, format, src, im.cfg)
}

// ParseFile parses a local dataset file, dispatching on its extension.
func ParseFile(path string, cfg config.ImportConfig) ([]model.Observation, int, error) {
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	return parseFile(path, format, path, cfg)
}

func parseFile(path, format, src string, cfg config.ImportConfig) ([]model.Observation, int, error) {
	switch format {
	case "csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, 0, eris.Wrap(err, "ingest: open csv")
		}
		defer f.Close() //nolint:errcheck
		return ParseCSV(f, CSVOptions{Charset: cfg.Charset, Source: src})
	case "xlsx":
		return ParseXLSX(path, src)
	case "shp":
		return ParseSHP(path, cfg.CrimeField, src)
	default:
		return nil, 0, eris.Errorf("ingest: unsupported format %q", format)
	}
}

// extractDataFile unzips an archive and locates the data file inside it.
func (im *Importer) extractDataFile(zipPath string) (string, error) {
	extractDir := filepath.Join(im.cfg.TempDir, strings.TrimSuffix(filepath.Base(zipPath), ".zip"))
	if _, err := ExtractZIP(zipPath, extractDir); err != nil {
		return "", err
	}
	for _, ext := range []string{".csv", ".xlsx", ".shp"} {
		if path, err := findFileByExt(extractDir, ext); err == nil {
			return path, nil
		}
	}
	return "", eris.Errorf("ingest: no data file found in %s", zipPath)
}
