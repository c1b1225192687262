package risk

import (
	"compress/gzip"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Save writes the fitted model to path as a gzip-compressed JSON artifact.
// The write goes through a temp file and rename so a crash never leaves a
// truncated artifact behind.
func (m *Model) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrap(err, "risk: create artifact dir")
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".model-*")
	if err != nil {
		return eris.Wrap(err, "risk: create temp artifact")
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	gz := gzip.NewWriter(tmp)
	if err := json.NewEncoder(gz).Encode(m); err != nil {
		tmp.Close()
		return eris.Wrap(err, "risk: encode artifact")
	}
	if err := gz.Close(); err != nil {
		tmp.Close()
		return eris.Wrap(err, "risk: flush artifact")
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrap(err, "risk: close temp artifact")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return eris.Wrap(err, "risk: move artifact into place")
	}

	zap.L().Info("risk: saved model artifact",
		zap.String("path", path),
		zap.Int("rows", len(m.Points)),
		zap.Int("k", m.K),
	)
	return nil
}

// Load reads a model artifact written by Save. A missing artifact is an
// error; callers at process startup should treat it as fatal.
func Load(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "risk: open artifact %s", path)
	}
	defer f.Close() //nolint:errcheck

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, eris.Wrap(err, "risk: read artifact header")
	}
	defer gz.Close() //nolint:errcheck

	var m Model
	if err := json.NewDecoder(gz).Decode(&m); err != nil {
		return nil, eris.Wrap(err, "risk: decode artifact")
	}
	if err := m.validate(); err != nil {
		return nil, err
	}

	zap.L().Info("risk: loaded model artifact",
		zap.String("path", path),
		zap.Int("rows", len(m.Points)),
		zap.Int("k", m.K),
	)
	return &m, nil
}

func (m *Model) validate() error {
	if m.K < 1 {
		return eris.Errorf("risk: artifact has invalid k %d", m.K)
	}
	if len(m.Points) == 0 {
		return eris.New("risk: artifact has no training points")
	}
	if len(m.Points) != len(m.Targets) {
		return eris.Errorf("risk: artifact has %d points but %d targets", len(m.Points), len(m.Targets))
	}
	for i := range m.Scaler.Std {
		if m.Scaler.Std[i] == 0 {
			return eris.New("risk: artifact has zero scaler stddev")
		}
	}
	return nil
}
