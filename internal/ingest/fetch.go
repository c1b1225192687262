package ingest

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/saferoute/internal/config"
)

// Fetcher downloads dataset files from HTTP(S) and FTP sources. Local
// paths pass through untouched.
type Fetcher struct {
	client     *http.Client
	limiter    *rate.Limiter
	maxRetries int
	timeout    time.Duration
}

// NewFetcher creates a Fetcher from import configuration.
func NewFetcher(cfg config.ImportConfig) *Fetcher {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	retries := cfg.MaxRetries
	if retries < 1 {
		retries = 3
	}
	perSec := cfg.RatePerSec
	if perSec <= 0 {
		perSec = 4
	}
	return &Fetcher{
		client:     &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(perSec), 1),
		maxRetries: retries,
		timeout:    timeout,
	}
}

// Fetch resolves src to a local file path, downloading into destDir when
// src is a URL.
func (f *Fetcher) Fetch(ctx context.Context, src, destDir string) (string, error) {
	switch {
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		return f.fetchHTTP(ctx, src, destDir)
	case strings.HasPrefix(src, "ftp://"):
		return f.fetchFTP(ctx, src, destDir)
	default:
		if _, err := os.Stat(src); err != nil {
			return "", eris.Wrapf(err, "ingest: source %s", src)
		}
		return src, nil
	}
}

func destPath(src, destDir string) (string, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", eris.Wrap(err, "ingest: create download dir")
	}
	u, err := url.Parse(src)
	if err != nil {
		return "", eris.Wrap(err, "ingest: parse source url")
	}
	name := filepath.Base(u.Path)
	if name == "" || name == "/" || name == "." {
		name = "download"
	}
	return filepath.Join(destDir, name), nil
}

func (f *Fetcher) fetchHTTP(ctx context.Context, src, destDir string) (string, error) {
	dest, err := destPath(src, destDir)
	if err != nil {
		return "", err
	}

	var lastErr error
	for attempt := 0; attempt < f.maxRetries; attempt++ {
		if err := f.limiter.Wait(ctx); err != nil {
			return "", eris.Wrap(err, "ingest: rate limiter wait")
		}
		if err := f.downloadOnce(ctx, src, dest); err != nil {
			lastErr = err
			zap.L().Warn("ingest: download failed, retrying",
				zap.String("url", src),
				zap.Int("attempt", attempt+1),
				zap.Error(err),
			)
			continue
		}
		return dest, nil
	}
	return "", eris.Wrapf(lastErr, "ingest: download %s after %d attempts", src, f.maxRetries)
}

func (f *Fetcher) downloadOnce(ctx context.Context, src, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return eris.Wrap(err, "build request")
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "download")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("download returned status %d", resp.StatusCode)
	}

	out, err := os.Create(dest)
	if err != nil {
		return eris.Wrap(err, "create file")
	}
	defer out.Close() //nolint:errcheck

	if _, err := io.Copy(out, resp.Body); err != nil {
		return eris.Wrap(err, "write file")
	}
	return nil
}

func (f *Fetcher) fetchFTP(ctx context.Context, src, destDir string) (string, error) {
	dest, err := destPath(src, destDir)
	if err != nil {
		return "", err
	}

	u, err := url.Parse(src)
	if err != nil {
		return "", eris.Wrap(err, "ingest: parse ftp url")
	}
	host := u.Host
	if _, _, splitErr := net.SplitHostPort(host); splitErr != nil {
		host = net.JoinHostPort(host, "21")
	}
	if u.Path == "" {
		return "", eris.New("ingest: empty path in ftp url")
	}

	conn, err := ftp.Dial(host, ftp.DialWithTimeout(f.timeout), ftp.DialWithContext(ctx))
	if err != nil {
		return "", eris.Wrap(err, "ingest: ftp dial")
	}
	defer conn.Quit() //nolint:errcheck

	if err := conn.Login("anonymous", "anonymous@"); err != nil {
		return "", eris.Wrap(err, "ingest: ftp login")
	}

	resp, err := conn.Retr(u.Path)
	if err != nil {
		return "", eris.Wrap(err, "ingest: ftp retrieve")
	}
	defer resp.Close() //nolint:errcheck

	out, err := os.Create(dest)
	if err != nil {
		return "", eris.Wrap(err, "ingest: create file")
	}
	defer out.Close() //nolint:errcheck

	if _, err := io.Copy(out, resp); err != nil {
		return "", eris.Wrap(err, "ingest: write file")
	}
	return dest, nil
}
