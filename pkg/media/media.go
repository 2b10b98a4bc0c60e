// pkg/media/media.go

package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ASHISH26940/video-studio-api/pkg/apperr"
	log "github.com/sirupsen/logrus"
)

// Runner executes an external media tool and returns its standard output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs binaries through os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return out, fmt.Errorf("%s: %w: %s", filepath.Base(name), err, tail(stderr.String(), 512))
	}
	return out, nil
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) > n {
		return "..." + s[len(s)-n:]
	}
	return s
}

// Prober reads stream facts with ffprobe.
type Prober struct {
	runner Runner
	path   string
}

func NewProber(runner Runner, ffprobePath string) *Prober {
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Prober{runner: runner, path: ffprobePath}
}

// Duration returns the container duration of the file in seconds.
func (p *Prober) Duration(ctx context.Context, path string) (float64, error) {
	out, err := p.runner.Run(ctx, p.path,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	if err != nil {
		return 0, fmt.Errorf("probing duration of %s: %w", filepath.Base(path), err)
	}
	dur, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil || dur <= 0 {
		return 0, apperr.NewParseError(fmt.Sprintf("ffprobe reported no duration for %s", filepath.Base(path)), err)
	}
	return dur, nil
}

// HasAudio reports whether the file carries at least one audio stream.
func (p *Prober) HasAudio(ctx context.Context, path string) (bool, error) {
	out, err := p.runner.Run(ctx, p.path,
		"-v", "error",
		"-select_streams", "a",
		"-show_entries", "stream=index",
		"-of", "csv=p=0",
		path,
	)
	if err != nil {
		return false, fmt.Errorf("probing audio of %s: %w", filepath.Base(path), err)
	}
	return strings.TrimSpace(string(out)) != "", nil
}

// MeasureAudio writes data to a scratch file and probes its duration.
func (p *Prober) MeasureAudio(ctx context.Context, data []byte) (float64, error) {
	f, err := os.CreateTemp("", "studio-audio-*.mp3")
	if err != nil {
		return 0, fmt.Errorf("creating scratch file: %w", err)
	}
	defer os.Remove(f.Name())

	if _, err := f.Write(data); err != nil {
		f.Close()
		return 0, fmt.Errorf("writing scratch file: %w", err)
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("closing scratch file: %w", err)
	}
	return p.Duration(ctx, f.Name())
}

// Fetcher downloads generated media.
type Fetcher struct {
	httpClient *http.Client
}

func NewFetcher(hc *http.Client) *Fetcher {
	if hc == nil {
		hc = &http.Client{Timeout: 5 * time.Minute}
	}
	return &Fetcher{httpClient: hc}
}

// Open starts a GET for url. The caller closes the body.
func (f *Fetcher) Open(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperr.NewValidationError("invalid media url", err)
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, apperr.NewTransportError("fetching media failed", 0, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, apperr.NewTransportError(fmt.Sprintf("media host returned %s", resp.Status), resp.StatusCode, nil)
	}
	return resp, nil
}

// Fetch downloads url into dst.
func (f *Fetcher) Fetch(ctx context.Context, url, dst string) error {
	resp, err := f.Open(ctx, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}
	n, err := io.Copy(out, resp.Body)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(dst)
		return apperr.NewTransportError("downloading media failed", 0, err)
	}
	log.Debugf("Fetch: %d bytes into %s", n, filepath.Base(dst))
	return nil
}

// ProxyHeaders are set on proxied media. Generated media URLs never change
// content, so responses may be cached indefinitely.
func ProxyHeaders() map[string]string {
	return map[string]string{
		"Cross-Origin-Resource-Policy": "cross-origin",
		"Access-Control-Allow-Origin":  "*",
		"Cache-Control":                "public, max-age=31536000, immutable",
	}
}
