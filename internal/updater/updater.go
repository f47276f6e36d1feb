// Package updater finds newer cliconfig releases on GitHub and replaces the
// running binary with one.
package updater

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"github.com/inconshreveable/go-update"
	"go.uber.org/zap"
	"golang.org/x/mod/semver"

	"cliconfig-go/internal/config"
)

// BinaryName is the executable looked for inside release archives.
const BinaryName = "cliconfig"

const (
	osWindows = "windows"
	extZip    = ".zip"
	extTarGz  = ".tar.gz"
)

// ErrNoRepo is returned when no release repository is configured.
var ErrNoRepo = errors.New("no update repository configured")

// Asset is a downloadable file attached to a release.
type Asset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

// Release is the subset of a GitHub release we use.
type Release struct {
	TagName     string    `json:"tag_name"`
	Name        string    `json:"name,omitempty"`
	Body        string    `json:"body,omitempty"`
	HTMLURL     string    `json:"html_url,omitempty"`
	PublishedAt time.Time `json:"published_at,omitempty"`
	Assets      []Asset   `json:"assets"`
}

// Version returns the tag without its "v" prefix.
func (r *Release) Version() string {
	return strings.TrimPrefix(r.TagName, "v")
}

// Status is the outcome of a check.
type Status struct {
	Current   string   `json:"current"`
	Latest    string   `json:"latest"`
	Available bool     `json:"available"`
	Release   *Release `json:"release,omitempty"`
}

// IsNewer reports whether latest is a higher version than current. Both
// may carry a "v" prefix. A current version that is not semver, such as
// "dev", is older than any release.
func IsNewer(current, latest string) bool {
	return semver.Compare(canonical(current), canonical(latest)) < 0
}

func canonical(v string) string {
	return "v" + strings.TrimPrefix(strings.TrimSpace(v), "v")
}

// Checker talks to the GitHub releases API.
type Checker struct {
	client *http.Client
	apiURL string
	repo   string
	logger *zap.Logger
}

// NewChecker creates a checker for the repository in cfg.
func NewChecker(cfg *config.UpdateConfig, logger *zap.Logger) *Checker {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Checker{
		client: &http.Client{Timeout: config.UpdateDownloadTimeout},
		apiURL: config.DefaultUpdateAPIURL,
		logger: logger.Named("update"),
	}
	if cfg != nil {
		c.repo = cfg.Repo
		if cfg.APIURL != "" {
			c.apiURL = strings.TrimRight(cfg.APIURL, "/")
		}
	}
	return c
}

// LatestRelease fetches the newest published release.
func (c *Checker) LatestRelease(ctx context.Context) (*Release, error) {
	if c.repo == "" {
		return nil, ErrNoRepo
	}

	ctx, cancel := context.WithTimeout(ctx, config.UpdateCheckTimeout)
	defer cancel()

	url := fmt.Sprintf("%s/repos/%s/releases/latest", c.apiURL, c.repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch latest release: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch latest release of %s: %s", c.repo, resp.Status)
	}

	var release Release
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, fmt.Errorf("failed to decode release: %w", err)
	}
	if release.TagName == "" {
		return nil, fmt.Errorf("release of %s has no tag", c.repo)
	}
	return &release, nil
}

// Check compares the running version with the latest release.
func (c *Checker) Check(ctx context.Context, current string) (*Status, error) {
	release, err := c.LatestRelease(ctx)
	if err != nil {
		return nil, err
	}

	st := &Status{
		Current:   current,
		Latest:    release.Version(),
		Available: IsNewer(current, release.TagName),
		Release:   release,
	}
	c.logger.Debug("Checked for updates",
		zap.String("current", st.Current),
		zap.String("latest", st.Latest),
		zap.Bool("available", st.Available))
	return st, nil
}

// FindAssetURL picks the archive for goos/goarch: a "latest-" asset first,
// then a versioned one. Windows uses .zip, everything else .tar.gz.
func FindAssetURL(release *Release, goos, goarch string) (string, error) {
	ext := extTarGz
	if goos == osWindows {
		ext = extZip
	}

	latestSuffix := fmt.Sprintf("latest-%s-%s%s", goos, goarch, ext)
	for _, a := range release.Assets {
		if strings.HasSuffix(a.Name, latestSuffix) {
			return a.BrowserDownloadURL, nil
		}
	}

	versionedSuffix := fmt.Sprintf("-%s-%s%s", goos, goarch, ext)
	for _, a := range release.Assets {
		if strings.HasSuffix(a.Name, versionedSuffix) {
			return a.BrowserDownloadURL, nil
		}
	}

	return "", fmt.Errorf("no release asset for %s-%s (tried %s and %s)", goos, goarch, latestSuffix, versionedSuffix)
}

// Apply downloads url and replaces the binary at targetPath with the
// executable inside it.
func (c *Checker) Apply(ctx context.Context, url, targetPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to download %s: %s", url, resp.Status)
	}

	c.logger.Info("Applying update", zap.String("url", url), zap.String("target", targetPath))
	switch {
	case strings.HasSuffix(url, extZip):
		return applyZip(resp.Body, targetPath)
	case strings.HasSuffix(url, extTarGz):
		return applyTarGz(resp.Body, targetPath)
	default:
		return apply(resp.Body, targetPath)
	}
}

func apply(r io.Reader, targetPath string) error {
	if err := update.Apply(r, update.Options{TargetPath: targetPath}); err != nil {
		if rerr := update.RollbackError(err); rerr != nil {
			return fmt.Errorf("update failed and rollback failed, %s may be missing: %w", targetPath, rerr)
		}
		return fmt.Errorf("failed to replace %s: %w", targetPath, err)
	}
	return nil
}

func isBinary(name string) bool {
	base := path.Base(name)
	return base == BinaryName || base == BinaryName+".exe"
}

func applyZip(body io.Reader, targetPath string) error {
	tmp, err := os.CreateTemp("", "cliconfig-update-*.zip")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	size, err := io.Copy(tmp, body)
	if err != nil {
		return err
	}

	zr, err := zip.NewReader(tmp, size)
	if err != nil {
		return fmt.Errorf("failed to open zip archive: %w", err)
	}

	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !isBinary(f.Name) {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return err
		}
		err = apply(rc, targetPath)
		rc.Close()
		return err
	}
	return fmt.Errorf("no %s binary in zip archive", BinaryName)
}

func applyTarGz(body io.Reader, targetPath string) error {
	gzr, err := gzip.NewReader(body)
	if err != nil {
		return fmt.Errorf("failed to open tar.gz archive: %w", err)
	}
	defer gzr.Close()

	tr := tar.NewReader(gzr)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if header.Typeflag == tar.TypeReg && isBinary(header.Name) {
			return apply(tr, targetPath)
		}
	}
	return fmt.Errorf("no %s binary in tar.gz archive", BinaryName)
}
