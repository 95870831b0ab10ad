package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/couchcryptid/pgn-l0-service/internal/domain"
	"github.com/couchcryptid/pgn-l0-service/internal/observability"
	"golang.org/x/net/html"
)

// MaxFileSize caps a single fetched file.
const MaxFileSize = 256 << 20

var (
	ErrInvalidPath  = errors.New("invalid archive path")
	ErrFileTooLarge = errors.New("file exceeds size limit")
)

// Client implements domain.Archive over the PGN HTTP file index.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates an archive client rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger:  logger,
		metrics: metrics,
	}
}

// DevicesPath returns the archive directory listing the devices at location.
func DevicesPath(location string) string {
	return location + "/"
}

// FilesPath returns the archive directory holding the L0 files of a device.
func FilesPath(location, device string) string {
	return location + "/" + device + "/L0/"
}

// List returns the entry names of the directory at p, with "./" and any
// trailing "/" removed.
func (c *Client) List(ctx context.Context, p string) ([]string, error) {
	u, err := c.resolve(p, true)
	if err != nil {
		return nil, err
	}
	body, err := c.get(ctx, u, "list")
	if err != nil {
		return nil, err
	}
	defer body.Close()

	entries, err := parseListing(body)
	if err != nil {
		c.metrics.ArchiveRequests.WithLabelValues("list", "error").Inc()
		return nil, fmt.Errorf("parse listing %s: %w", p, err)
	}
	c.metrics.ArchiveRequests.WithLabelValues("list", "success").Inc()
	return entries, nil
}

// Fetch downloads the file at p. The format is inferred from its name.
func (c *Client) Fetch(ctx context.Context, p string) (domain.RawBlob, error) {
	u, err := c.resolve(p, false)
	if err != nil {
		return domain.RawBlob{}, err
	}
	body, err := c.get(ctx, u, "fetch")
	if err != nil {
		return domain.RawBlob{}, err
	}
	defer body.Close()

	data, err := io.ReadAll(io.LimitReader(body, MaxFileSize+1))
	if err != nil {
		c.metrics.ArchiveRequests.WithLabelValues("fetch", "error").Inc()
		return domain.RawBlob{}, fmt.Errorf("read %s: %w", p, err)
	}
	if len(data) > MaxFileSize {
		c.metrics.ArchiveRequests.WithLabelValues("fetch", "error").Inc()
		return domain.RawBlob{}, fmt.Errorf("%w: %s", ErrFileTooLarge, p)
	}
	c.metrics.ArchiveRequests.WithLabelValues("fetch", "success").Inc()
	c.logger.Debug("archive file fetched", "path", p, "bytes", len(data))
	return domain.NewRawBlob(path.Base(p), data), nil
}

// resolve joins p onto the base URL, escaping each segment. Directory
// URLs keep a trailing slash so the index server serves the listing.
func (c *Client) resolve(p string, dir bool) (string, error) {
	p = strings.Trim(p, "/")
	var segments []string
	if p != "" {
		for _, s := range strings.Split(p, "/") {
			if s == "" || s == "." || s == ".." {
				return "", fmt.Errorf("%w: %q", ErrInvalidPath, p)
			}
			segments = append(segments, url.PathEscape(s))
		}
	}
	if !dir && len(segments) == 0 {
		return "", fmt.Errorf("%w: empty file path", ErrInvalidPath)
	}
	u := c.baseURL + "/" + strings.Join(segments, "/")
	if dir && len(segments) > 0 {
		u += "/"
	}
	return u, nil
}

func (c *Client) get(ctx context.Context, fullURL, op string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.ArchiveDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.ArchiveRequests.WithLabelValues(op, "error").Inc()
		return nil, fmt.Errorf("archive %s request: %w", op, err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.metrics.ArchiveRequests.WithLabelValues(op, "error").Inc()
		return nil, fmt.Errorf("archive error: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return resp.Body, nil
}

// parseListing extracts relative entries ("./name" or "./name/") from an
// HTML directory index.
func parseListing(r io.Reader) ([]string, error) {
	z := html.NewTokenizer(r)
	var entries []string
	for {
		switch z.Next() {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return entries, nil
			}
			return nil, z.Err()
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			if string(name) != "a" || !hasAttr {
				continue
			}
			for {
				key, val, more := z.TagAttr()
				if string(key) == "href" {
					if entry, ok := listingEntry(string(val)); ok {
						entries = append(entries, entry)
					}
				}
				if !more {
					break
				}
			}
		}
	}
}

func listingEntry(href string) (string, bool) {
	if !strings.HasPrefix(href, "./") {
		return "", false
	}
	entry := strings.TrimRight(strings.TrimPrefix(href, "./"), "/")
	if entry == "" {
		return "", false
	}
	if unescaped, err := url.PathUnescape(entry); err == nil {
		entry = unescaped
	}
	return entry, true
}
