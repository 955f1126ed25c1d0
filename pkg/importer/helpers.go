// CLAUDE:SUMMARY Shared import utilities: HTTP download with retries, ZIP member extraction, catalog CSV writer.
package importer

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"
)

const maxAttempts = 3

// Column names written to every imported data.csv.
const (
	descriptionColumn = "productos_descripcion"
	priceColumn       = "productos_precio_lista"
)

// retryBase is the first backoff step between download attempts.
var retryBase = time.Second

// downloadFile fetches url into dest. Failed attempts are retried with
// exponential backoff; dest only appears once a body was fully written.
func downloadFile(ctx context.Context, url, dest string) error {
	client := &http.Client{Timeout: 10 * time.Minute}
	part := dest + ".part"

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryBase << uint(attempt)):
			}
		}
		if lastErr = fetchOnce(ctx, client, url, part); lastErr == nil {
			return os.Rename(part, dest)
		}
		if ctx.Err() != nil {
			break
		}
	}
	os.Remove(part)
	return fmt.Errorf("download %s failed after %d attempts: %w", url, maxAttempts, lastErr)
}

func fetchOnce(ctx context.Context, client *http.Client, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d for %s", resp.StatusCode, url)
	}

	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// isZip reports whether the file at path starts with the ZIP local header.
func isZip(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()
	magic := make([]byte, 4)
	if _, err := io.ReadFull(f, magic); err != nil {
		return false, nil
	}
	return bytes.Equal(magic, []byte("PK\x03\x04")), nil
}

// archiveLink returns the first .zip link of the HTML page saved at path,
// resolved against pageURL. It returns "" when the file is not HTML.
func archiveLink(path, pageURL string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	head := make([]byte, 512)
	n, _ := io.ReadFull(f, head)
	if !strings.HasPrefix(http.DetectContentType(head[:n]), "text/html") {
		return "", nil
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", err
	}

	doc, err := html.Parse(f)
	if err != nil {
		return "", fmt.Errorf("parse page: %w", err)
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("parse page url: %w", err)
	}

	var link string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if link != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, a := range n.Attr {
				if a.Key != "href" || !strings.HasSuffix(strings.ToLower(a.Val), ".zip") {
					continue
				}
				if ref, err := url.Parse(a.Val); err == nil {
					link = base.ResolveReference(ref).String()
					return
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if link == "" {
		return "", fmt.Errorf("no .zip link on %s", pageURL)
	}
	return link, nil
}

// unzipMatching extracts the archive members accepted by match into destDir
// and returns their paths. Member paths are flattened to their base name and
// numbered when names repeat.
func unzipMatching(src, destDir string, match func(name string) bool) ([]string, error) {
	r, err := zip.OpenReader(src)
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	defer r.Close()

	var paths []string
	for i, f := range r.File {
		if f.FileInfo().IsDir() || !match(f.Name) {
			continue
		}
		destPath := filepath.Join(destDir, fmt.Sprintf("%03d_%s", i, filepath.Base(f.Name)))
		if err := extractMember(f, destPath); err != nil {
			return nil, err
		}
		paths = append(paths, destPath)
	}
	return paths, nil
}

func extractMember(f *zip.File, destPath string) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("open zip entry %s: %w", f.Name, err)
	}
	defer rc.Close()

	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", destPath, err)
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return fmt.Errorf("extract %s: %w", f.Name, err)
	}
	return out.Close()
}

// writeCatalogCSV writes prices as a ';'-delimited catalog file sorted by
// description, under the column names the loader recognizes.
func writeCatalogCSV(path string, prices map[string]float64) error {
	descs := make([]string, 0, len(prices))
	for d := range prices {
		descs = append(descs, d)
	}
	sort.Strings(descs)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create catalog file: %w", err)
	}
	w := csv.NewWriter(f)
	w.Comma = ';'
	w.Write([]string{descriptionColumn, priceColumn})
	for _, d := range descs {
		w.Write([]string{d, strconv.FormatFloat(prices[d], 'f', 2, 64)})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("write catalog file: %w", err)
	}
	return f.Close()
}

// ensureDir creates a directory if it doesn't exist.
func ensureDir(path string) error {
	return os.MkdirAll(path, 0o755)
}
