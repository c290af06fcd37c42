package installer

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/kodelint/tooler/internal/logger"
	"github.com/schollz/progressbar/v3"
)

// downloadTo streams the asset at url into dest, rendering a byte-count
// progress bar on stderr. A transport error or non-2xx response fails the
// download; the caller owns removal of the partial file.
func downloadTo(client *http.Client, url, dest string) error {
	logger.Info("[INFO] Downloading %s\n", filepath.Base(dest))

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("download of %s failed: %w", url, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			logger.Warn("[WARN] Failed to close response body: %v\n", cerr)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("download of %s failed: HTTP %d", url, resp.StatusCode)
	}

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("could not create %s: %w", dest, err)
	}
	defer out.Close()

	bar := progressbar.DefaultBytes(resp.ContentLength, "    downloading")
	if _, err := io.Copy(io.MultiWriter(out, bar), resp.Body); err != nil {
		return fmt.Errorf("download of %s interrupted: %w", url, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("could not flush %s: %w", dest, err)
	}
	return nil
}
