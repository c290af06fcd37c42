package installer

import (
	"archive/tar"
	"archive/zip"
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/sevenzip"
	"github.com/kodelint/tooler/internal/logger"
	"github.com/xi2/xz"
)

// extractArchive routes to the extraction function for the archive type and
// fails if nothing was extracted (malformed archive, or every entry rejected
// by the path-traversal guard).
func extractArchive(src, dest string) error {
	var extracted int
	var err error

	// Suffix checks are case-insensitive to match asset classification.
	lower := strings.ToLower(src)
	switch {
	case strings.HasSuffix(lower, ".zip"):
		extracted, err = extractZip(src, dest)
	case strings.HasSuffix(lower, ".7z"):
		extracted, err = extract7z(src, dest)
	case strings.HasSuffix(lower, ".tar"), strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"),
		strings.HasSuffix(lower, ".tar.bz2"), strings.HasSuffix(lower, ".tar.xz"):
		extracted, err = extractTar(src, dest)
	default:
		return fmt.Errorf("unsupported archive format: %s", filepath.Base(src))
	}

	if err != nil {
		return err
	}
	if extracted == 0 {
		return fmt.Errorf("archive %s produced no files", filepath.Base(src))
	}
	return nil
}

// safeTarget resolves an archive entry name against the extraction root.
// Entries with absolute paths, or whose resolved path would land outside the
// root, are rejected so a hostile archive cannot write elsewhere on disk.
func safeTarget(dest, name string) (string, bool) {
	if filepath.IsAbs(name) {
		return "", false
	}
	target := filepath.Join(dest, filepath.FromSlash(name))
	rel, err := filepath.Rel(dest, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return "", false
	}
	return target, true
}

// extractTar handles tar and its compressed variants, returning the number of
// regular files written.
func extractTar(src, dest string) (int, error) {
	f, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	var reader io.Reader = f
	lower := strings.ToLower(src)
	switch {
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		gr, err := gzip.NewReader(f)
		if err != nil {
			return 0, err
		}
		defer gr.Close()
		reader = gr
	case strings.HasSuffix(lower, ".tar.bz2"):
		reader = bzip2.NewReader(f)
	case strings.HasSuffix(lower, ".tar.xz"):
		xzr, err := xz.NewReader(f, 0)
		if err != nil {
			return 0, err
		}
		reader = xzr
	}

	tr := tar.NewReader(reader)
	extracted := 0
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return extracted, err
		}

		target, ok := safeTarget(dest, hdr.Name)
		if !ok {
			logger.Warn("[WARN] Skipping archive entry escaping extraction root: %s\n", hdr.Name)
			continue
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return extracted, err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return extracted, err
			}
			mode := hdr.FileInfo().Mode().Perm()
			if mode == 0 {
				mode = 0o644
			}
			outFile, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
			if err != nil {
				return extracted, err
			}
			if _, err := io.Copy(outFile, tr); err != nil {
				outFile.Close()
				return extracted, err
			}
			if err := outFile.Close(); err != nil {
				return extracted, err
			}
			extracted++
		case tar.TypeSymlink, tar.TypeLink:
			// Links can point anywhere; never materialize them.
			logger.Warn("[WARN] Skipping link entry in archive: %s\n", hdr.Name)
		default:
			logger.Debug("[DEBUG] Skipping unsupported tar entry type %q: %s\n", hdr.Typeflag, hdr.Name)
		}
	}
	return extracted, nil
}

// extractZip extracts a .zip archive, returning the number of files written.
func extractZip(src, dest string) (int, error) {
	r, err := zip.OpenReader(src)
	if err != nil {
		return 0, err
	}
	defer r.Close()

	extracted := 0
	for _, f := range r.File {
		target, ok := safeTarget(dest, f.Name)
		if !ok {
			logger.Warn("[WARN] Skipping archive entry escaping extraction root: %s\n", f.Name)
			continue
		}
		if f.Mode()&os.ModeSymlink != 0 {
			logger.Warn("[WARN] Skipping link entry in archive: %s\n", f.Name)
			continue
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return extracted, err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return extracted, err
		}
		mode := f.Mode().Perm()
		if mode == 0 {
			mode = 0o644
		}
		outFile, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
		if err != nil {
			return extracted, err
		}
		rc, err := f.Open()
		if err != nil {
			outFile.Close()
			return extracted, err
		}
		_, err = io.Copy(outFile, rc)
		rc.Close()
		if cerr := outFile.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return extracted, err
		}
		extracted++
	}
	return extracted, nil
}

// extract7z extracts a .7z archive using the sevenzip library.
func extract7z(src, dest string) (int, error) {
	r, err := sevenzip.OpenReader(src)
	if err != nil {
		return 0, fmt.Errorf("failed to open 7z archive: %w", err)
	}
	defer r.Close()

	extracted := 0
	for _, f := range r.File {
		target, ok := safeTarget(dest, f.Name)
		if !ok {
			logger.Warn("[WARN] Skipping archive entry escaping extraction root: %s\n", f.Name)
			continue
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return extracted, err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return extracted, err
		}
		rc, err := f.Open()
		if err != nil {
			return extracted, err
		}
		outFile, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, f.Mode().Perm())
		if err != nil {
			rc.Close()
			return extracted, err
		}
		_, err = io.Copy(outFile, rc)
		rc.Close()
		if cerr := outFile.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return extracted, err
		}
		extracted++
	}
	return extracted, nil
}
