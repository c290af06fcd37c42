// Package installer selects release assets for the platform and stages them
// into version-scoped install directories.
package installer

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/kodelint/tooler/internal/config"
	"github.com/kodelint/tooler/internal/logger"
	"github.com/kodelint/tooler/internal/platform"
	"github.com/kodelint/tooler/internal/registry"
	"github.com/kodelint/tooler/internal/release"
	"github.com/kodelint/tooler/internal/toolid"
)

// Strategy is the closed set of installation strategies, dispatched once per
// install so cleanup-on-failure stays uniform.
type Strategy int

const (
	StrategyBinary             Strategy = iota // move the download into place under the canonical name
	StrategyArchive                            // extract, then locate the executable
	StrategyInterpreterPackage                 // provision an interpreter environment and launcher
)

func strategyFor(kind AssetKind) Strategy {
	switch kind {
	case KindArchive:
		return StrategyArchive
	case KindWheel:
		return StrategyInterpreterPackage
	default:
		// OS packages are placed directly like binaries; the engine does not
		// drive system package managers.
		return StrategyBinary
	}
}

func (s Strategy) installKind() string {
	switch s {
	case StrategyArchive:
		return "archive"
	case StrategyInterpreterPackage:
		return "interpreter-package"
	default:
		return "binary"
	}
}

// Installer wires the resolution flow: registry fast path, release metadata
// fetch, asset selection, download, staging, and the registry write-back.
// All collaborators are injected so tests can run it against temp dirs and
// httptest servers.
type Installer struct {
	Paths    config.Paths
	Client   *release.Client
	Download *http.Client
	Platform platform.Identity
	Registry *registry.Registry
}

// New builds an installer for the current host.
func New(paths config.Paths, client *release.Client, reg *registry.Registry) *Installer {
	return &Installer{
		Paths:    paths,
		Client:   client,
		Download: &http.Client{},
		Platform: platform.Detect(),
		Registry: reg,
	}
}

// Resolve returns a valid install record for the identifier, installing on a
// registry miss. With force set, any existing install of the resolved version
// is wiped and rebuilt; otherwise a still-valid record is the fast path and
// no disk or network work happens.
func (ins *Installer) Resolve(id toolid.ToolID, force bool) (registry.Record, error) {
	if !force {
		if rec, ok := ins.Registry.Lookup(id.Key()); ok {
			logger.Debug("[DEBUG] %s already installed at %s\n", id, rec.ExecutablePath)
			return rec, nil
		}
	}
	return ins.Install(id, force)
}

// Install runs the full pipeline for the identifier and records the result.
// A short name without an owner is resolved to its repository through the
// registry, so an already-installed tool can be updated by name alone.
func (ins *Installer) Install(id toolid.ToolID, force bool) (registry.Record, error) {
	if id.Owner == "" {
		repo, ok := ins.Registry.RepoFor(id.Name)
		if !ok {
			return registry.Record{}, fmt.Errorf(
				"cannot install %q: not in the registry and no owner was given (use owner/name)", id.Name)
		}
		owner, name, _ := strings.Cut(repo, "/")
		id.Owner, id.Name = owner, name
		logger.Debug("[DEBUG] Resolved short name to %s via registry\n", repo)
	}

	rel, err := ins.Client.Fetch(id.FullRepo(), id.APIVersion())
	if err != nil {
		return registry.Record{}, err
	}

	// A "latest" resolution is keyed by the concrete tag from here on; the
	// registry never stores an unresolved latest entry.
	tag := rel.TagName
	if tag == "" {
		return registry.Record{}, fmt.Errorf("release for %s has no tag name", id.FullRepo())
	}

	// Re-check the fast path against the resolved tag: latest may resolve to
	// a version that is already installed and valid.
	if !force {
		concrete := toolid.Key{Repo: id.FullRepo(), Version: tag}
		if rec, ok := ins.Registry.Lookup(concrete); ok {
			logger.Info("[INFO] %s %s already installed at %s\n", id.FullRepo(), tag, rec.ExecutablePath)
			return rec, nil
		}
	}

	asset, err := SelectAsset(rel.Assets, id.Name, ins.Platform)
	if err != nil {
		return registry.Record{}, err
	}
	logger.Info("[INFO] Installing %s %s (%s)\n", id.FullRepo(), tag, asset.Name)

	execPath, strategy, err := ins.stage(id, tag, asset)
	if err != nil {
		return registry.Record{}, err
	}

	now := time.Now()
	rec := registry.Record{
		ToolName:       strings.ToLower(id.Name),
		Repo:           id.FullRepo(),
		Version:        tag,
		ExecutablePath: execPath,
		InstallKind:    strategy.installKind(),
		Pinned:         id.IsPinned(),
		InstalledAt:    now,
		LastAccessed:   now,
	}
	if err := ins.Registry.Upsert(rec); err != nil {
		return registry.Record{}, err
	}
	logger.Success("[OK] Installed %s %s -> %s\n", id.FullRepo(), tag, execPath)
	return rec, nil
}

// UpdateAll reinstalls every unpinned registered tool at its latest release.
// Pinned records are never touched. A failing tool is reported and skipped so
// one broken release does not stop the pass; the collected failures come back
// as a single error after every tool was tried.
func (ins *Installer) UpdateAll() ([]registry.Record, error) {
	repos := make(map[string]bool)
	for _, rec := range ins.Registry.Tools {
		if !rec.Pinned {
			repos[rec.Repo] = true
		}
	}
	order := make([]string, 0, len(repos))
	for repo := range repos {
		order = append(order, repo)
	}
	sort.Strings(order)

	var updated []registry.Record
	var failed []string
	for _, repo := range order {
		id, err := toolid.Parse(repo)
		if err != nil {
			logger.Warn("[WARN] Skipping registry entry with bad repo %q: %v\n", repo, err)
			failed = append(failed, repo)
			continue
		}
		rec, err := ins.Install(id, true)
		if err != nil {
			logger.Warn("[WARN] Update of %s failed: %v\n", repo, err)
			failed = append(failed, repo)
			continue
		}
		updated = append(updated, rec)
	}
	if len(failed) > 0 {
		return updated, fmt.Errorf("update failed for: %s", strings.Join(failed, ", "))
	}
	return updated, nil
}

// stage downloads the asset and builds the version-scoped install directory.
// Every step is a hard gate: on failure the partially-built directory is
// removed before returning, so no half-installed version is ever left behind.
func (ins *Installer) stage(id toolid.ToolID, tag string, asset release.Asset) (string, Strategy, error) {
	installDir := filepath.Join(ins.Paths.InstallRoot,
		strings.ReplaceAll(id.FullRepo(), "/", "__"), tag)

	// Every install is clean-room; no incremental upgrades.
	if _, err := os.Stat(installDir); err == nil {
		logger.Debug("[DEBUG] Clearing existing install directory %s\n", installDir)
		if err := os.RemoveAll(installDir); err != nil {
			return "", 0, fmt.Errorf("could not clear install directory %s: %w", installDir, err)
		}
	}
	if err := os.MkdirAll(installDir, 0o755); err != nil {
		return "", 0, fmt.Errorf("could not create install directory %s: %w", installDir, err)
	}

	execPath, strategy, err := ins.stageInto(installDir, id, asset)
	if err != nil {
		if rmErr := os.RemoveAll(installDir); rmErr != nil {
			logger.Error("[ERROR] Failed to clean up %s after failed install: %v\n", installDir, rmErr)
		}
		return "", 0, err
	}
	return execPath, strategy, nil
}

func (ins *Installer) stageInto(installDir string, id toolid.ToolID, asset release.Asset) (string, Strategy, error) {
	// The download lives outside the install directory so a wipe of the
	// directory never touches in-flight transfers. The deferred remove keeps
	// temp storage scoped to this install on success and failure alike; only
	// a hard kill can orphan it.
	tmp, err := os.CreateTemp(ins.Paths.DataDir, "download-*-"+asset.Name)
	if err != nil {
		return "", 0, fmt.Errorf("could not create temporary download file: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer func() {
		if err := os.Remove(tmpPath); err != nil && !os.IsNotExist(err) {
			logger.Warn("[WARN] Failed to remove temporary file %s: %v\n", tmpPath, err)
		}
	}()

	if err := downloadTo(ins.Download, asset.BrowserDownloadURL, tmpPath); err != nil {
		return "", 0, err
	}

	strategy := strategyFor(Classify(asset.Name))
	var execPath string

	switch strategy {
	case StrategyArchive:
		if err := extractArchive(tmpPath, installDir); err != nil {
			return "", 0, fmt.Errorf("extraction of %s failed: %w", asset.Name, err)
		}
		found, ok := locateExecutable(installDir, id.Name, ins.Platform.OS)
		if !ok {
			return "", 0, fmt.Errorf("no executable for %s found in extracted archive %s", id.Name, asset.Name)
		}
		execPath = found

	case StrategyInterpreterPackage:
		found, err := provisionWheel(installDir, tmpPath, strings.ToLower(id.Name), ins.Platform.OS)
		if err != nil {
			return "", 0, err
		}
		execPath = found

	case StrategyBinary:
		execPath = filepath.Join(installDir, strings.ToLower(id.Name)+platform.ExecutableSuffix(ins.Platform.OS))
		if err := moveFile(tmpPath, execPath); err != nil {
			return "", 0, fmt.Errorf("could not place binary %s: %w", asset.Name, err)
		}
	}

	if ins.Platform.OS != "windows" && strategy != StrategyInterpreterPackage {
		if err := os.Chmod(execPath, 0o755); err != nil {
			return "", 0, fmt.Errorf("could not set executable permissions on %s: %w", execPath, err)
		}
	}
	return execPath, strategy, nil
}

// moveFile renames src to dst, falling back to a copy when the rename
// crosses filesystems.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := out.ReadFrom(in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
