// Package registry persists the mapping of tool+version to verified install
// records across process invocations.
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/kodelint/tooler/internal/config"
	"github.com/kodelint/tooler/internal/logger"
	"github.com/kodelint/tooler/internal/toolid"
)

// Record is the persisted fact that a specific tool+version is installed at a
// specific executable path. Owned exclusively by the registry; mutated only on
// install, access, or removal.
type Record struct {
	ToolName       string    `json:"tool_name"`
	Repo           string    `json:"repo"`
	Version        string    `json:"version"`
	ExecutablePath string    `json:"executable_path"`
	InstallKind    string    `json:"install_kind"` // binary | archive | interpreter-package
	Pinned         bool      `json:"pinned"`
	InstalledAt    time.Time `json:"installed_at"`
	LastAccessed   time.Time `json:"last_accessed"`
}

// Settings are the persisted registry tunables.
type Settings struct {
	UpdateCheckDays int `json:"update_check_days"`
}

// Notice reports that a newer release was seen for an installed tool. It is
// informational only; installation stays an explicit, separate action.
type Notice struct {
	Repo     string
	ToolName string
	Current  string
	Latest   string
}

// Registry is the single source of truth for installed tools. Records are
// stored under concrete "repo:version" keys; a "latest" install is re-keyed
// to its resolved tag before storage, so no unresolved entry ever persists.
type Registry struct {
	Tools    map[string]Record `json:"tools"`
	Settings Settings          `json:"settings"`

	path     string
	targetOS string
}

// Load reads the registry file at path. A missing or unparseable file yields
// an empty registry, never a startup failure. Settings default from the
// resolved configuration when the file carries none.
func Load(path string, defaults config.Settings) *Registry {
	r := &Registry{
		Tools:    make(map[string]Record),
		Settings: Settings{UpdateCheckDays: defaults.UpdateCheckDays},
		path:     path,
		targetOS: runtime.GOOS,
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return r
	}
	var onDisk Registry
	if err := json.Unmarshal(raw, &onDisk); err != nil {
		logger.Warn("[WARN] Registry file %s is corrupt, starting empty: %v\n", path, err)
		return r
	}
	if onDisk.Tools != nil {
		r.Tools = onDisk.Tools
	}
	if onDisk.Settings.UpdateCheckDays > 0 {
		r.Settings.UpdateCheckDays = onDisk.Settings.UpdateCheckDays
	}
	return r
}

// Save writes the registry back to disk, pretty-printed. Called after every
// mutation; the registry file is the source of truth across invocations.
func (r *Registry) Save() error {
	raw, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("could not marshal registry: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("could not create registry directory: %w", err)
	}
	if err := os.WriteFile(r.path, raw, 0o644); err != nil {
		return fmt.Errorf("could not write registry file %s: %w", r.path, err)
	}
	return nil
}

func storageKey(repo, version string) string {
	return repo + ":" + version
}

// Upsert stores a record under its concrete repo:version key and persists.
func (r *Registry) Upsert(rec Record) error {
	r.Tools[storageKey(rec.Repo, rec.Version)] = rec
	return r.Save()
}

// Lookup resolves a query to a valid install record. A pinned key matches one
// concrete version (tag "v" prefixes ignored); a bare key returns the most
// recently used install for the repo. Executable validity is re-checked on
// every call: a record whose file is gone or no longer executable is treated
// as corruption, removed, and reported as a miss so the caller reinstalls.
// Successful lookups refresh last_accessed.
func (r *Registry) Lookup(key toolid.Key) (Record, bool) {
	storeKey, rec, ok := r.find(key)
	if !ok {
		return Record{}, false
	}

	if !r.executableValid(rec.ExecutablePath) {
		logger.Warn("[WARN] Install for %s is corrupted (missing or non-executable %s), removing record\n",
			storeKey, rec.ExecutablePath)
		delete(r.Tools, storeKey)
		if err := r.Save(); err != nil {
			logger.Error("[ERROR] Failed to persist registry after self-heal: %v\n", err)
		}
		return Record{}, false
	}

	rec.LastAccessed = time.Now()
	r.Tools[storeKey] = rec
	if err := r.Save(); err != nil {
		logger.Error("[ERROR] Failed to persist registry after lookup: %v\n", err)
	}
	return rec, true
}

// find resolves a query key to a storage key and record without validation.
func (r *Registry) find(key toolid.Key) (string, Record, bool) {
	if key.IsPinned() {
		want := toolid.NormalizeVersion(key.Version)
		for storeKey, rec := range r.Tools {
			if r.repoMatches(rec, key.Repo) && toolid.NormalizeVersion(rec.Version) == want {
				return storeKey, rec, true
			}
		}
		return "", Record{}, false
	}

	var bestKey string
	var best Record
	found := false
	for storeKey, rec := range r.Tools {
		if !r.repoMatches(rec, key.Repo) {
			continue
		}
		if !found || rec.LastAccessed.After(best.LastAccessed) {
			bestKey, best, found = storeKey, rec, true
		}
	}
	return bestKey, best, found
}

// RepoFor resolves a bare tool name to the repository coordinate of its most
// recently used record. No executable validation happens here: the caller is
// the update path, which rebuilds the install anyway.
func (r *Registry) RepoFor(name string) (string, bool) {
	_, rec, ok := r.find(toolid.Key{Repo: name})
	if !ok {
		return "", false
	}
	return rec.Repo, true
}

// repoMatches accepts the full owner/name coordinate or the bare tool name,
// so `tooler run act` finds a tool installed as nektos/act.
func (r *Registry) repoMatches(rec Record, repo string) bool {
	lower := strings.ToLower(repo)
	return strings.ToLower(rec.Repo) == lower || strings.ToLower(rec.ToolName) == lower
}

// Remove deletes a single pinned version, or every version of the repo when
// the key is bare. The removed records are returned so the caller can delete
// their install directories.
func (r *Registry) Remove(key toolid.Key) ([]Record, error) {
	var removed []Record
	if key.IsPinned() {
		storeKey, rec, ok := r.find(key)
		if !ok {
			return nil, fmt.Errorf("tool %s not found in registry", key.Storage())
		}
		delete(r.Tools, storeKey)
		removed = append(removed, rec)
	} else {
		for storeKey, rec := range r.Tools {
			if r.repoMatches(rec, key.Repo) {
				delete(r.Tools, storeKey)
				removed = append(removed, rec)
			}
		}
		if len(removed) == 0 {
			return nil, fmt.Errorf("tool %s not found in registry", key.Repo)
		}
	}
	if err := r.Save(); err != nil {
		return removed, err
	}
	return removed, nil
}

// CheckStaleness re-checks unpinned records whose last access is older than
// the update window, using the supplied resolver for the remote latest tag.
// Each checked record's last_accessed is bumped and persisted even when no
// update is found, so repeated calls inside the same window do no remote
// work. Version-pinned records are never checked, and a differing remote tag
// only produces a notice, never an install.
func (r *Registry) CheckStaleness(now time.Time, latestTag func(repo string) (string, error)) []Notice {
	if r.Settings.UpdateCheckDays <= 0 {
		return nil
	}
	window := time.Duration(r.Settings.UpdateCheckDays) * 24 * time.Hour

	// Stable iteration so notices come out in a deterministic order.
	keys := make([]string, 0, len(r.Tools))
	for k := range r.Tools {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var notices []Notice
	checked := make(map[string]string) // repo -> latest tag, one remote query per repo
	dirty := false

	for _, storeKey := range keys {
		rec := r.Tools[storeKey]
		if rec.Pinned || now.Sub(rec.LastAccessed) <= window {
			continue
		}

		tag, seen := checked[rec.Repo]
		if !seen {
			remote, err := latestTag(rec.Repo)
			if err != nil {
				logger.Warn("[WARN] Update check for %s failed: %v\n", rec.Repo, err)
				continue
			}
			tag = remote
			checked[rec.Repo] = remote
		}

		if toolid.NormalizeVersion(tag) != toolid.NormalizeVersion(rec.Version) {
			notices = append(notices, Notice{
				Repo:     rec.Repo,
				ToolName: rec.ToolName,
				Current:  rec.Version,
				Latest:   tag,
			})
		}
		rec.LastAccessed = now
		r.Tools[storeKey] = rec
		dirty = true
	}

	if dirty {
		if err := r.Save(); err != nil {
			logger.Error("[ERROR] Failed to persist registry after update check: %v\n", err)
		}
	}
	return notices
}

// SetTargetOS overrides the OS used for executable validation. Tests use this
// to exercise Windows semantics on any host.
func (r *Registry) SetTargetOS(os string) {
	r.targetOS = os
}

// executableValid re-checks, never caches, that the path references an
// existing, platform-executable file.
func (r *Registry) executableValid(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	if r.targetOS == "windows" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".exe", ".cmd", ".bat":
			return true
		}
		return false
	}
	return info.Mode().Perm()&0o111 != 0
}

// InstallDirFor returns the version-scoped install directory for a record
// under the given install root.
func InstallDirFor(installRoot string, rec Record) string {
	return filepath.Join(installRoot, strings.ReplaceAll(rec.Repo, "/", "__"), rec.Version)
}

// RemoveInstallDir deletes a record's install directory. An already-missing
// tree is not an error.
func RemoveInstallDir(installRoot string, rec Record) error {
	return os.RemoveAll(InstallDirFor(installRoot, rec))
}
