package installer

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/kodelint/tooler/internal/config"
	"github.com/kodelint/tooler/internal/platform"
	"github.com/kodelint/tooler/internal/registry"
	"github.com/kodelint/tooler/internal/release"
	"github.com/kodelint/tooler/internal/toolid"
)

func tarGzBytes(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gw)
	for name, body := range files {
		hdr := &tar.Header{Name: name, Mode: 0o755, Size: int64(len(body))}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write([]byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// testEnv wires an installer against temp directories and an httptest server
// that plays both the metadata API and the download host.
type testEnv struct {
	ins        *Installer
	reg        *registry.Registry
	paths      config.Paths
	fetchCount int
}

func newTestEnv(t *testing.T, assetName string, assetBody []byte) *testEnv {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("exec-bit semantics")
	}

	tmp := t.TempDir()
	env := &testEnv{
		paths: config.Paths{
			ConfigDir:    tmp,
			DataDir:      tmp,
			InstallRoot:  filepath.Join(tmp, "tools"),
			RegistryFile: filepath.Join(tmp, "registry.json"),
		},
	}
	if err := os.MkdirAll(env.paths.InstallRoot, 0o755); err != nil {
		t.Fatal(err)
	}

	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	mux.HandleFunc("/repos/acme/cli/releases/latest", func(w http.ResponseWriter, r *http.Request) {
		env.fetchCount++
		fmt.Fprintf(w, `{
			"tag_name": "v1.2.3",
			"assets": [
				{"name": "cli-linux-amd64.tar.gz.sha256", "browser_download_url": "%s/dl/checksum"},
				{"name": %q, "browser_download_url": "%s/dl/%s"}
			]
		}`, srv.URL, assetName, srv.URL, assetName)
	})
	mux.HandleFunc("/dl/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(assetBody)
	})

	client := release.NewClient("test")
	client.BaseURL = srv.URL

	env.reg = registry.Load(env.paths.RegistryFile, config.Settings{UpdateCheckDays: 30})
	env.ins = &Installer{
		Paths:    env.paths,
		Client:   client,
		Download: srv.Client(),
		Platform: platform.Identity{OS: "linux", Arch: "amd64"},
		Registry: env.reg,
	}
	return env
}

func TestEndToEndInstallFromEmptyState(t *testing.T) {
	body := tarGzBytes(t, map[string]string{
		"cli":       "#!/bin/sh\necho cli\n",
		"README.md": "docs",
	})
	env := newTestEnv(t, "cli-linux-amd64.tar.gz", body)

	id, _ := toolid.Parse("acme/cli")
	rec, err := env.ins.Resolve(id, false)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}

	if env.fetchCount != 1 {
		t.Fatalf("made %d metadata fetches, want 1", env.fetchCount)
	}
	if rec.Version != "v1.2.3" {
		t.Fatalf("record version = %q, want the concrete resolved tag", rec.Version)
	}
	if rec.InstallKind != "archive" {
		t.Fatalf("install kind = %q, want archive", rec.InstallKind)
	}
	if rec.Pinned {
		t.Fatal("latest install must not be pinned")
	}
	if rec.LastAccessed.IsZero() {
		t.Fatal("last_accessed not set")
	}
	if _, ok := env.reg.Tools["acme/cli:v1.2.3"]; !ok {
		t.Fatalf("registry keyed wrong: %v", env.reg.Tools)
	}

	info, err := os.Stat(rec.ExecutablePath)
	if err != nil {
		t.Fatalf("executable missing: %v", err)
	}
	if info.Mode().Perm()&0o111 == 0 {
		t.Fatal("executable lacks execute permission")
	}
	if !strings.Contains(rec.ExecutablePath, filepath.Join("acme__cli", "v1.2.3")) {
		t.Fatalf("install not version-scoped: %q", rec.ExecutablePath)
	}
}

func TestResolveFastPathSkipsNetwork(t *testing.T) {
	body := tarGzBytes(t, map[string]string{"cli": "#!/bin/sh\n"})
	env := newTestEnv(t, "cli-linux-amd64.tar.gz", body)

	id, _ := toolid.Parse("acme/cli")
	if _, err := env.ins.Resolve(id, false); err != nil {
		t.Fatal(err)
	}
	if _, err := env.ins.Resolve(id, false); err != nil {
		t.Fatal(err)
	}
	if env.fetchCount != 1 {
		t.Fatalf("valid install should be the fast path, made %d fetches", env.fetchCount)
	}
}

func TestResolveReinstallsAfterCorruption(t *testing.T) {
	body := tarGzBytes(t, map[string]string{"cli": "#!/bin/sh\n"})
	env := newTestEnv(t, "cli-linux-amd64.tar.gz", body)

	id, _ := toolid.Parse("acme/cli")
	rec, err := env.ins.Resolve(id, false)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(rec.ExecutablePath); err != nil {
		t.Fatal(err)
	}

	// The corrupted record self-heals on lookup; the resolve falls through to
	// a fresh install.
	again, err := env.ins.Resolve(id, false)
	if err != nil {
		t.Fatalf("Resolve() after corruption error: %v", err)
	}
	if env.fetchCount != 2 {
		t.Fatalf("made %d fetches, want 2", env.fetchCount)
	}
	if _, err := os.Stat(again.ExecutablePath); err != nil {
		t.Fatalf("reinstalled executable missing: %v", err)
	}
}

func TestForceWipesAndReinstalls(t *testing.T) {
	body := tarGzBytes(t, map[string]string{"cli": "#!/bin/sh\n"})
	env := newTestEnv(t, "cli-linux-amd64.tar.gz", body)

	id, _ := toolid.Parse("acme/cli")
	rec, err := env.ins.Resolve(id, false)
	if err != nil {
		t.Fatal(err)
	}

	// Drop a marker into the version directory; a forced install is
	// clean-room and must not carry it over.
	marker := filepath.Join(filepath.Dir(rec.ExecutablePath), "stale-marker")
	if err := os.WriteFile(marker, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := env.ins.Resolve(id, true); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(marker); !os.IsNotExist(err) {
		t.Fatal("forced install did not clear the version directory")
	}
	if env.fetchCount != 2 {
		t.Fatalf("made %d fetches, want 2", env.fetchCount)
	}
}

func TestDirectBinaryInstall(t *testing.T) {
	env := newTestEnv(t, "cli-linux-amd64", []byte("\x7fELF fake binary"))

	id, _ := toolid.Parse("acme/cli")
	rec, err := env.ins.Resolve(id, false)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if rec.InstallKind != "binary" {
		t.Fatalf("install kind = %q, want binary", rec.InstallKind)
	}
	if filepath.Base(rec.ExecutablePath) != "cli" {
		t.Fatalf("binary not placed under the canonical tool name: %q", rec.ExecutablePath)
	}
	info, err := os.Stat(rec.ExecutablePath)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm()&0o111 == 0 {
		t.Fatal("binary lacks execute permission")
	}
}

func TestFailedInstallLeavesNoState(t *testing.T) {
	// Archive extracts fine but contains no executable matching the tool.
	body := tarGzBytes(t, map[string]string{"LICENSE": "MIT"})
	env := newTestEnv(t, "cli-linux-amd64.tar.gz", body)

	id, _ := toolid.Parse("acme/cli")
	if _, err := env.ins.Resolve(id, false); err == nil {
		t.Fatal("Resolve() succeeded without an executable in the archive")
	}

	if len(env.reg.Tools) != 0 {
		t.Fatalf("failed install left registry records: %v", env.reg.Tools)
	}
	versionDir := filepath.Join(env.paths.InstallRoot, "acme__cli", "v1.2.3")
	if _, err := os.Stat(versionDir); !os.IsNotExist(err) {
		t.Fatal("failed install left a partial version directory")
	}

	// Temp download storage is cleaned on the failure path too.
	leftovers, err := filepath.Glob(filepath.Join(env.paths.DataDir, "download-*"))
	if err != nil {
		t.Fatal(err)
	}
	if len(leftovers) != 0 {
		t.Fatalf("temp downloads not cleaned up: %v", leftovers)
	}
}

func TestInstallShortNameWithoutOwnerFails(t *testing.T) {
	body := tarGzBytes(t, map[string]string{"cli": "#!/bin/sh\n"})
	env := newTestEnv(t, "cli-linux-amd64.tar.gz", body)

	id, _ := toolid.Parse("cli")
	if _, err := env.ins.Resolve(id, false); err == nil {
		t.Fatal("Resolve() of an unknown short name should fail without an owner")
	}
}

func TestInstallShortNameResolvesRepoFromRegistry(t *testing.T) {
	body := tarGzBytes(t, map[string]string{"cli": "#!/bin/sh\n"})
	env := newTestEnv(t, "cli-linux-amd64.tar.gz", body)

	id, _ := toolid.Parse("acme/cli")
	if _, err := env.ins.Resolve(id, false); err != nil {
		t.Fatal(err)
	}

	// A registered tool can be updated by its short name alone; the owner
	// comes out of the registry.
	short, _ := toolid.Parse("cli")
	rec, err := env.ins.Install(short, true)
	if err != nil {
		t.Fatalf("Install() by short name error: %v", err)
	}
	if rec.Repo != "acme/cli" {
		t.Fatalf("record repo = %q, want acme/cli", rec.Repo)
	}
	if env.fetchCount != 2 {
		t.Fatalf("made %d fetches, want 2", env.fetchCount)
	}
}

func TestUpdateAllReinstallsUnpinnedOnly(t *testing.T) {
	body := tarGzBytes(t, map[string]string{"cli": "#!/bin/sh\n"})
	env := newTestEnv(t, "cli-linux-amd64.tar.gz", body)

	id, _ := toolid.Parse("acme/cli")
	if _, err := env.ins.Resolve(id, false); err != nil {
		t.Fatal(err)
	}

	// A pinned record for a repo the server does not know. UpdateAll must
	// never reach the network for it.
	pinnedExe := filepath.Join(t.TempDir(), "other")
	if err := os.WriteFile(pinnedExe, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	pinned := registry.Record{
		ToolName:       "other",
		Repo:           "acme/other",
		Version:        "v9.9.9",
		ExecutablePath: pinnedExe,
		InstallKind:    "binary",
		Pinned:         true,
	}
	if err := env.reg.Upsert(pinned); err != nil {
		t.Fatal(err)
	}

	updated, err := env.ins.UpdateAll()
	if err != nil {
		t.Fatalf("UpdateAll() error: %v", err)
	}
	if len(updated) != 1 || updated[0].Repo != "acme/cli" {
		t.Fatalf("UpdateAll() = %+v, want only acme/cli", updated)
	}
	if env.fetchCount != 2 {
		t.Fatalf("made %d fetches, want 2 (install + update, pinned skipped)", env.fetchCount)
	}
	if env.reg.Tools["acme/other:v9.9.9"].Version != "v9.9.9" {
		t.Fatal("pinned record was touched")
	}
}
