// Package platform maps the host OS and CPU onto the canonical identifiers
// and the naming-pattern variants vendors use in release asset filenames.
package platform

import (
	"runtime"
	"sort"
	"strings"
)

// Identity is the canonical platform description, derived once per process.
type Identity struct {
	OS   string // "linux", "darwin", "windows"
	Arch string // "amd64", "arm64", "arm", or the raw machine string
}

// Detect resolves the identity of the running process.
func Detect() Identity {
	return Resolve(runtime.GOOS, runtime.GOARCH)
}

// Resolve canonicalizes a raw OS name and CPU string. It accepts both Go
// runtime names and uname-style machine strings. Unknown machine strings pass
// through verbatim as a fallback arch label; there is no failure mode.
func Resolve(rawOS, rawArch string) Identity {
	os := strings.ToLower(rawOS)
	if os == "macos" || os == "osx" {
		os = "darwin"
	}

	arch := rawArch
	switch strings.ToLower(rawArch) {
	case "amd64", "x86_64", "x64":
		arch = "amd64"
	case "arm64", "aarch64":
		arch = "arm64"
	case "arm", "armv6l", "armv7l":
		arch = "arm"
	}
	return Identity{OS: os, Arch: arch}
}

// osAliases lists the substrings vendors use for each OS in asset names.
// Bare "win" is deliberately absent: it is a substring of "darwin".
var osAliases = map[string][]string{
	"linux":   {"linux", "unknown-linux", "pc-linux"},
	"darwin":  {"darwin", "macos", "osx", "apple-darwin"},
	"windows": {"windows", "win64", "win32", "cygwin"},
}

// archAliases lists the substrings vendors use for each architecture.
var archAliases = map[string][]string{
	"amd64": {"amd64", "x86_64", "x64"},
	"arm64": {"arm64", "aarch64"},
	"arm":   {"arm", "armv7", "armv6"},
}

// OSAliases returns the asset-name substrings for the identity's OS.
func (id Identity) OSAliases() []string {
	if aliases, ok := osAliases[id.OS]; ok {
		return aliases
	}
	return []string{strings.ToLower(id.OS)}
}

// ArchAliases returns the asset-name substrings for the identity's
// architecture. Fallback arch labels alias only themselves.
func (id Identity) ArchAliases() []string {
	if aliases, ok := archAliases[id.Arch]; ok {
		return aliases
	}
	return []string{strings.ToLower(id.Arch)}
}

// Patterns returns every naming pattern a release asset might contain for
// this platform: combined OS+arch forms first, then OS-only and arch-only
// alias forms. The list is deduplicated and ordered longest first so the
// most specific pattern always wins a substring scan; ties break
// lexicographically to keep the output deterministic.
func (id Identity) Patterns() []string {
	seen := make(map[string]bool)
	var patterns []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			patterns = append(patterns, p)
		}
	}

	for _, osAlias := range id.OSAliases() {
		for _, archAlias := range id.ArchAliases() {
			for _, sep := range []string{"_", "-"} {
				add(osAlias + sep + archAlias)
			}
		}
	}
	for _, osAlias := range id.OSAliases() {
		add(osAlias)
	}
	for _, archAlias := range id.ArchAliases() {
		add(archAlias)
	}

	sort.SliceStable(patterns, func(i, j int) bool {
		if len(patterns[i]) != len(patterns[j]) {
			return len(patterns[i]) > len(patterns[j])
		}
		return patterns[i] < patterns[j]
	})
	return patterns
}

// ExecutableSuffix returns the canonical executable filename suffix for the
// target OS ("" on Unix-likes, ".exe" on Windows).
func ExecutableSuffix(os string) string {
	if os == "windows" {
		return ".exe"
	}
	return ""
}
