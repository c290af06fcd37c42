package installer

import (
	"fmt"
	"strings"

	"github.com/kodelint/tooler/internal/logger"
	"github.com/kodelint/tooler/internal/platform"
	"github.com/kodelint/tooler/internal/release"
)

// AssetKind classifies a release asset by its filename.
type AssetKind int

const (
	KindBinary  AssetKind = iota // no recognized extension; assumed direct executable
	KindArchive                  // tar/zip family
	KindPackage                  // OS package formats (.deb, .rpm, ...)
	KindWheel                    // interpreter-distributed package (.whl)
)

func (k AssetKind) String() string {
	switch k {
	case KindArchive:
		return "archive"
	case KindPackage:
		return "package"
	case KindWheel:
		return "interpreter-package"
	default:
		return "binary"
	}
}

// ignoredExts mark assets that are never installable artifacts: checksums,
// signatures, docs, and build manifests.
var ignoredExts = []string{
	".sha256", ".sha512", ".sha1", ".md5", ".asc", ".sig", ".pem", ".pub",
	".md", ".txt", ".pom", ".xml", ".json", ".yml", ".yaml", ".sbom",
}

var archiveExts = []string{
	".tar.gz", ".tgz", ".tar.xz", ".tar.bz2", ".tar", ".zip", ".7z",
}

var packageExts = []string{
	".deb", ".rpm", ".apk", ".pkg", ".msi",
}

// bucketRule is one entry of the priority-ordered bucket selection. Buckets
// are exclusive on the platform-tag axis: an OS-only bucket holds assets that
// name the OS but not the architecture.
type bucketRule struct {
	wantOS   bool
	wantArch bool
	kind     AssetKind
}

// bucketPriority is the selection order. Each step is a hard filter, so
// tie-breaks stay deterministic and explainable; new platform or package
// conventions are added here, not in branch logic.
var bucketPriority = []bucketRule{
	{wantOS: true, wantArch: true, kind: KindArchive},
	{wantOS: true, wantArch: true, kind: KindPackage},
	{wantOS: true, wantArch: false, kind: KindArchive},
	{wantOS: true, wantArch: false, kind: KindPackage},
	{wantOS: false, wantArch: true, kind: KindArchive},
	{wantOS: false, wantArch: true, kind: KindPackage},
}

// NoAssetError reports that no release asset fits the platform. It carries
// the full asset name list so the user can diagnose naming mismatches.
type NoAssetError struct {
	Platform platform.Identity
	Assets   []string
}

func (e *NoAssetError) Error() string {
	return fmt.Sprintf("no suitable asset for %s/%s; available assets: %s",
		e.Platform.OS, e.Platform.Arch, strings.Join(e.Assets, ", "))
}

// Classify determines the asset kind from its filename.
func Classify(name string) AssetKind {
	lower := strings.ToLower(name)
	if strings.HasSuffix(lower, ".whl") {
		return KindWheel
	}
	for _, ext := range archiveExts {
		if strings.HasSuffix(lower, ext) {
			return KindArchive
		}
	}
	for _, ext := range packageExts {
		if strings.HasSuffix(lower, ext) {
			return KindPackage
		}
	}
	return KindBinary
}

func isIgnored(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range ignoredExts {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

func containsAny(name string, aliases []string) bool {
	for _, alias := range aliases {
		if strings.Contains(name, alias) {
			return true
		}
	}
	return false
}

// candidate is a classified, platform-tagged asset.
type candidate struct {
	asset   release.Asset
	kind    AssetKind
	hasOS   bool
	hasArch bool
}

// SelectAsset chooses the single best-fitting asset for the platform.
//
// Assets with non-artifact extensions are dropped first. The remainder are
// classified and tagged with OS/arch alias hits, then the buckets are walked
// in priority order; within a bucket the first asset in original list order
// wins. When every bucket is empty, the selector falls back to an asset whose
// filename starts with the tool's short name, then to an interpreter package
// (.whl) if one is present.
func SelectAsset(assets []release.Asset, toolName string, id platform.Identity) (release.Asset, error) {
	osAliases := id.OSAliases()
	archAliases := id.ArchAliases()

	var candidates []candidate
	var names []string
	for _, asset := range assets {
		names = append(names, asset.Name)
		if isIgnored(asset.Name) {
			logger.Debug("[DEBUG] Ignoring non-artifact asset %s\n", asset.Name)
			continue
		}
		lower := strings.ToLower(asset.Name)
		candidates = append(candidates, candidate{
			asset:   asset,
			kind:    Classify(asset.Name),
			hasOS:   containsAny(lower, osAliases),
			hasArch: containsAny(lower, archAliases),
		})
	}

	for _, rule := range bucketPriority {
		for _, c := range candidates {
			if c.kind == rule.kind && c.hasOS == rule.wantOS && c.hasArch == rule.wantArch {
				logger.Debug("[DEBUG] Selected %s (kind=%s, os=%v, arch=%v)\n",
					c.asset.Name, c.kind, c.hasOS, c.hasArch)
				return c.asset, nil
			}
		}
	}

	// Fallback: a bare asset named after the tool itself, common for single
	// binary releases with no platform tag in the filename.
	prefix := strings.ToLower(toolName)
	for _, c := range candidates {
		if c.kind != KindWheel && strings.HasPrefix(strings.ToLower(c.asset.Name), prefix) {
			logger.Debug("[DEBUG] Selected %s by tool-name prefix fallback\n", c.asset.Name)
			return c.asset, nil
		}
	}

	// Last resort: an interpreter-distributed package.
	for _, c := range candidates {
		if c.kind == KindWheel {
			logger.Warn("[WARN] Falling back to interpreter package %s\n", c.asset.Name)
			return c.asset, nil
		}
	}

	return release.Asset{}, &NoAssetError{Platform: id, Assets: names}
}
