// Package toolid parses tool coordinates of the form `owner/name[:version]`
// and defines the registry key type derived from them.
package toolid

import (
	"fmt"
	"strings"
	"unicode"
)

// ToolID identifies a tool by its source repository and an optional version
// pin. An empty Version means "latest".
type ToolID struct {
	Owner   string // repository owner; empty for short-name queries like "act"
	Name    string // repository / tool short name
	Version string // explicit version pin, empty for latest
}

// Parse accepts the following forms:
//
//	owner/name            latest version
//	owner/name:v1.2.3     pinned version
//	name                  short name, resolvable against the registry only
//	name:v1.2.3           short name with version
func Parse(s string) (ToolID, error) {
	if s == "" {
		return ToolID{}, fmt.Errorf("tool identifier cannot be empty")
	}
	if strings.HasPrefix(s, "-") {
		return ToolID{}, fmt.Errorf("invalid tool identifier %q: looks like a CLI flag", s)
	}

	repo, version, _ := strings.Cut(s, ":")
	if repo == "" {
		return ToolID{}, fmt.Errorf("invalid tool identifier %q: missing repository", s)
	}

	parts := strings.Split(repo, "/")
	var id ToolID
	switch len(parts) {
	case 1:
		id = ToolID{Name: parts[0], Version: version}
	case 2:
		if parts[0] == "" || parts[1] == "" {
			return ToolID{}, fmt.Errorf("invalid repository format %q", repo)
		}
		id = ToolID{Owner: parts[0], Name: parts[1], Version: version}
	default:
		return ToolID{}, fmt.Errorf("invalid repository format %q", repo)
	}
	return id, nil
}

// FullRepo returns "owner/name", or just the name for short-name identifiers.
func (t ToolID) FullRepo() string {
	if t.Owner == "" {
		return t.Name
	}
	return t.Owner + "/" + t.Name
}

// IsPinned reports whether an explicit version was requested.
func (t ToolID) IsPinned() bool {
	return t.Version != ""
}

// APIVersion returns the version selector to send to the release provider:
// "latest" for unpinned identifiers, otherwise the tag with a "v" prefix
// added when the user wrote a bare numeric version like "1.2.3".
func (t ToolID) APIVersion() string {
	if t.Version == "" {
		return "latest"
	}
	v := t.Version
	if len(v) > 0 && unicode.IsDigit(rune(v[0])) {
		return "v" + v
	}
	return v
}

func (t ToolID) String() string {
	if t.Version == "" {
		return t.FullRepo()
	}
	return t.FullRepo() + ":" + t.Version
}

// Key is a registry query derived from a ToolID. A bare key (empty Version)
// means "the most recently used install for this repo"; a pinned key names
// one concrete version. Keeping the distinction in a type avoids string
// parsing ambiguity at the registry boundary.
type Key struct {
	Repo    string
	Version string
}

// Key returns the registry query for this identifier.
func (t ToolID) Key() Key {
	return Key{Repo: t.FullRepo(), Version: t.Version}
}

// IsPinned reports whether the key names a concrete version.
func (k Key) IsPinned() bool {
	return k.Version != ""
}

// Storage returns the storage-key string for a pinned key. Records are always
// stored under a concrete version, so calling this on a bare key is a
// programming error surfaced as an empty-version key string.
func (k Key) Storage() string {
	return k.Repo + ":" + k.Version
}

// NormalizeVersion strips the conventional "v" tag prefix so pinned lookups
// match regardless of whether the user (or the release tag) carries it.
func NormalizeVersion(v string) string {
	return strings.TrimPrefix(v, "v")
}
