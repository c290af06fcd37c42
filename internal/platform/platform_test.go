package platform

import (
	"reflect"
	"strings"
	"testing"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		rawOS, rawArch string
		want           Identity
	}{
		{"linux", "amd64", Identity{OS: "linux", Arch: "amd64"}},
		{"linux", "x86_64", Identity{OS: "linux", Arch: "amd64"}},
		{"Darwin", "aarch64", Identity{OS: "darwin", Arch: "arm64"}},
		{"macos", "arm64", Identity{OS: "darwin", Arch: "arm64"}},
		{"windows", "x64", Identity{OS: "windows", Arch: "amd64"}},
		{"linux", "armv7l", Identity{OS: "linux", Arch: "arm"}},
		// Unknown machine strings pass through verbatim.
		{"linux", "riscv64", Identity{OS: "linux", Arch: "riscv64"}},
		{"linux", "s390x", Identity{OS: "linux", Arch: "s390x"}},
	}

	for _, tt := range tests {
		t.Run(tt.rawOS+"/"+tt.rawArch, func(t *testing.T) {
			if got := Resolve(tt.rawOS, tt.rawArch); got != tt.want {
				t.Fatalf("Resolve(%q, %q) = %+v, want %+v", tt.rawOS, tt.rawArch, got, tt.want)
			}
		})
	}
}

func TestPatternsOrderedLongestFirst(t *testing.T) {
	ids := []Identity{
		{OS: "linux", Arch: "amd64"},
		{OS: "darwin", Arch: "arm64"},
		{OS: "windows", Arch: "amd64"},
		{OS: "linux", Arch: "riscv64"},
	}

	for _, id := range ids {
		t.Run(id.OS+"/"+id.Arch, func(t *testing.T) {
			patterns := id.Patterns()
			if len(patterns) == 0 {
				t.Fatal("Patterns() returned an empty list")
			}
			for i := 1; i < len(patterns); i++ {
				if len(patterns[i]) > len(patterns[i-1]) {
					t.Fatalf("patterns not longest-first: %q after %q", patterns[i], patterns[i-1])
				}
			}
			// Pure function: a second derivation is identical.
			if again := id.Patterns(); !reflect.DeepEqual(patterns, again) {
				t.Fatalf("Patterns() not deterministic: %v vs %v", patterns, again)
			}
		})
	}
}

func TestPatternsContainCombinedForms(t *testing.T) {
	patterns := Identity{OS: "linux", Arch: "amd64"}.Patterns()
	joined := strings.Join(patterns, " ")
	for _, want := range []string{"linux_amd64", "linux-amd64", "linux-x86_64", "linux", "amd64"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("patterns missing %q: %v", want, patterns)
		}
	}
}

func TestFallbackArchAliasesSelf(t *testing.T) {
	id := Identity{OS: "linux", Arch: "riscv64"}
	aliases := id.ArchAliases()
	if len(aliases) != 1 || aliases[0] != "riscv64" {
		t.Fatalf("fallback arch aliases = %v, want [riscv64]", aliases)
	}
}

func TestExecutableSuffix(t *testing.T) {
	if got := ExecutableSuffix("windows"); got != ".exe" {
		t.Fatalf("ExecutableSuffix(windows) = %q, want .exe", got)
	}
	if got := ExecutableSuffix("linux"); got != "" {
		t.Fatalf("ExecutableSuffix(linux) = %q, want empty", got)
	}
}
