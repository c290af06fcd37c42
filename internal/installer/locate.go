package installer

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/kodelint/tooler/internal/logger"
	"github.com/kodelint/tooler/internal/platform"
)

// Name-match score tiers for candidate executables. The depth penalty makes
// shallower candidates win ties between equally well named files.
const (
	scoreExactName  = 100
	scoreStemMatch  = 90
	scoreSubstring  = 30
	depthPenaltyPer = 5
)

// locateExecutable walks an extracted tree and returns the best-scoring
// candidate for the tool's entry point, or ok=false when no file scores.
// Callers must treat ok=false as an installation failure, never as an empty
// executable path.
func locateExecutable(root, toolName, targetOS string) (string, bool) {
	toolLower := strings.ToLower(toolName)
	exactName := toolLower + platform.ExecutableSuffix(targetOS)

	best := ""
	bestScore := 0

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Debug("[DEBUG] WalkDir error at %s: %v\n", path, err)
			return nil
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if !isExecutable(info, targetOS) {
			return nil
		}

		name := strings.ToLower(filepath.Base(path))
		stem := strings.TrimSuffix(name, filepath.Ext(name))

		score := 0
		switch {
		case name == exactName:
			score = scoreExactName
		case stem == toolLower:
			score = scoreStemMatch
		case strings.Contains(name, toolLower):
			score = scoreSubstring
		default:
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		depth := len(strings.Split(rel, string(os.PathSeparator))) - 1
		score -= depth * depthPenaltyPer

		if score > bestScore {
			logger.Debug("[DEBUG] Executable candidate %s scored %d\n", rel, score)
			bestScore = score
			best = path
		}
		return nil
	})
	if err != nil || bestScore <= 0 {
		return "", false
	}
	return best, true
}

// isExecutable reports whether a file is OS-appropriately executable: any
// execute permission bit on Unix-likes, a canonical executable suffix on
// Windows.
func isExecutable(info fs.FileInfo, targetOS string) bool {
	if !info.Mode().IsRegular() {
		return false
	}
	if targetOS == "windows" {
		switch strings.ToLower(filepath.Ext(info.Name())) {
		case ".exe", ".cmd", ".bat":
			return true
		}
		return false
	}
	return info.Mode().Perm()&0o111 != 0
}
