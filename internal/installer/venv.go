package installer

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/kodelint/tooler/internal/logger"
)

// provisionWheel installs an interpreter-distributed package into an isolated
// environment inside the install directory and writes a launcher script that
// delegates to the installed entry point. The launcher path is the tool's
// executable path.
func provisionWheel(installDir, wheelPath, toolName, targetOS string) (string, error) {
	venvDir := filepath.Join(installDir, ".venv")

	python := "python3"
	if targetOS == "windows" {
		python = "python"
	}

	logger.Info("[INFO] Provisioning interpreter environment in %s\n", venvDir)
	if out, err := exec.Command(python, "-m", "venv", venvDir).CombinedOutput(); err != nil {
		return "", fmt.Errorf("interpreter environment creation failed: %w\nOutput: %s", err, out)
	}

	pip := filepath.Join(venvDir, "bin", "pip")
	if targetOS == "windows" {
		pip = filepath.Join(venvDir, "Scripts", "pip.exe")
	}
	if out, err := exec.Command(pip, "install", wheelPath).CombinedOutput(); err != nil {
		return "", fmt.Errorf("package install into interpreter environment failed: %w\nOutput: %s", err, out)
	}

	return writeLauncher(installDir, venvDir, toolName, targetOS)
}

// writeLauncher emits a small script beside the environment that runs the
// environment's entry point. Console scripts installed by pip carry the
// environment's interpreter in their shebang, so invoking them directly is
// equivalent to activating the environment first.
func writeLauncher(installDir, venvDir, toolName, targetOS string) (string, error) {
	if targetOS == "windows" {
		launcher := filepath.Join(installDir, toolName+".bat")
		entry := filepath.Join(venvDir, "Scripts", toolName+".exe")
		content := fmt.Sprintf("@echo off\r\n\"%s\" %%*\r\n", entry)
		if err := os.WriteFile(launcher, []byte(content), 0o755); err != nil {
			return "", fmt.Errorf("could not write launcher script: %w", err)
		}
		return launcher, nil
	}

	launcher := filepath.Join(installDir, toolName)
	entry := filepath.Join(venvDir, "bin", toolName)
	content := fmt.Sprintf("#!/bin/sh\nexec \"%s\" \"$@\"\n", entry)
	if err := os.WriteFile(launcher, []byte(content), 0o755); err != nil {
		return "", fmt.Errorf("could not write launcher script: %w", err)
	}
	return launcher, nil
}
