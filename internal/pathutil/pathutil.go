package pathutil

import (
	"os"
	"path/filepath"
	"strings"
)

const defaultStateDir = "~/.whatsapp-me"

// ExpandHomePath resolves a leading ~ or ~/ against the current user's home
// directory. Paths it cannot expand are returned unchanged.
func ExpandHomePath(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return path
	}
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil || strings.TrimSpace(home) == "" {
		return path
	}
	if path == "~" {
		return home
	}
	return filepath.Join(home, path[2:])
}

func ResolveStateDir(configured string) string {
	dir := strings.TrimSpace(configured)
	if dir == "" {
		dir = defaultStateDir
	}
	return filepath.Clean(ExpandHomePath(dir))
}

func ResolveStateChildDir(configuredState, configuredChild, fallbackChild string) string {
	child := strings.TrimSpace(configuredChild)
	if child == "" {
		child = fallbackChild
	}
	if filepath.IsAbs(child) {
		return filepath.Clean(child)
	}
	return filepath.Join(ResolveStateDir(configuredState), child)
}

func ResolveStateFile(configuredState, filename string) string {
	return filepath.Join(ResolveStateDir(configuredState), filename)
}
