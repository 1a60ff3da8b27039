// Package chromepath locates a Chrome or Chromium executable for the
// engines that launch one themselves.
package chromepath

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// EnvChromePath names the environment variable consulted by Resolve.
const EnvChromePath = "CHROME_PATH"

// Resolve returns the Chrome executable path in the following order:
// 1. explicit, if non-empty
// 2. the CHROME_PATH environment variable
// 3. system defaults (Chromium before Chrome per platform)
//
// It returns "" when nothing is found.
func Resolve(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if envPath := os.Getenv(EnvChromePath); envPath != "" {
		return envPath
	}
	return findSystem()
}

// candidates lists the per-platform locations searched by findSystem.
func candidates() []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{
			"/Applications/Chromium.app/Contents/MacOS/Chromium",
			"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
			"/Applications/Google Chrome Canary.app/Contents/MacOS/Google Chrome Canary",
		}
	case "linux":
		return []string{
			"chromium",
			"chromium-browser",
			"google-chrome-stable",
			"google-chrome",
			"headless_shell",
			"/snap/bin/chromium",
			"/usr/lib/chromium/chromium",
		}
	case "windows":
		var list []string
		for _, root := range []string{os.Getenv("PROGRAMFILES"), os.Getenv("PROGRAMFILES(X86)"), os.Getenv("LOCALAPPDATA")} {
			if root == "" {
				continue
			}
			list = append(list,
				filepath.Join(root, "Chromium", "Application", "chrome.exe"),
				filepath.Join(root, "Google", "Chrome", "Application", "chrome.exe"),
			)
		}
		return list
	}
	return nil
}

func findSystem() string {
	for _, candidate := range candidates() {
		if path := resolveExecutable(candidate); path != "" {
			return path
		}
	}
	return ""
}

// resolveExecutable returns nameOrPath if it is an existing absolute path,
// or the PATH lookup result for a bare command name.
func resolveExecutable(nameOrPath string) string {
	if filepath.IsAbs(nameOrPath) {
		if info, err := os.Stat(nameOrPath); err == nil && !info.IsDir() {
			return nameOrPath
		}
		return ""
	}
	if path, err := exec.LookPath(nameOrPath); err == nil {
		return path
	}
	return ""
}
