package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var unsafeNameChars = regexp.MustCompile(`[<>:"/\\|?*]`)

// SanitizeName replaces filesystem-unsafe characters in a series or chapter
// label with underscores so the label can be used as a directory name.
func SanitizeName(name string) string {
	return strings.TrimSpace(unsafeNameChars.ReplaceAllString(name, "_"))
}

// PageFileName returns the zero-padded output filename for a 1-based page
// index, e.g. 7 -> "page_007.jpg". All assets are normalized to JPEG on
// write, so the extension is fixed.
func PageFileName(index int) string {
	return fmt.Sprintf("page_%03d.jpg", index)
}

// ExpandPath expands a leading ~/ to the user's home directory, or returns
// the path unchanged.
func ExpandPath(path string) (string, error) {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(homeDir, path[2:]), nil
	}
	return path, nil
}
