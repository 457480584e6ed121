package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
)

// CleanString trims s and lowers it when lower is set.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		s = strings.ToLower(s)
	}
	return s
}

// Getwd returns the nearest ancestor of the working directory holding go.mod, so tests run from a
// package directory still find config files. Without one the working directory itself is used.
func Getwd() string {
	wd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}
	for dir := wd; ; {
		if fi, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil && fi.Mode().IsRegular() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return wd
		}
		dir = parent
	}
}
