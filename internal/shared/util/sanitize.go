package util

import (
	"errors"
	"path"
	"strings"
)

// SanitizeFileName removes path separators and rejects traversal patterns.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", errors.New("invalid file name")
	}
	s := strings.TrimSpace(name)
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	if s == "" {
		return "", errors.New("invalid file name")
	}
	return s, nil
}

// CleanNamespace normalizes a slash separated key prefix. An empty namespace is allowed.
func CleanNamespace(ns string) (string, error) {
	trimmed := strings.Trim(strings.TrimSpace(ns), "/")
	if trimmed == "" {
		return "", nil
	}
	if strings.Contains(trimmed, "..") || strings.Contains(trimmed, "\\") {
		return "", errors.New("invalid namespace")
	}
	return path.Clean(trimmed), nil
}
