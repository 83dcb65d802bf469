package fsutil

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// maxBaseNameLen is in bytes; names are cut on a rune boundary.
const maxBaseNameLen = 120

var (
	ErrInvalidPath = errors.New("некорректный путь")
	ErrPathEscape  = errors.New("путь выходит за пределы корня")
)

// CleanRelPath takes a user path like "", ".", "/a/b", "a//b", and returns a
// safe, slash-based, no-leading-slash relative path ("" means root).
func CleanRelPath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" || p == "." || p == "/" {
		return ""
	}
	p = strings.ReplaceAll(p, "\\", "/")
	p = path.Clean("/" + p)
	p = strings.TrimPrefix(p, "/")
	if p == "." {
		return ""
	}
	return p
}

// JoinWithinRoot returns an absolute filesystem path under root for a given rel
// path. It rejects escapes (..).
func JoinWithinRoot(rootAbs string, rel string) (string, error) {
	rel = CleanRelPath(rel)
	if rel == "" {
		return filepath.Clean(rootAbs), nil
	}
	if strings.Contains(rel, "\x00") {
		return "", ErrInvalidPath
	}
	abs := filepath.Join(rootAbs, filepath.FromSlash(rel))
	absClean := filepath.Clean(abs)
	if !within(filepath.Clean(rootAbs), absClean) {
		return "", ErrPathEscape
	}
	return absClean, nil
}

// ResolveWithinRoot is JoinWithinRoot that also follows symlinks: the real
// location of the result must stay under the real location of root. Paths
// that do not exist yet are returned as joined.
func ResolveWithinRoot(rootAbs string, rel string) (string, error) {
	p, err := JoinWithinRoot(rootAbs, rel)
	if err != nil {
		return "", err
	}

	realRoot, err := filepath.EvalSymlinks(rootAbs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return p, nil
		}
		return "", fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}
	resolved, err := filepath.EvalSymlinks(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return p, nil
		}
		return "", fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}

	if !within(realRoot, resolved) {
		return "", ErrPathEscape
	}
	return p, nil
}

func within(root, p string) bool {
	if p == root {
		return true
	}
	if !strings.HasSuffix(root, string(filepath.Separator)) {
		root += string(filepath.Separator)
	}
	return strings.HasPrefix(p, root)
}

// EntryPrefix is the archive prefix of dir once root is stripped from its
// front: "/root/dir" under "/root" becomes "dir". A dir outside root keeps its
// full cleaned path, minus the leading separator.
func EntryPrefix(dir, root string) string {
	dir = filepath.ToSlash(filepath.Clean(dir))
	root = filepath.ToSlash(filepath.Clean(root))
	if root != "/" && root != "." {
		dir = strings.TrimPrefix(dir, root)
	}
	return strings.Trim(dir, "/")
}

// EntryName joins an archive prefix with a slash-based relative path.
func EntryName(prefix, rel string) string {
	rel = strings.TrimPrefix(filepath.ToSlash(rel), "/")
	if prefix == "" {
		return rel
	}
	return prefix + "/" + rel
}

// SanitizeBaseName turns a user supplied archive name into a single path
// component without the .zip suffix.
func SanitizeBaseName(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, ".zip")
	s = strings.ReplaceAll(s, "\x00", "")
	s = strings.ReplaceAll(s, "/", "-")
	s = strings.ReplaceAll(s, "\\", "-")
	s = strings.Trim(s, ". ")
	if s == "" {
		return "archive"
	}
	if len(s) > maxBaseNameLen {
		cut := maxBaseNameLen
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut]
	}
	return s
}
