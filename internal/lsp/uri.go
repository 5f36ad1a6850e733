package lsp

import (
	"net/url"
	"path/filepath"
	"runtime"
)

// uriToPath converts a file URI, or a bare path, to an absolute clean path.
// Other schemes (untitled:, git:) yield "".
func uriToPath(uri string) string {
	if uri == "" {
		return ""
	}
	u, err := url.Parse(uri)
	switch {
	case err != nil:
		return ""
	case u.Scheme == "":
		return absPath(uri)
	case u.Scheme != "file":
		return ""
	}
	p := u.Path
	// file:///C:/dir parses to /C:/dir
	if runtime.GOOS == "windows" && len(p) >= 3 && p[0] == '/' && p[2] == ':' {
		p = p[1:]
	}
	return absPath(filepath.FromSlash(p))
}

func pathToURI(path string) string {
	if path == "" {
		return ""
	}
	p := filepath.ToSlash(absPath(path))
	if len(p) > 0 && p[0] != '/' {
		p = "/" + p
	}
	return (&url.URL{Scheme: "file", Path: p}).String()
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}

// canonicalURI maps every spelling of a file URI to one key. Non-file URIs
// yield "".
func canonicalURI(uri string) string {
	return pathToURI(uriToPath(uri))
}
