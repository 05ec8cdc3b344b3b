// Package diagnostics writes best-effort debugging artifacts for operators.
// Nothing in the pipeline reads them back, and every write failure is
// logged and swallowed.
package diagnostics

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// LastFetchFile is the name of the markup copy refreshed on every run.
const LastFetchFile = "last_fetch.html"

// Writer stores artifacts under Dir. A zero Writer (empty Dir) is a no-op.
type Writer struct {
	Dir string

	now func() time.Time
}

// NewWriter returns a Writer rooted at dir.
func NewWriter(dir string) *Writer {
	return &Writer{Dir: dir, now: time.Now}
}

// Enabled reports whether artifacts will be written.
func (w *Writer) Enabled() bool { return w != nil && w.Dir != "" }

// LastFetch overwrites the last-fetched markup file and returns its path.
func (w *Writer) LastFetch(html string) string {
	if !w.Enabled() {
		return ""
	}
	return w.write(LastFetchFile, []byte(html))
}

// Snapshot writes a markup snapshot and, when png is non-empty, a
// screenshot. Files are prefixed with a timestamp and label. Paths of the
// files actually written are returned; a failed write yields "".
func (w *Writer) Snapshot(label, html string, png []byte) (htmlPath, pngPath string) {
	if !w.Enabled() {
		return "", ""
	}
	now := time.Now
	if w.now != nil {
		now = w.now
	}
	base := now().UTC().Format("20060102T150405") + "_" + label
	htmlPath = w.write(base+".html", []byte(html))
	if len(png) > 0 {
		pngPath = w.write(base+".png", png)
	}
	return htmlPath, pngPath
}

func (w *Writer) write(name string, data []byte) string {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		slog.Warn("diagnostics: create dir failed", "dir", w.Dir, "error", err)
		return ""
	}
	path := filepath.Join(w.Dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		slog.Warn("diagnostics: write failed", "path", path, "error", err)
		return ""
	}
	slog.Debug("diagnostics: wrote artifact", "path", path, "bytes", len(data))
	return path
}
