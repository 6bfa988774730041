package logging

import (
	"io"
	"log"
	"os"
	"strings"
	"sync"
)

const maxLogSize = 4 * 1024 * 1024 // 4MB

// RotatingWriter appends to a single log file and swaps it for a .1 backup
// once it grows past maxSize. Long daemon runs stay bounded on disk.
type RotatingWriter struct {
	mu      sync.Mutex
	file    *os.File
	path    string
	size    int64
	maxSize int64
	minSev  int
}

var severities = map[string]int{
	"debug": 0,
	"info":  1,
	"warn":  2,
	"error": 3,
}

// Setup routes the standard logger to stdout plus a rotating file. Lines
// tagged below minLevel (via a leading "[level]" marker) are kept on stdout
// but skipped in the file.
func Setup(logPath, minLevel string) (*RotatingWriter, error) {
	if info, err := os.Stat(logPath); err == nil && info.Size() > maxLogSize {
		os.Truncate(logPath, 0)
	}

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}

	size := int64(0)
	if info, err := f.Stat(); err == nil {
		size = info.Size()
	}

	minSev, ok := severities[strings.ToLower(minLevel)]
	if !ok {
		minSev = severities["info"]
	}

	rw := &RotatingWriter{
		file:    f,
		path:    logPath,
		size:    size,
		maxSize: maxLogSize,
		minSev:  minSev,
	}

	log.SetFlags(log.LstdFlags | log.Lmsgprefix)
	log.SetOutput(io.MultiWriter(os.Stdout, rw))

	return rw, nil
}

func (w *RotatingWriter) Write(p []byte) (n int, err error) {
	if sev, tagged := lineSeverity(p); tagged && sev < w.minSev {
		return len(p), nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	n, err = w.file.Write(p)
	w.size += int64(n)

	if w.size > w.maxSize {
		w.rotate()
	}

	return n, err
}

// lineSeverity finds a "[level]" marker after the timestamp prefix. Untagged
// lines are always written.
func lineSeverity(p []byte) (int, bool) {
	s := string(p)
	start := strings.IndexByte(s, '[')
	if start < 0 {
		return 0, false
	}
	end := strings.IndexByte(s[start:], ']')
	if end < 0 {
		return 0, false
	}
	sev, ok := severities[strings.ToLower(s[start+1:start+end])]
	return sev, ok
}

func (w *RotatingWriter) rotate() {
	w.file.Close()

	os.Rename(w.path, w.path+".1")

	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return
	}

	w.file = f
	w.size = 0
}

func (w *RotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}
