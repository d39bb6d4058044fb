// Package hiprofio supplies a couple of ready-made hiprof.Writer sinks: a
// buffered file writer and a reconnecting net.Conn writer. Neither is part
// of the core engine; both are plain implementations of the one-method
// Writer interface, callable from the drain goroutine only.
package hiprofio

import (
	"bufio"
	"fmt"
	"os"
	"sync"

	"github.com/scopeline/hiprof"
)

// FileWriter buffers encoded records and writes them to an *os.File. It is
// safe for the drain goroutine to call WriteRecord repeatedly; Close (or
// Flush) must be called once the profiler is finalized to push the last
// partial buffer out.
type FileWriter struct {
	mu  sync.Mutex
	f   *os.File
	buf *bufio.Writer
	err error
}

// CreateFile opens path for writing (truncating any existing file) and
// wraps it in a buffered FileWriter.
func CreateFile(path string) (*FileWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("hiprofio: create %s: %w", path, err)
	}
	return &FileWriter{f: f, buf: bufio.NewWriterSize(f, 64*1024)}, nil
}

// WriteRecord encodes r and appends it to the buffer. A write error is
// latched and silently suppresses all further writes; call Err to check.
// The end-of-stream record (id 0) triggers an immediate flush, so a clean
// Finalize leaves nothing sitting in the bufio buffer.
func (w *FileWriter) WriteRecord(r hiprof.Record) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return
	}
	b := r.Bytes()
	if _, w.err = w.buf.Write(b[:]); w.err != nil {
		return
	}
	if r.ID == hiprof.IDEndOfStream {
		w.err = w.buf.Flush()
	}
}

// Flush pushes any buffered bytes to the underlying file.
func (w *FileWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	return w.buf.Flush()
}

// Err reports the first write error encountered, if any.
func (w *FileWriter) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

// Close flushes and closes the underlying file.
func (w *FileWriter) Close() error {
	if err := w.Flush(); err != nil {
		w.f.Close()
		return err
	}
	return w.f.Close()
}
