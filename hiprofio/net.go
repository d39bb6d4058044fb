package hiprofio

import (
	"errors"
	"net"
	"sync"

	"github.com/scopeline/hiprof"
)

var errWriteFailed = errors.New("hiprofio: write failed after redial")

// NetWriter writes records to a net.Conn, redialing once on a write error
// before giving up on that record. It is meant for a long-lived collector
// process listening on the other end; a single dropped record on a broken
// connection is acceptable, matching the engine's own drop-under-pressure
// behavior rather than blocking the drain goroutine to retry indefinitely.
type NetWriter struct {
	network, address string

	mu   sync.Mutex
	conn net.Conn
	err  error
}

// DialNet opens a NetWriter against address over network (e.g. "tcp").
func DialNet(network, address string) (*NetWriter, error) {
	conn, err := net.Dial(network, address)
	if err != nil {
		return nil, err
	}
	return &NetWriter{network: network, address: address, conn: conn}, nil
}

// WriteRecord encodes r and writes it to the connection, redialing once on
// failure. A second failure in a row latches into Err and is not retried
// further.
func (w *NetWriter) WriteRecord(r hiprof.Record) {
	w.mu.Lock()
	defer w.mu.Unlock()

	b := r.Bytes()
	if w.writeLocked(b[:]) {
		return
	}
	conn, err := net.Dial(w.network, w.address)
	if err != nil {
		w.err = err
		return
	}
	if w.conn != nil {
		w.conn.Close()
	}
	w.conn = conn
	if !w.writeLocked(b[:]) {
		w.err = errWriteFailed
	} else {
		w.err = nil
	}
}

func (w *NetWriter) writeLocked(b []byte) bool {
	if w.conn == nil {
		return false
	}
	_, err := w.conn.Write(b)
	return err == nil
}

// Err reports the most recent write failure, if any.
func (w *NetWriter) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

// Close closes the underlying connection.
func (w *NetWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.conn == nil {
		return nil
	}
	return w.conn.Close()
}
