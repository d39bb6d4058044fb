package hiprofio

import (
	"net"
	"testing"
	"time"

	"github.com/scopeline/hiprof"
)

func TestNetWriterWritesToListener(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		c, err := ln.Accept()
		if err != nil {
			return
		}
		accepted <- c
	}()

	w, err := DialNet("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("DialNet: %v", err)
	}
	defer w.Close()

	var server net.Conn
	select {
	case server = <-accepted:
	case <-time.After(2 * time.Second):
		t.Fatal("server never accepted")
	}
	defer server.Close()

	w.WriteRecord(hiprof.Record{ID: 128, Start: 1, End: 2})
	if err := w.Err(); err != nil {
		t.Fatalf("unexpected write error: %v", err)
	}

	buf := make([]byte, 64)
	server.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, err := readFull(server, buf); err != nil {
		t.Fatalf("reading from server side: %v", err)
	}
	var arr [64]byte
	copy(arr[:], buf)
	r := hiprof.DecodeRecord(arr)
	if r.ID != 128 || r.Start != 1 || r.End != 2 {
		t.Errorf("record mismatch: %+v", r)
	}
}

func readFull(c net.Conn, buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		m, err := c.Read(buf[n:])
		n += m
		if err != nil {
			return n, err
		}
	}
	return n, nil
}
