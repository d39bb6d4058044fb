// Command hiprofdump renders a raw hiprof record stream (a file of
// back-to-back 64-byte records, or stdin) as a human-readable report. It is
// a consumer-side tool: it only ever reads bytes the profiler already wrote,
// and never touches the running engine.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"gitlab.com/variadico/lctime"

	"github.com/scopeline/hiprof"
)

func fail(args ...interface{}) {
	fmt.Fprintln(os.Stderr, args...)
	os.Exit(1)
}

func main() {
	configPath := flag.String("config", "", "optional YAML config file (pool_size_hint, drain_wait, output)")
	groundFlag := flag.String("ground", "", "RFC3339 timestamp the recording process used as ground time (default: now)")
	flag.Parse()

	var cfg Config
	if *configPath != "" {
		var err error
		cfg, err = loadConfig(*configPath)
		if err != nil {
			fail(err)
		}
	}

	ground := time.Now()
	if *groundFlag != "" {
		t, err := time.Parse(time.RFC3339, *groundFlag)
		if err != nil {
			fail(fmt.Errorf("hiprofdump: parsing -ground: %w", err))
		}
		ground = t
	}

	in := os.Stdin
	if args := flag.Args(); len(args) > 0 {
		f, err := os.Open(args[0])
		if err != nil {
			fail(err)
		}
		defer f.Close()
		in = f
	}

	out := os.Stdout
	if cfg.Output != "" && cfg.Output != "-" {
		f, err := os.Create(cfg.Output)
		if err != nil {
			fail(err)
		}
		defer f.Close()
		out = f
	}

	if cfg.PoolSizeHint > 0 {
		fmt.Fprintf(out, "# recorded with pool_size_hint=%d drain_wait=%s\n", cfg.PoolSizeHint, cfg.DrainWait)
	}

	if err := dump(in, out, ground); err != nil {
		fail(err)
	}
}

func dump(r io.Reader, w io.Writer, ground time.Time) error {
	br := bufio.NewReader(r)
	depth := map[int32]int{}
	sawEnd := false
	count := 0

	for {
		var raw [64]byte
		_, err := io.ReadFull(br, raw[:])
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("hiprofdump: reading record %d: %w", count, err)
		}
		count++

		rec := hiprof.DecodeRecord(raw)
		if rec.ID == hiprof.IDEndOfStream {
			sawEnd = true
			fmt.Fprintln(w, "--- end of stream ---")
			continue
		}
		printRecord(w, rec, depth, ground)
	}

	fmt.Fprintf(w, "%d records, end-of-stream observed: %v\n", count, sawEnd)
	return nil
}

func printRecord(w io.Writer, rec hiprof.Record, depth map[int32]int, ground time.Time) {
	d := 0
	if rec.ID >= hiprof.FirstScopeID {
		if rec.ParentID != 0 {
			d = depth[rec.ParentID] + 1
		}
		depth[rec.ID] = d
	}

	name := trimName(rec.Name)
	wall := ground.Add(time.Duration(rec.Start))
	ts := lctime.Strftime("%Y-%m-%d %H:%M:%S", wall)
	switch {
	case rec.ID == hiprof.IDSysInfo:
		fmt.Fprintf(w, "[sysinfo] ticks/sec=%d %s\n", rec.Start, name)
	case rec.ID == hiprof.IDEndFrame:
		fmt.Fprintf(w, "[frame %d] thread=%d\n", rec.End, rec.Thread)
	case rec.ID >= hiprof.IDLog && rec.ID <= hiprof.IDSignal:
		fmt.Fprintf(w, "[msg id=%d seq=%d] thread=%d %q\n", rec.ID, rec.End, rec.Thread, name)
	default:
		indent := ""
		for i := 0; i < d; i++ {
			indent += "  "
		}
		dur := time.Duration(rec.End - rec.Start)
		fmt.Fprintf(w, "%s%s id=%d thread=%d cpu=%d start=%s dur=%s\n", indent, name, rec.ID, rec.Thread, rec.Processor, ts, dur)
	}
}

func trimName(b [26]byte) string {
	n := 0
	for n < len(b) && b[n] != 0 {
		n++
	}
	return string(b[:n])
}
