package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"liquidsands.ai/internal/persistence/journal"
	"liquidsands.ai/internal/protocol"
	"liquidsands.ai/internal/rpc"
)

func main() {
	var (
		dir     = flag.String("journal", "./data/journal", "journal dir containing exchanges-*.jsonl.zst")
		kind    = flag.String("kind", "", "only replay exchanges of this kind (e.g. endturn)")
		since   = flag.String("since", "", "skip exchanges before this RFC3339 time (optional)")
		verbose = flag.Bool("v", false, "print every exchange")
	)
	flag.Parse()

	var from time.Time
	if *since != "" {
		t, err := time.Parse(time.RFC3339, *since)
		if err != nil {
			fmt.Fprintln(os.Stderr, "bad -since:", err)
			os.Exit(2)
		}
		from = t
	}

	files, err := journal.Files(*dir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "list journal:", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "no journal files found in", *dir)
		os.Exit(1)
	}

	var sum summary
	err = journal.NewReader(*dir).Scan(func(path string, ex journal.Exchange) error {
		if *kind != "" && ex.Kind != *kind {
			return nil
		}
		if !from.IsZero() && ex.Time().Before(from) {
			return nil
		}
		if *verbose {
			fmt.Printf("%s %-14s %5dms %s\n", ex.TS, ex.Kind, ex.DurationMS, oneLine(ex))
		}
		if err := sum.add(ex); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		return nil
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "replay:", err)
		os.Exit(1)
	}
	fmt.Printf("replay ok: checked=%d ok=%d status=%d protocol=%d transport=%d\n",
		sum.checked, sum.byKind[rpc.KindNone], sum.byKind[rpc.KindStatus], sum.byKind[rpc.KindProtocol], sum.byKind[rpc.KindTransport])
}

type summary struct {
	checked int
	byKind  map[string]int
}

// add re-classifies ex's reply and checks it against the recorded outcome.
func (s *summary) add(ex journal.Exchange) error {
	if s.byKind == nil {
		s.byKind = map[string]int{}
	}
	s.checked++
	got, err := reclassify(ex)
	if err != nil {
		return err
	}
	s.byKind[got]++
	return nil
}

func reclassify(ex journal.Exchange) (string, error) {
	if ex.ErrKind == rpc.KindTransport {
		// Nothing was received; there is no reply to check.
		return rpc.KindTransport, nil
	}
	_, cerr := protocol.Classify(ex.Request, ex.Reply)
	got := rpc.Kind(cerr)
	if got != ex.ErrKind {
		return got, fmt.Errorf("%s at %s: recorded %q, reply classifies as %q", ex.Kind, ex.TS, ex.ErrKind, got)
	}
	return got, nil
}

func oneLine(ex journal.Exchange) string {
	out := ex.Reply
	if ex.Err != "" {
		out = "ERR " + ex.Err
	}
	out = strings.ReplaceAll(out, "\n", " ")
	if len(out) > 120 {
		out = out[:117] + "..."
	}
	return out
}
