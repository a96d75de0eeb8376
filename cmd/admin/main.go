package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"liquidsands.ai/internal/config"
	"liquidsands.ai/internal/persistence/journal"
	"liquidsands.ai/internal/persistence/snapshot"
	"liquidsands.ai/internal/rpc"
	"liquidsands.ai/internal/transport/tcp"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "stats":
			statsCmd(os.Args[2:])
			return
		case "units":
			unitsCmd(os.Args[2:])
			return
		case "chat":
			chatCmd(os.Args[2:])
			return
		case "journal":
			journalCmd(os.Args[2:])
			return
		case "state":
			stateCmd(os.Args[2:])
			return
		case "fog":
			fogCmd(os.Args[2:])
			return
		case "snapshot":
			snapshotCmd(os.Args[2:])
			return
		case "games":
			gamesCmd(os.Args[2:])
			return
		}
	}
	statsCmd(os.Args[1:])
}

type journalFile struct {
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
	Records  int       `json:"records"`
	Errors   int       `json:"errors"`
}

func journalCmd(args []string) {
	fs := flag.NewFlagSet("journal", flag.ExitOnError)
	dir := fs.String("dir", "./data/journal", "journal directory")
	asJSON := fs.Bool("json", false, "print json")
	_ = fs.Parse(args)

	files, err := journal.Files(*dir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read:", err)
		os.Exit(1)
	}
	out := make([]journalFile, 0, len(files))
	var total uint64
	for _, path := range files {
		st, err := os.Stat(path)
		if err != nil {
			fmt.Fprintln(os.Stderr, "stat:", err)
			os.Exit(1)
		}
		jf := journalFile{Name: st.Name(), Size: st.Size(), Modified: st.ModTime()}
		err = journal.ScanFile(path, func(ex journal.Exchange) error {
			jf.Records++
			if ex.ErrKind != rpc.KindNone {
				jf.Errors++
			}
			return nil
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", st.Name(), err)
		}
		total += uint64(st.Size())
		out = append(out, jf)
	}
	if *asJSON {
		printJSON(out)
		return
	}
	for _, f := range out {
		fmt.Printf("%-40s %9s %7d records %5d errors  %s\n", f.Name, humanize.Bytes(uint64(f.Size)), f.Records, f.Errors, humanize.Time(f.Modified))
	}
	fmt.Printf("%d files, %s\n", len(out), humanize.Bytes(total))
}

func snapshotCmd(args []string) {
	fs := flag.NewFlagSet("snapshot", flag.ExitOnError)
	path := fs.String("path", "", "snapshot .snap.zst path")
	headerOnly := fs.Bool("header", false, "print only the header")
	_ = fs.Parse(args)

	if *path == "" {
		fmt.Fprintln(os.Stderr, "missing -path")
		os.Exit(2)
	}
	if *headerOnly {
		h, err := snapshot.ReadHeader(*path)
		if err != nil {
			fmt.Fprintln(os.Stderr, "read:", err)
			os.Exit(1)
		}
		printJSON(h)
		return
	}
	f, err := snapshot.Read(*path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read:", err)
		os.Exit(1)
	}
	printJSON(f.State)
}

func gamesCmd(args []string) {
	fs := flag.NewFlagSet("games", flag.ExitOnError)
	cfgPath := fs.String("config", "", "path to client.yaml (optional)")
	remove := fs.String("remove", "", "remove this game id instead of listing")
	_ = fs.Parse(args)

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*cfg.Server.Timeout)
	defer cancel()

	c := rpc.New(tcp.NewDialer(cfg.Server.Addr(), cfg.Server.Timeout), rpc.Options{MaxRPS: cfg.Server.MaxRPS})
	if err := c.Logon(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "logon:", err)
		os.Exit(1)
	}
	if *remove != "" {
		if err := c.RemoveGame(ctx, *remove); err != nil {
			fmt.Fprintln(os.Stderr, "remove:", err)
			os.Exit(1)
		}
		fmt.Println("removed", *remove)
		return
	}
	games, err := c.GameList(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "games:", err)
		os.Exit(1)
	}
	maps, err := c.MapList(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "maps:", err)
		os.Exit(1)
	}
	printJSON(map[string][]string{"games": games, "maps": maps})
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
