package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"liquidsands.ai/internal/persistence/statsdb"
)

func openDB(path string) *statsdb.DB {
	if strings.TrimSpace(path) == "" {
		fmt.Fprintln(os.Stderr, "missing -db")
		os.Exit(2)
	}
	if _, err := os.Stat(path); err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	db, err := statsdb.Open(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	return db
}

func statsCmd(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	dbPath := fs.String("db", "./data/stats.db", "stats sqlite db")
	asJSON := fs.Bool("json", false, "print json")
	_ = fs.Parse(args)

	db := openDB(*dbPath)
	defer db.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	players, err := db.PlayerStats(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "query:", err)
		os.Exit(1)
	}
	if *asJSON {
		printJSON(players)
		return
	}
	fmt.Printf("%-16s %5s %7s %7s %6s %6s %5s %6s %5s  %s\n", "player", "wins", "attacks", "damage", "avg", "trades", "lost", "chats", "turns", "last seen")
	for _, p := range players {
		fmt.Printf("%-16s %5d %7d %7s %6.2f %6d %5d %6d %5d  %s\n",
			p.Player, p.Wins, p.Attacks, humanize.Comma(int64(p.Damage)), p.AvgDamage(), p.Trades, p.Deaths, p.Chats, p.Turns, humanize.Time(p.UpdatedAt))
	}
}

func unitsCmd(args []string) {
	fs := flag.NewFlagSet("units", flag.ExitOnError)
	dbPath := fs.String("db", "./data/stats.db", "stats sqlite db")
	player := fs.String("player", "", "player filter (optional)")
	_ = fs.Parse(args)

	db := openDB(*dbPath)
	defer db.Close()
	units, err := db.UnitStats(context.Background(), *player)
	if err != nil {
		fmt.Fprintln(os.Stderr, "query:", err)
		os.Exit(1)
	}
	printJSON(units)
}

func chatCmd(args []string) {
	fs := flag.NewFlagSet("chat", flag.ExitOnError)
	dbPath := fs.String("db", "./data/stats.db", "stats sqlite db")
	gameID := fs.String("game", "", "game id filter (optional)")
	limit := fs.Int("limit", 50, "result limit")
	_ = fs.Parse(args)

	db := openDB(*dbPath)
	defer db.Close()
	lines, err := db.ChatHistory(context.Background(), *gameID, *limit)
	if err != nil {
		fmt.Fprintln(os.Stderr, "query:", err)
		os.Exit(1)
	}
	for _, l := range lines {
		fmt.Printf("[%s] game %s %s> %s\n", humanize.Time(l.At), l.GameID, l.Player, l.Text)
	}
}
