package main

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

func stateCmd(args []string) {
	fs := flag.NewFlagSet("state", flag.ExitOnError)
	baseURL := fs.String("url", "http://127.0.0.1:8090", "client status base url")
	_ = fs.Parse(args)
	getAndPrint(*baseURL, "/api/state")
}

func fogCmd(args []string) {
	fs := flag.NewFlagSet("fog", flag.ExitOnError)
	baseURL := fs.String("url", "http://127.0.0.1:8090", "client status base url")
	_ = fs.Parse(args)
	getAndPrint(*baseURL, "/api/fog")
}

func getAndPrint(baseURL, path string) {
	u := strings.TrimRight(strings.TrimSpace(baseURL), "/") + path
	cl := &http.Client{Timeout: 5 * time.Second}
	resp, err := cl.Get(u)
	if err != nil {
		fmt.Fprintln(os.Stderr, "request:", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	fmt.Println(string(b))
	if resp.StatusCode/100 != 2 {
		os.Exit(1)
	}
}
