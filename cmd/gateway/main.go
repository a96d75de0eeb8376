package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"liquidsands.ai/internal/config"
	"liquidsands.ai/internal/transport/tcp"
	"liquidsands.ai/internal/transport/ws"
)

func main() {
	var (
		cfgPath  = flag.String("config", "", "path to client.yaml (optional)")
		addr     = flag.String("addr", "", "http listen address (overrides gateway.addr)")
		upstream = flag.String("upstream", "", "game server host:port (overrides server.host/port)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[gateway] ", log.LstdFlags|log.Lmicroseconds)

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		logger.Fatalf("config: %v", err)
	}
	if *addr != "" {
		cfg.Gateway.Addr = *addr
	}
	target := cfg.Server.Addr()
	if *upstream != "" {
		target = *upstream
	}

	gw := ws.NewGateway(tcp.NewDialer(target, cfg.Server.Timeout), logger)
	gw.AllowOrigins(cfg.Gateway.AllowedOrigins)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")
		fmt.Fprintf(rw, "# HELP liquidsands_gateway_sessions Open websocket sessions.\n")
		fmt.Fprintf(rw, "# TYPE liquidsands_gateway_sessions gauge\n")
		fmt.Fprintf(rw, "liquidsands_gateway_sessions{upstream=%q} %d\n", target, gw.Sessions())
		fmt.Fprintf(rw, "# HELP liquidsands_gateway_requests_total Requests forwarded upstream.\n")
		fmt.Fprintf(rw, "# TYPE liquidsands_gateway_requests_total counter\n")
		fmt.Fprintf(rw, "liquidsands_gateway_requests_total{upstream=%q} %d\n", target, gw.Served())
	})
	mux.HandleFunc("/ws", gw.Handler())

	srv := &http.Server{
		Addr:              cfg.Gateway.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s, forwarding to %s", cfg.Gateway.Addr, target)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}
