package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/inkboard/inkboard/client-go/internal/asset"
	"github.com/inkboard/inkboard/client-go/internal/auth"
	"github.com/inkboard/inkboard/client-go/internal/collab"
	"github.com/inkboard/inkboard/client-go/internal/config"
)

func main() {
	discover := flag.Duration("discover", 0, "list relays on the local network for the given duration and exit")
	flag.Parse()
	if *discover > 0 {
		relays, err := collab.Discover(context.Background(), *discover)
		if err != nil {
			slog.Error("discover relays", "error", err)
			os.Exit(1)
		}
		printRelays(os.Stdout, relays)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Level()})))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	authService := auth.NewService(cfg.JWTSecret)

	hub := collab.NewHub()
	go hub.Run(ctx)

	assetHandler := asset.NewHandler(cfg.AssetDir)

	r := newRouter(cfg, hub, authService, assetHandler)

	if cfg.MDNSEnabled {
		server, err := collab.Advertise(cfg.MDNSName, cfg.Port, "path=/ws/board/")
		if err != nil {
			slog.Warn("mdns advertisement disabled", "error", err)
		} else {
			defer server.Shutdown()
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func newRouter(cfg *config.Config, hub *collab.Hub, authSvc *auth.Service, assets *asset.Handler) *mux.Router {
	r := mux.NewRouter()

	r.Use(recovery)
	r.Use(logger)
	r.Use(cors(cfg.Origins()))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Engine defaults for clients.
	r.HandleFunc("/config", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(cfg.Engine)
	}).Methods("GET")

	r.HandleFunc("/assets/upload", assets.Upload).Methods("POST", "OPTIONS")
	r.PathPrefix("/assets/").Handler(assets.Serve()).Methods("GET")

	r.HandleFunc("/boards/{boardId}", func(w http.ResponseWriter, r *http.Request) {
		boardID := mux.Vars(r)["boardId"]
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(collab.RoomDataPayload{
			Layers:       hub.Board(boardID).Snapshot(),
			Participants: hub.Participants(boardID),
		})
	}).Methods("GET")

	r.HandleFunc("/ws/board/{boardId}", func(w http.ResponseWriter, r *http.Request) {
		handleWebSocket(w, r, cfg, hub, authSvc)
	})

	return r
}

func handleWebSocket(w http.ResponseWriter, r *http.Request, cfg *config.Config, hub *collab.Hub, authSvc *auth.Service) {
	boardID := mux.Vars(r)["boardId"]

	var userID, displayName string
	if token := r.URL.Query().Get("token"); token != "" {
		id, err := authSvc.Verify(token)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		userID, displayName = id.UserID, id.Name
	} else if cfg.IsAnonymousRoom(boardID) {
		userID = "anon-" + uuid.New().String()[:8]
		displayName = "Anonymous"
		if name := strings.TrimSpace(r.URL.Query().Get("name")); name != "" {
			displayName = name
		}
	} else {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: originPatterns(cfg.Origins()),
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	clientID := uuid.New().String()
	client := collab.NewClient(hub, conn, userID, displayName, boardID, clientID)

	hub.Register(client)

	ctx := r.Context()
	go client.WritePump(ctx)
	client.ReadPump(ctx)
}

func printRelays(w io.Writer, relays []collab.Relay) {
	if len(relays) == 0 {
		fmt.Fprintln(w, "no relays found")
		return
	}
	for _, r := range relays {
		fmt.Fprintf(w, "%s\t%s\t%s\n", r.Addr, r.Name, strings.Join(r.Info, " "))
	}
}

// originPatterns strips schemes; websocket origin patterns match hosts.
func originPatterns(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		o = strings.TrimPrefix(o, "http://")
		o = strings.TrimPrefix(o, "https://")
		out = append(out, o)
	}
	return out
}
