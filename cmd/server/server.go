package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/robfig/cron/v3"

	"lotofacil-lab/internal/app"
	"lotofacil-lab/internal/backtest"
	"lotofacil-lab/internal/config"
	"lotofacil-lab/internal/domain"
	"lotofacil-lab/internal/observability"
)

const (
	writeTimeout    = 10 * time.Second
	shutdownTimeout = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

// Server runs scheduled draw sync and serves health, metrics, status and
// backtest progress streams.
type Server struct {
	cfg    config.Config
	stores *app.Stores
	logger *log.Logger
	cron   *cron.Cron
	syncID cron.EntryID

	// jobCtx is cancelled on shutdown so scheduled syncs stop early.
	jobCtx     context.Context
	cancelJobs context.CancelFunc

	// State
	mu              sync.Mutex
	started         time.Time
	lastSync        time.Time
	lastSyncError   string
	syncRuns        int
	syncRunning     bool
	lastBacktest    time.Time
	backtestRunning bool
}

// NewServer creates a server and registers the sync job.
func NewServer(cfg config.Config, stores *app.Stores, logger *log.Logger) (*Server, error) {
	schedule, err := config.ParseSchedule(cfg.SyncSchedule)
	if err != nil {
		return nil, fmt.Errorf("parse sync schedule %q: %w", cfg.SyncSchedule, err)
	}

	s := &Server{
		cfg:     cfg,
		stores:  stores,
		logger:  logger,
		started: time.Now(),
	}
	s.jobCtx, s.cancelJobs = context.WithCancel(context.Background())
	cronLogger := cron.PrintfLogger(logger)
	s.cron = cron.New(cron.WithLogger(cronLogger), cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)))
	s.syncID = s.cron.Schedule(schedule, cron.FuncJob(s.scheduledSync))
	return s, nil
}

// scheduledSync is the cron job body.
func (s *Server) scheduledSync() {
	s.runSync(s.jobCtx)
}

// Run starts the scheduler and the HTTP server until ctx is cancelled.
func (s *Server) Run(ctx context.Context, syncOnStart bool) error {
	stop := context.AfterFunc(ctx, s.cancelJobs)
	defer stop()

	s.cron.Start()
	s.logger.Printf("Sync scheduled (cron: %s), next at %s", s.cfg.SyncSchedule, s.cron.Entry(s.syncID).Next.Format(time.RFC3339))

	if syncOnStart {
		go s.scheduledSync()
	}

	httpServer := &http.Server{
		Addr:              s.cfg.ServerAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Printf("Starting HTTP server on %s", s.cfg.ServerAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		runErr = ctx.Err()
	case runErr = <-errCh:
	}

	s.cancelJobs()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Printf("HTTP shutdown: %v", err)
	}
	<-s.cron.Stop().Done()
	return runErr
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Prometheus metrics
	mux.Handle("/metrics", observability.Handler())

	// Status endpoint
	mux.HandleFunc("/status", s.handleStatus)

	// Backtest progress stream
	mux.HandleFunc("/ws/backtest", s.handleBacktestStream)

	return mux
}

// runSync fetches new draws and scores pending suggestions.
func (s *Server) runSync(ctx context.Context) {
	s.mu.Lock()
	if s.syncRunning {
		s.mu.Unlock()
		s.logger.Println("Sync already running, skipping...")
		return
	}
	s.syncRunning = true
	s.mu.Unlock()

	err := s.syncOnce(ctx)

	s.mu.Lock()
	s.syncRunning = false
	s.lastSync = time.Now()
	s.syncRuns++
	s.lastSyncError = ""
	if err != nil {
		s.lastSyncError = err.Error()
	}
	s.mu.Unlock()
}

func (s *Server) syncOnce(ctx context.Context) error {
	start := time.Now()
	result, err := app.NewSyncer(s.cfg, s.stores, s.logger).Sync(ctx)
	if err != nil {
		s.logger.Printf("Sync error: %v", err)
		return err
	}
	scored, err := app.NewScorer(s.stores, s.logger).EvaluatePending(ctx)
	if err != nil {
		s.logger.Printf("Scoring error: %v", err)
		return err
	}
	s.logger.Printf("Sync completed in %v: %d new draws, %d suggestions scored",
		time.Since(start), result.Inserted, len(scored))
	return nil
}

// StatusResponse is the JSON response for /status endpoint.
type StatusResponse struct {
	Status          string    `json:"status"`
	Uptime          string    `json:"uptime"`
	LatestDrawID    int64     `json:"latest_draw_id"`
	LastSync        time.Time `json:"last_sync,omitempty"`
	LastSyncError   string    `json:"last_sync_error,omitempty"`
	NextSync        time.Time `json:"next_sync"`
	SyncRuns        int       `json:"sync_runs"`
	SyncRunning     bool      `json:"sync_running"`
	LastBacktest    time.Time `json:"last_backtest,omitempty"`
	BacktestRunning bool      `json:"backtest_running"`
}

// handleStatus returns server status as JSON.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	latest, err := s.stores.Draws.LatestID(r.Context())
	if err != nil {
		http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
		return
	}

	s.mu.Lock()
	resp := StatusResponse{
		Status:          "running",
		Uptime:          time.Since(s.started).Round(time.Second).String(),
		LatestDrawID:    latest,
		LastSync:        s.lastSync,
		LastSyncError:   s.lastSyncError,
		NextSync:        s.cron.Entry(s.syncID).Next,
		SyncRuns:        s.syncRuns,
		SyncRunning:     s.syncRunning,
		LastBacktest:    s.lastBacktest,
		BacktestRunning: s.backtestRunning,
	}
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// StreamMessage is one frame of the /ws/backtest stream.
type StreamMessage struct {
	Type      string           `json:"type"` // iteration, result or error
	Done      int              `json:"done,omitempty"`
	Total     int              `json:"total,omitempty"`
	DrawID    int64            `json:"draw_id,omitempty"`
	Hits      int              `json:"hits,omitempty"`
	Suggested []int            `json:"suggested,omitempty"`
	Result    *backtest.Result `json:"result,omitempty"`
	Error     string           `json:"error,omitempty"`
}

// handleBacktestStream runs a backtest and streams each iteration, then the
// histogram. Only one backtest runs at a time.
func (s *Server) handleBacktestStream(w http.ResponseWriter, r *http.Request) {
	horizon := s.cfg.BacktestHorizon
	if v := r.URL.Query().Get("horizon"); v != "" {
		h, err := strconv.Atoi(v)
		if err != nil || h <= 0 {
			http.Error(w, "horizon must be a positive integer", http.StatusBadRequest)
			return
		}
		horizon = h
	}

	s.mu.Lock()
	if s.backtestRunning {
		s.mu.Unlock()
		http.Error(w, "backtest already running", http.StatusConflict)
		return
	}
	s.backtestRunning = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.backtestRunning = false
		s.mu.Unlock()
	}()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Printf("websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// A client disconnect cancels the run.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	var writeErr error
	write := func(msg StreamMessage) {
		if writeErr != nil {
			return
		}
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if writeErr = conn.WriteJSON(msg); writeErr != nil {
			cancel()
		}
	}

	observer := backtest.ObserverFunc(func(it *domain.BacktestIteration, done, total int) {
		write(StreamMessage{
			Type:      "iteration",
			Done:      done,
			Total:     total,
			DrawID:    it.DrawID,
			Hits:      it.Hits,
			Suggested: it.Suggested,
		})
	})

	s.logger.Printf("Streaming backtest over %d draws to %s", horizon, r.RemoteAddr)
	result, err := app.NewBacktestRunner(s.cfg, s.stores, observer, s.logger).Run(ctx, horizon)
	if err != nil {
		write(StreamMessage{Type: "error", Error: app.Describe(err)})
	} else {
		write(StreamMessage{Type: "result", Result: result})
		s.mu.Lock()
		s.lastBacktest = time.Now()
		s.mu.Unlock()
	}

	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
