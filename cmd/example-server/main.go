// Binário de demonstração: um servidor HTTP mínimo fazendo o papel da camada
// adaptadora — monta Requests a partir de parâmetros da URL, chama o engine e
// traduz o Outcome para status/JSON. O engine em si não conhece HTTP.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/takeshishimada/Lockman-sub001/admission"
	"github.com/takeshishimada/Lockman-sub001/admission/application"
	"github.com/takeshishimada/Lockman-sub001/admission/domain"
	"github.com/takeshishimada/Lockman-sub001/admission/infra"
)

func main() {
	cfg, err := readConfig()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	var opts []admission.Option
	if cfg.statsEnabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.statsRedisAddr,
			Password: cfg.statsRedisPassword,
			DB:       cfg.statsRedisDB,
		})
		defer func() { _ = rdb.Close() }()

		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_, err := rdb.Ping(pingCtx).Result()
		cancel()
		if err != nil {
			log.Fatalf("redis stats ping error: %v", err)
		}

		opts = append(opts, admission.WithStats(infra.NewRedisStatsStore(
			rdb,
			infra.WithStatsPrefix(cfg.statsPrefix),
			infra.WithStatsTTL(cfg.statsTTL),
			infra.WithStatsTrackBoundaries(cfg.statsTrackBoundaries),
		)))
	}

	manager, err := admission.New(opts...)
	if err != nil {
		log.Fatalf("admission runtime error: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	srv := &http.Server{
		Addr:              cfg.listenAddr,
		Handler:           newHandler(manager),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		manager.Clear()
	}()

	log.Printf("example-server listening on %s", cfg.listenAddr)
	log.Printf("stats: enabled=%v redisAddr=%q ttl=%s trackBoundaries=%v",
		cfg.statsEnabled, cfg.statsRedisAddr, cfg.statsTTL, cfg.statsTrackBoundaries)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server error: %v", err)
	}
}

type server struct {
	manager *application.Manager

	mu      sync.Mutex
	handles map[string]*application.Handle
}

func newHandler(m *application.Manager) http.Handler {
	s := &server{manager: m, handles: make(map[string]*application.Handle)}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /attempts", s.attempt)
	mux.HandleFunc("DELETE /attempts/{id}", s.release)
	mux.HandleFunc("GET /active", s.active)
	return mux
}

// attempt monta a Request a partir da query string e tenta a admissão.
//
// Ex: POST /attempts?boundary=feed&action=refresh&strategy=single-execution&mode=action
func (s *server) attempt(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	boundary := domain.BoundaryID(q.Get("boundary"))
	if boundary == "" {
		http.Error(w, "boundary is required", http.StatusBadRequest)
		return
	}

	payload, err := payloadFromQuery(q.Get("strategy"), q.Get)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	req := domain.Request{
		ActionID:   domain.ActionID(q.Get("action")),
		StrategyID: domain.StrategyID(q.Get("strategy")),
		Payload:    payload,
	}

	out, err := s.manager.Attempt(r.Context(), boundary, req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	resp := map[string]any{}
	switch out.Kind {
	case application.Rejected:
		resp["outcome"] = "rejected"
		resp["reason"] = out.Reason
		resp["holders"] = out.Diagnostic.HolderCount
		writeJSON(w, http.StatusConflict, resp)
		return
	case application.AdmittedWithPreemption:
		resp["outcome"] = "admitted-with-preemption"
		victims := make([]string, len(out.Victims))
		for i, v := range out.Victims {
			victims[i] = v.UniqueID
		}
		resp["victims"] = victims
	default:
		resp["outcome"] = "admitted"
	}

	id := out.Handle.Record().UniqueID
	s.mu.Lock()
	s.handles[id] = out.Handle
	s.mu.Unlock()
	resp["id"] = id

	writeJSON(w, http.StatusOK, resp)
}

func (s *server) release(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	s.mu.Lock()
	h := s.handles[id]
	delete(s.handles, id)
	s.mu.Unlock()

	if h == nil {
		http.Error(w, "unknown attempt id", http.StatusNotFound)
		return
	}
	h.Release()
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) active(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.manager.ListActive())
}

func payloadFromQuery(strategy string, get func(string) string) (domain.Payload, error) {
	switch domain.StrategyID(strategy) {
	case admission.SingleExecutionID:
		mode := domain.ModeAction
		switch get("mode") {
		case "none":
			mode = domain.ModeNone
		case "boundary":
			mode = domain.ModeBoundary
		}
		return domain.SingleExecutionPayload{Mode: mode}, nil
	case admission.PriorityBasedID:
		prio := domain.PriorityLow
		if get("priority") == "high" {
			prio = domain.PriorityHigh
		}
		excl := domain.Exclusive
		if get("exclusivity") == "replaceable" {
			excl = domain.Replaceable
		}
		return domain.PriorityPayload{Priority: prio, Exclusivity: excl}, nil
	case admission.ConcurrencyLimitedID:
		max, _ := strconv.Atoi(get("limit"))
		return domain.ConcurrencyPayload{
			Group: get("group"),
			Limit: domain.ConcurrencyLimit{Max: max},
		}, nil
	case admission.RateLimitID:
		rps, _ := strconv.ParseFloat(get("rps"), 64)
		burst, _ := strconv.Atoi(get("burst"))
		return domain.RateLimitPayload{Key: get("key"), RPS: rps, Burst: burst}, nil
	default:
		return nil, errors.New("unsupported strategy: " + strategy)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type config struct {
	listenAddr string

	statsEnabled         bool
	statsRedisAddr       string
	statsRedisPassword   string
	statsRedisDB         int
	statsPrefix          string
	statsTTL             time.Duration
	statsTrackBoundaries bool
}

func readConfig() (config, error) {
	cfg := config{}
	cfg.listenAddr = getenvDefault("LISTEN_ADDR", ":8080")

	cfg.statsEnabled = getenvBoolDefault("STATS_ENABLED", false)
	cfg.statsRedisAddr = getenvDefault("STATS_REDIS_ADDR", "")
	cfg.statsRedisPassword = os.Getenv("STATS_REDIS_PASSWORD")
	cfg.statsRedisDB = getenvIntDefault("STATS_REDIS_DB", 0)
	cfg.statsPrefix = getenvDefault("STATS_PREFIX", "admission:stats")
	cfg.statsTTL = getenvDurationDefault("STATS_TTL", 24*time.Hour)
	cfg.statsTrackBoundaries = getenvBoolDefault("STATS_TRACK_BOUNDARIES", false)

	if cfg.statsEnabled && strings.TrimSpace(cfg.statsRedisAddr) == "" {
		return config{}, errors.New("STATS_REDIS_ADDR is required when STATS_ENABLED=true")
	}
	return cfg, nil
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvIntDefault(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getenvBoolDefault(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getenvDurationDefault(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
