// Command dartrie-serve loads one or more dictionaries, by file path or
// by name from the store, and serves lookups over HTTP: GET /lookup,
// GET /stats, GET /metrics, and GET /healthcheck, directly modelled on
// the teacher's router_api.go handler set and main.go's startup sequence
// (sentry init, zerolog-over-multi-writer, env-var config). Unlike the
// teacher, it runs a single http.Server that serves all four endpoints.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	sentry "github.com/getsentry/sentry-go"
	sentryzerolog "github.com/getsentry/sentry-go/zerolog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/dartrie/dartrie/internal/cliconfig"
	"github.com/dartrie/dartrie/logger"
	"github.com/dartrie/dartrie/serialize"
	"github.com/dartrie/dartrie/store"
)

func usage() {
	helpstring := `
dartrie-serve
Usage: %s -dict <name=path>[,<name=path>...]

Flags:
  -dict   Comma-separated name=path pairs; each file was written by
          dartrie-write and holds either variant, detected automatically.
          Dictionaries not present here can still be loaded on demand from
          the store by name if DARTRIE_DATABASE_URL is set.

The following environment variables and defaults are available:

DARTRIE_ADDR=:8080               Address on which to serve lookup requests
DARTRIE_FRONTEND_READ_TIMEOUT=60s   See net/http.Server.ReadTimeout
DARTRIE_FRONTEND_WRITE_TIMEOUT=60s  See net/http.Server.WriteTimeout
DARTRIE_DATABASE_URL=            Postgres connection string for on-demand loads
`
	fmt.Fprintf(os.Stderr, helpstring, os.Args[0])
	const errUsage = 64
	os.Exit(errUsage)
}

func main() {
	dictFlag := flag.String("dict", "", "comma-separated name=path pairs to preload")
	flag.Usage = usage
	flag.Parse()

	if err := sentry.Init(sentry.ClientOptions{}); err != nil {
		panic(err)
	}
	defer sentry.Flush(2 * time.Second)

	writer, err := sentryzerolog.New(sentryzerolog.Config{
		ClientOptions: sentry.ClientOptions{},
		Options: sentryzerolog.Options{
			Levels:          []zerolog.Level{zerolog.ErrorLevel, zerolog.FatalLevel},
			FlushTimeout:    3 * time.Second,
			WithBreadcrumbs: true,
		},
	})
	if err != nil {
		panic(err)
	}
	defer func() { _ = writer.Close() }()

	m := zerolog.MultiLevelWriter(os.Stderr, writer)
	log := zerolog.New(m).With().Timestamp().Logger()

	var (
		addr           = cliconfig.Getenv("DARTRIE_ADDR", ":8080")
		feReadTimeout  = mustParseDuration(cliconfig.Getenv("DARTRIE_FRONTEND_READ_TIMEOUT", "60s"))
		feWriteTimeout = mustParseDuration(cliconfig.Getenv("DARTRIE_FRONTEND_WRITE_TIMEOUT", "60s"))
		databaseURL    = cliconfig.Getenv("DARTRIE_DATABASE_URL", "")
	)

	registerMetrics(prometheus.DefaultRegisterer)

	var st *store.Store
	if databaseURL != "" {
		st, err = store.New(context.Background(), databaseURL, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to store")
		}
		defer st.Close()
	}

	srv := newServer(st, log)
	if *dictFlag != "" {
		if err := srv.preload(*dictFlag); err != nil {
			log.Fatal().Err(err).Msg("failed to preload dictionaries")
		}
	}

	if st != nil {
		go func() {
			if err := st.Listen(context.Background(), srv.invalidate); err != nil {
				log.Error().Err(err).Msg("failed to listen for dictionary changes")
			}
		}()
	}

	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      srv,
		ReadTimeout:  feReadTimeout,
		WriteTimeout: feWriteTimeout,
	}
	log.Info().Msgf("listening for requests on %v", addr)
	if err := httpSrv.ListenAndServe(); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func mustParseDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		panic(err)
	}
	return d
}

// server holds every dictionary loaded so far, keyed by name, and answers
// the four HTTP endpoints spec.md §4.I names. Loading is lazy past the
// -dict preload list: the first request for an unknown name that the
// store can satisfy loads and caches it.
type server struct {
	mu    sync.RWMutex
	dicts map[string]dictionary
	store *store.Store
	log   zerolog.Logger
	mux   *http.ServeMux
}

func newServer(st *store.Store, log zerolog.Logger) *server {
	s := &server{dicts: make(map[string]dictionary), store: st, log: log}
	s.mux = http.NewServeMux()
	s.mux.HandleFunc("/lookup", s.handleLookup)
	s.mux.HandleFunc("/stats", s.handleStats)
	s.mux.HandleFunc("/healthcheck", s.handleHealthcheck)
	s.mux.Handle("/metrics", promhttp.Handler())
	return s
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	defer s.recoverPanic(w, r)
	s.mux.ServeHTTP(w, r)
}

// recoverPanic mirrors dartrie-write's top-level recover: a panic inside a
// handler is reported to Sentry with the request attached, then answered
// with 500 rather than crashing the process.
func (s *server) recoverPanic(w http.ResponseWriter, r *http.Request) {
	if rec := recover(); rec != nil {
		err := fmt.Errorf("panic in handler: %v", rec)
		logger.NotifySentry(err, r, logger.Fields{Dictionary: r.URL.Query().Get("dict")})
		s.log.Error().Interface("panic", rec).Str("path", r.URL.Path).Msg("recovered panic in handler")
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// invalidate drops name's cached dictionary after the store reports a new
// version of it has been put, the way listenForContentStoreUpdates' handler
// signals a reload instead of applying the change inline. The next lookup
// for name falls through to lookupFromStore and picks up the new payload.
func (s *server) invalidate(name string) {
	s.mu.Lock()
	_, existed := s.dicts[name]
	delete(s.dicts, name)
	loaded := len(s.dicts)
	s.mu.Unlock()

	if existed {
		dictionariesLoadedMetric.Set(float64(loaded))
		s.log.Info().Str("name", name).Msg("invalidated cached dictionary after store update")
	}
}

func (s *server) preload(spec string) error {
	for _, pair := range strings.Split(spec, ",") {
		name, path, ok := strings.Cut(pair, "=")
		if !ok {
			return fmt.Errorf("malformed -dict entry %q, want name=path", pair)
		}
		d, err := loadDictFile(path)
		if err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		s.mu.Lock()
		s.dicts[name] = d
		s.mu.Unlock()
		dictionariesLoadedMetric.Set(float64(len(s.dicts)))
		s.log.Info().Str("name", name).Str("path", path).Msg("preloaded dictionary")
	}
	return nil
}

func loadDictFile(path string) (dictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	header := make([]byte, 8)
	if _, err := f.Read(header); err != nil {
		return nil, err
	}
	variant, err := serialize.PeekVariant(header)
	if err != nil {
		return nil, err
	}
	if _, err := f.Seek(0, 0); err != nil {
		return nil, err
	}

	switch variant {
	case serialize.Reduced:
		t, err := serialize.DecodeTrie(f)
		if err != nil {
			return nil, err
		}
		return reducedDict{t}, nil
	case serialize.Minimal:
		t, err := serialize.DecodeMpTrie(f)
		if err != nil {
			return nil, err
		}
		return mpDict{t}, nil
	default:
		return nil, fmt.Errorf("unknown variant %v", variant)
	}
}

// lookupFromStore loads name's reduced variant from the store on demand,
// caching it for subsequent requests. Only the reduced variant is served
// this way; minimal-prefix dictionaries loaded on demand would need a
// second store round trip under a different variant tag, which no caller
// has needed yet.
func (s *server) lookupFromStore(ctx context.Context, name string) (dictionary, error) {
	if s.store == nil {
		return nil, fmt.Errorf("dictionary %q not loaded and no store configured", name)
	}
	blob, err := s.store.Get(ctx, name, serialize.Reduced)
	if err != nil {
		return nil, err
	}
	t, err := serialize.DecodeTrie(strings.NewReader(string(blob)))
	if err != nil {
		return nil, err
	}
	d := reducedDict{t}
	s.mu.Lock()
	s.dicts[name] = d
	s.mu.Unlock()
	dictionariesLoadedMetric.Set(float64(len(s.dicts)))
	return d, nil
}

func (s *server) resolve(ctx context.Context, name string) (dictionary, error) {
	s.mu.RLock()
	d, ok := s.dicts[name]
	s.mu.RUnlock()
	if ok {
		return d, nil
	}
	return s.lookupFromStore(ctx, name)
}

func (s *server) handleLookup(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("dict")
	q := r.URL.Query().Get("q")
	d, err := s.resolve(r.Context(), name)
	if err != nil {
		lookupRequestCountMetric.WithLabelValues(name, "error").Inc()
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	value, ok := d.ExactMatch(q)
	resp := struct {
		ExactMatch *uint32 `json:"exact_match,omitempty"`
		Prefixes   []hit   `json:"prefixes"`
	}{
		Prefixes: d.CommonPrefixHits(q),
	}
	if ok {
		resp.ExactMatch = &value
		lookupRequestCountMetric.WithLabelValues(name, "exact").Inc()
	} else {
		lookupRequestCountMetric.WithLabelValues(name, "miss").Inc()
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *server) handleStats(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("dict")
	d, err := s.resolve(r.Context(), name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(d.Stats())
}

func (s *server) handleHealthcheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
