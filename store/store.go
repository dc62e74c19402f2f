// Package store gives built dictionaries a durable home in Postgres,
// without the in-memory query path ever depending on it (SPEC_FULL.md
// §4.H). It is grounded on the teacher's lib/router.go (a long-lived
// struct holding a *pgxpool.Pool built from context.Background(), a
// zerolog.Logger passed into the constructor) and lib/load_routes.go
// (a narrow Pgx-subset interface so tests can swap in pgxmock, and the
// pgxlisten-driven "route_changes" NOTIFY that load_routes.go listens
// for to trigger a reload).
package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgxlisten"
	"github.com/rs/zerolog"

	"github.com/dartrie/dartrie/serialize"
)

// NotifyChannel is the Postgres NOTIFY channel Put signals on (sql/put.sql's
// pg_notify call) and Listen subscribes to. This is the dictionary-store
// counterpart of the teacher's "route_changes" channel.
const NotifyChannel = "dartrie_dictionary_changes"

//go:embed sql/schema.sql
var schemaSQL string

//go:embed sql/put.sql
var putSQL string

//go:embed sql/get.sql
var getSQL string

//go:embed sql/list.sql
var listSQL string

// ErrNotFound is returned by Get when no row matches the requested name
// and variant. It is a plain infrastructure error, not part of the
// build/format error hierarchy in errors.go (spec.md §7).
var ErrNotFound = errors.New("store: dictionary not found")

// Querier is the subset of *pgxpool.Pool that Store needs, narrow enough
// that pgxmock.PgxPoolIface satisfies it in tests (mirrors lib/load_routes.go's
// PgxIface).
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store persists serialized dictionaries as bytea rows keyed by name and
// variant.
type Store struct {
	pool   Querier
	closer func()
	logger zerolog.Logger
}

// New opens a connection pool to connString and ensures the dictionaries
// table exists. connString is normally DARTRIE_DATABASE_URL, the store's
// counterpart to the teacher's CONTENT_STORE_DATABASE_URL.
func New(ctx context.Context, connString string, logger zerolog.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("store: connect: %w", err)
	}
	logger.Info().Msg("postgres connection pool created")

	s := &Store{pool: pool, closer: pool.Close, logger: logger}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// NewWithQuerier builds a Store around an already-open Querier, bypassing
// connection-pool setup. Tests use this to substitute pgxmock.
func NewWithQuerier(q Querier, logger zerolog.Logger) *Store {
	return &Store{pool: q, logger: logger}
}

// Close releases the underlying connection pool, if Store opened one.
func (s *Store) Close() {
	if s.closer != nil {
		s.closer()
	}
}

func (s *Store) ensureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("store: ensure schema: %w", err)
	}
	return nil
}

// Put upserts a serialized dictionary under name and variant (SPEC_FULL.md
// §4.H). blob is normally the output of serialize.Encode or
// serialize.EncodeMp; Put does not itself decode it. The same statement
// emits a pg_notify on the "dartrie_dictionary_changes" channel, payload
// name, so a running dartrie-serve can invalidate its cached copy — the
// same NOTIFY-driven reload load_routes.go's listenForContentStoreUpdates
// implements for "route_changes".
func (s *Store) Put(ctx context.Context, name string, variant serialize.Variant, blob []byte) error {
	if _, err := s.pool.Exec(ctx, putSQL, name, byte(variant), blob); err != nil {
		return fmt.Errorf("store: put %q (%s): %w", name, variant, err)
	}
	s.logger.Info().Str("name", name).Str("variant", variant.String()).Int("bytes", len(blob)).Msg("stored dictionary")
	return nil
}

// Listen subscribes to NotifyChannel and calls onNotify with the changed
// dictionary's name for every pg_notify Put emits, until ctx is cancelled or
// a fatal error occurs. Grounded directly on lib/load_routes.go's
// listenForContentStoreUpdates: the same acquire-a-raw-connection-from-the-
// pool Connect func pgxlisten.Listener requires, handed a *pgx.Conn rather
// than the pool so the listener owns its connection exclusively. Requires a
// Store built by New; a Store built over a test Querier has no pool to
// acquire a raw connection from.
func (s *Store) Listen(ctx context.Context, onNotify func(name string)) error {
	pool, ok := s.pool.(*pgxpool.Pool)
	if !ok {
		return fmt.Errorf("store: Listen requires a pool-backed Store, not a test double")
	}

	listener := &pgxlisten.Listener{
		Connect: func(ctx context.Context) (*pgx.Conn, error) {
			c, err := pool.Acquire(ctx)
			if err != nil {
				return nil, err
			}
			return c.Conn(), nil
		},
		LogError: func(_ context.Context, err error) {
			s.logger.Warn().Err(err).Msg("dictionary-change listener error")
		},
	}
	listener.Handle(NotifyChannel, pgxlisten.HandlerFunc(
		func(_ context.Context, n *pgconn.Notification, _ *pgx.Conn) error {
			onNotify(n.Payload)
			return nil
		},
	))
	return listener.Listen(ctx)
}

// Get fetches the latest serialized payload stored under name and
// variant. Callers pass the bytes to serialize.DecodeTrie or
// serialize.DecodeMpTrie, matching variant, to rebuild a live trie.
func (s *Store) Get(ctx context.Context, name string, variant serialize.Variant) ([]byte, error) {
	var blob []byte
	err := s.pool.QueryRow(ctx, getSQL, name, byte(variant)).Scan(&blob)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("store: %q (%s): %w", name, variant, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("store: get %q (%s): %w", name, variant, err)
	}
	return blob, nil
}

// Entry summarizes one stored dictionary for List.
type Entry struct {
	Name    string
	Variant serialize.Variant
	BuiltAt time.Time
}

// List enumerates every stored dictionary, ordered by name and then
// variant. No dartrie command calls it.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.pool.Query(ctx, listSQL)
	if err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			name    string
			variant byte
			builtAt time.Time
		)
		if err := rows.Scan(&name, &variant, &builtAt); err != nil {
			return nil, fmt.Errorf("store: list: scan: %w", err)
		}
		entries = append(entries, Entry{Name: name, Variant: serialize.Variant(variant), BuiltAt: builtAt})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	return entries, nil
}
