// Command dartrie-bench loads a dictionary and runs common_prefix_search
// over a haystack text, printing the hit count and elapsed time (spec.md
// §6's "<variant> -i <dict> -t <haystack>" benchmark contract).
package main

import (
	"bufio"
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dartrie/dartrie"
	"github.com/dartrie/dartrie/internal/cliconfig"
	"github.com/dartrie/dartrie/serialize"
	"github.com/dartrie/dartrie/store"
)

const (
	exitOK        = 0
	exitIOError   = 1
	exitMalformed = 2
)

func usage() {
	helpstring := `
dartrie-bench
Usage: %s -variant {reduced,mp} (-i <dict> | -store-name <name>) -t <haystack.txt>

Flags:
  -variant      Trie shape to load: reduced or mp
  -i            Dictionary file written by dartrie-write
  -store-name   Load the dictionary from the store by this name instead
  -t            Haystack text file; common_prefix_search runs from every
                character offset of each line

DARTRIE_DATABASE_URL=   Postgres connection string, required with -store-name
`
	fmt.Fprintf(os.Stderr, helpstring, os.Args[0])
	os.Exit(exitIOError)
}

func main() {
	variant := flag.String("variant", "reduced", "trie variant: reduced or mp")
	input := flag.String("i", "", "dictionary file")
	storeName := flag.String("store-name", "", "load dictionary from the store by this name")
	haystackPath := flag.String("t", "", "haystack text file")
	flag.Usage = usage
	flag.Parse()

	if *haystackPath == "" || (*input == "" && *storeName == "") {
		usage()
	}

	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	payload, err := loadPayload(*input, *storeName, *variant, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "dartrie-bench:", err)
		os.Exit(exitIOError)
	}

	haystack, err := os.ReadFile(*haystackPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "dartrie-bench:", err)
		os.Exit(exitIOError)
	}

	hits, elapsed, err := bench(*variant, payload, string(haystack))
	if err != nil {
		fmt.Fprintln(os.Stderr, "dartrie-bench:", err)
		os.Exit(exitMalformed)
	}

	fmt.Printf("hits=%d elapsed=%s\n", hits, elapsed)
	os.Exit(exitOK)
}

func loadPayload(input, storeName, variant string, log zerolog.Logger) ([]byte, error) {
	if storeName != "" {
		return loadFromStore(storeName, variant, log)
	}
	f, err := os.Open(input)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func loadFromStore(name, variant string, log zerolog.Logger) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s, err := store.New(ctx, cliconfig.Getenv("DARTRIE_DATABASE_URL", ""), log)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	if variant == "mp" {
		return s.Get(ctx, name, serialize.Minimal)
	}
	return s.Get(ctx, name, serialize.Reduced)
}

func bench(variant string, payload []byte, haystack string) (hits int, elapsed time.Duration, err error) {
	switch variant {
	case "reduced":
		t, err := serialize.DecodeTrie(bytes.NewReader(payload))
		if err != nil {
			return 0, 0, err
		}
		scanner := bufio.NewScanner(strings.NewReader(haystack))
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		start := time.Now()
		for scanner.Scan() {
			hits += countHits(t, scanner.Text())
		}
		return hits, time.Since(start), scanner.Err()
	case "mp":
		t, err := serialize.DecodeMpTrie(bytes.NewReader(payload))
		if err != nil {
			return 0, 0, err
		}
		scanner := bufio.NewScanner(strings.NewReader(haystack))
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		start := time.Now()
		for scanner.Scan() {
			hits += countHitsMp(t, scanner.Text())
		}
		return hits, time.Since(start), scanner.Err()
	default:
		return 0, 0, fmt.Errorf("unknown variant %q", variant)
	}
}

func countHits(t *dartrie.Trie, line string) int {
	n := 0
	for start := range line {
		search := t.CommonPrefixSearch(line, start)
		for {
			_, _, ok := search.Next()
			if !ok {
				break
			}
			n++
		}
	}
	return n
}

func countHitsMp(t *dartrie.MpTrie, line string) int {
	n := 0
	for start := range line {
		search := t.CommonPrefixSearch(line, start)
		for {
			_, _, ok := search.Next()
			if !ok {
				break
			}
			n++
		}
	}
	return n
}
