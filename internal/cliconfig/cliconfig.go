// Package cliconfig holds the env-var-with-flag-override helpers the
// dartrie commands share, the same shape as the teacher's main.go getenv
// and getenvDuration.
package cliconfig

import (
	"os"
	"strconv"

	"github.com/dartrie/dartrie"
)

// Getenv returns the value of key, or defaultVal if key is unset or empty.
func Getenv(key string, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

// GetenvInt is Getenv parsed as an integer, falling back to defaultVal on
// a missing or malformed value.
func GetenvInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return n
}

// ParseCodeOrder maps the DARTRIE_CODE_ORDER values ("frequency",
// "insertion") onto dartrie.CodeOrder, defaulting to FrequencyOrder for
// anything else, including an empty string.
func ParseCodeOrder(s string) dartrie.CodeOrder {
	if s == "insertion" {
		return dartrie.InsertionOrder
	}
	return dartrie.FrequencyOrder
}
