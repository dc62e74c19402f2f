// Package dartrie implements character-wise double-array dictionaries:
// static maps from string keys to unsigned integer values, tuned for text
// made up of multibyte characters such as Japanese or Chinese.
//
// Two variants share the same query surface. Trie is the reduced variant,
// optimized for query speed. MpTrie is the minimal-prefix variant, which
// stores long single-key tails out of line to save space when keys share
// short prefixes but diverge into long suffixes. Neither variant supports
// mutation after construction; build a new one instead.
package dartrie
