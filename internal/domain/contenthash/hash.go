// Package contenthash produces short, deterministic fingerprints of item
// content payloads. The fingerprint is the identity of a piece of content:
// it stamps every item, detects no-op edits, and decides whether learning
// progress can follow a copy across a fork.
//
// Hashing is insensitive to JSON object key order: two payloads that are
// structurally identical but serialized with keys in a different order hash
// identically. It is pure and stable across process restarts.
package contenthash

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/cespare/xxhash/v2"
)

// ErrUnhashable is returned when a payload cannot be canonicalized,
// typically because it is not valid JSON.
var ErrUnhashable = errors.New("content cannot be hashed")

// Hash returns the fingerprint of the given JSON payload as 16 lowercase
// hex characters. The payload is canonicalized before hashing so that key
// order and insignificant whitespace do not affect the result.
func Hash(content json.RawMessage) (string, error) {
	canonical, err := canonicalize(content)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%016x", xxhash.Sum64(canonical)), nil
}

// Equal reports whether two payloads are structurally identical. Payloads
// that cannot be hashed are never equal to anything.
func Equal(a, b json.RawMessage) bool {
	ha, err := Hash(a)
	if err != nil {
		return false
	}
	hb, err := Hash(b)
	if err != nil {
		return false
	}
	return ha == hb
}

// canonicalize decodes the payload into generic values and re-encodes it.
// encoding/json marshals map keys in sorted order, which gives a canonical
// byte representation independent of the caller's serialization.
func canonicalize(content json.RawMessage) ([]byte, error) {
	if len(content) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrUnhashable)
	}

	// Numbers decode as json.Number so that integers beyond float64's
	// 2^53 integer range keep their exact value through re-encoding.
	dec := json.NewDecoder(bytes.NewReader(content))
	dec.UseNumber()

	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnhashable, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after JSON value", ErrUnhashable)
	}

	canonical, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnhashable, err)
	}

	return canonical, nil
}
