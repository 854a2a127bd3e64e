// Package idgen generates record ids for the local-only cache and the
// record server. Ids look like remote store ids: "rec" followed by 14
// alphanumeric characters.
package idgen

import (
	"fmt"

	nanoid "github.com/matoous/go-nanoid/v2"
)

const (
	Prefix   = "rec"
	Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	Length   = 14
)

func Generate() (string, error) {
	return WithPrefix(Prefix)
}

// MustGenerate panics if the random source fails.
func MustGenerate() string {
	id, err := Generate()
	if err != nil {
		panic(err)
	}
	return id
}

func WithPrefix(prefix string) (string, error) {
	suffix, err := nanoid.Generate(Alphabet, Length)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return prefix + suffix, nil
}
