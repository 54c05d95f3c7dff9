// Package shortlink generates the compact codes recipes are reachable under.
package shortlink

import (
	"crypto/rand"
)

const (
	Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	Length   = 6
)

// Generator produces one candidate code. Uniqueness is not guaranteed here;
// the store's unique index is the arbiter and callers retry on collision.
type Generator func() string

func Generate() string {
	buf := make([]byte, Length)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	for i, b := range buf {
		buf[i] = Alphabet[int(b)%len(Alphabet)]
	}
	return string(buf)
}
