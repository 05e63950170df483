package randstr

import "math/rand"

var defaultLetters = []byte("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789")

type Generator struct {
	letters []byte
}

func New(letters []byte) *Generator {
	return &Generator{letters: letters}
}

// NewDefault returns a generator over the alphanumeric alphabet.
func NewDefault() *Generator {
	return New(defaultLetters)
}

func (g *Generator) GenerateRandomString(length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = g.letters[rand.Intn(len(g.letters))]
	}

	return string(b)
}
