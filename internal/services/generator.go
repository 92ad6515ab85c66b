package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// codeAlphabet deliberately omits 0/O and 1/I/l so codes survive being read
// aloud or hand-copied.
const codeAlphabet = "23456789ABCDEFGHJKMNPQRSTUVWXYZabcdefghjkmnpqrstuvwxyz"

const generateRetries = 5

// ErrCodeSpaceExhausted means every candidate collided, including the longer
// fallback draw. At sane occupancy this never happens.
var ErrCodeSpaceExhausted = errors.New("could not generate a unique code")

// CodeGenerator draws random pickup codes and checks them against the store.
// It does not reserve codes: the unique index on the codes collection is the
// final arbiter, and an insert conflict is retried by the caller.
type CodeGenerator struct {
	store  CodeStore
	length int
}

func NewCodeGenerator(store CodeStore, length int) *CodeGenerator {
	if length <= 0 {
		length = 5
	}
	return &CodeGenerator{store: store, length: length}
}

// Generate returns a code not currently used by any live record. After a few
// collisions at the configured length it tries once at length+2 before
// giving up.
func (g *CodeGenerator) Generate(ctx context.Context) (string, error) {
	for i := 0; i < generateRetries; i++ {
		code, err := randomCode(g.length)
		if err != nil {
			return "", err
		}
		taken, err := g.store.Exists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("failed to check code availability: %w", err)
		}
		if !taken {
			return code, nil
		}
	}

	code, err := randomCode(g.length + 2)
	if err != nil {
		return "", err
	}
	taken, err := g.store.Exists(ctx, code)
	if err != nil {
		return "", fmt.Errorf("failed to check code availability: %w", err)
	}
	if taken {
		return "", ErrCodeSpaceExhausted
	}
	return code, nil
}

func randomCode(n int) (string, error) {
	base := big.NewInt(int64(len(codeAlphabet)))
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, base)
		if err != nil {
			return "", fmt.Errorf("failed to draw random code: %w", err)
		}
		b.WriteByte(codeAlphabet[idx.Int64()])
	}
	return b.String(), nil
}
