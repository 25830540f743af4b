package core

import (
	"crypto/rand"

	"github.com/mr-tron/base58"
)

// NewPaymentRef returns an opaque reference for the payment audit trail,
// "pr_" plus 16 random bytes base58-encoded. Callers that already hold a
// provider reference pass it through instead.
func NewPaymentRef() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand never fails on supported platforms.
		panic("payment ref entropy: " + err.Error())
	}
	return "pr_" + base58.Encode(b[:])
}
