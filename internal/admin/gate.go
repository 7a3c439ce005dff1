package admin

import (
	"crypto/subtle"

	"golang.org/x/crypto/bcrypt"
)

// Gate checks codes against one shared secret, either held as plaintext
// (compared in constant time) or as a bcrypt hash.
type Gate struct {
	code []byte
	hash []byte
}

func NewGate(code, hash string) *Gate {
	g := &Gate{}
	if hash != "" {
		g.hash = []byte(hash)
	} else {
		g.code = []byte(code)
	}
	return g
}

// Verify reports whether code grants admin access. The empty code is
// always denied.
func (g *Gate) Verify(code string) bool {
	if code == "" {
		return false
	}
	if g.hash != nil {
		return bcrypt.CompareHashAndPassword(g.hash, []byte(code)) == nil
	}
	if len(g.code) == 0 {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(code), g.code) == 1
}
