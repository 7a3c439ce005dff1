package admin

import (
	"net/http"

	"TitanStore/pkg/kit"
)

const CodeHeader = "X-Admin-Code"

// RequireAdmin admits requests carrying either a token from a granted
// verify or the shared secret itself. Every failure answers the same 401.
func RequireAdmin(gate *Gate, tokens *TokenMaker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tok, ok := kit.BearerToken(r); ok {
				if _, err := tokens.Parse(tok); err == nil {
					next.ServeHTTP(w, r)
					return
				}
			}
			if gate.Verify(r.Header.Get(CodeHeader)) {
				next.ServeHTTP(w, r)
				return
			}
			kit.WriteError(w, r, http.StatusUnauthorized, "unauthorized", nil)
		})
	}
}
