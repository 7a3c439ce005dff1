package admin

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"TitanStore/pkg/kit"
)

const defaultTokenTTL = 8 * time.Hour

type Server struct {
	Log      *zap.Logger
	Gate     *Gate
	Tokens   *TokenMaker
	TokenTTL time.Duration
	// Limiter throttles verify attempts per client IP; nil disables it.
	Limiter *kit.IPRateLimiter
}

// VerifyHandler answers POST {"code": ...} with a token on success.
func (s *Server) VerifyHandler() http.Handler {
	h := http.Handler(http.HandlerFunc(s.handleVerify))
	if s.Limiter != nil {
		h = s.Limiter.Middleware(h)
	}
	return h
}

type verifyReq struct {
	Code string `json:"code"`
}

type verifyResp struct {
	Success     bool      `json:"success"`
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		s.logger().Warn("admin verify decode", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}

	if !s.Gate.Verify(req.Code) {
		s.logger().Info("admin verify denied", zap.String("remote", kit.ClientIP(r)))
		kit.WriteError(w, r, http.StatusUnauthorized, "invalid code", nil)
		return
	}

	ttl := s.TokenTTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	tok, exp, err := s.Tokens.New(ttl)
	if err != nil {
		s.logger().Error("token issue", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}

	kit.WriteJSON(w, http.StatusOK, verifyResp{Success: true, AccessToken: tok, ExpiresAt: exp})
}

func (s *Server) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}
