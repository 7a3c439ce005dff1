package catalog

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"TitanStore/pkg/kit"
)

type Server struct {
	Service *Service
	Links   LinkConfig
	Log     *zap.Logger
}

type productDetail struct {
	Product Product   `json:"product"`
	Related []Product `json:"related"`
	Links   Links     `json:"links"`
}

type verifyResp struct {
	Genuine bool   `json:"genuine"`
	Title   string `json:"title,omitempty"`
}

// PublicRoutes serves the storefront reads and the authenticity lookup.
func (s *Server) PublicRoutes() http.Handler {
	r := chi.NewRouter()

	r.Get("/products", s.list)
	r.Get("/products/{id}", s.detail)
	r.Get("/verify", s.verify)

	return r
}

// AdminRoutes serves catalog mutations. Callers mount it behind the admin gate.
func (s *Server) AdminRoutes() http.Handler {
	r := chi.NewRouter()

	r.Get("/products", s.list)
	r.Post("/products", s.create)
	r.Put("/products", s.update)
	r.Delete("/products/{id}", s.delete)
	r.Get("/products/{id}/qr", s.qr)

	return r
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	kit.WriteJSON(w, http.StatusOK, Catalog{Products: s.Service.Search(r.Context(), r.URL.Query().Get("q"))})
}

func (s *Server) detail(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	c := s.Service.Load(r.Context())
	for _, p := range c.Products {
		if p.ID != id {
			continue
		}
		kit.WriteJSON(w, http.StatusOK, productDetail{
			Product: p,
			Related: Related(c, id),
			Links:   s.Links.For(p),
		})
		return
	}

	kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
}

func (s *Server) verify(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		kit.WriteError(w, r, http.StatusBadRequest, "code required", nil)
		return
	}

	title, ok := s.Service.Lookup(r.Context(), code)
	kit.WriteJSON(w, http.StatusOK, verifyResp{Genuine: ok, Title: title})
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	var p Product
	if err := kit.DecodeJSON(w, r, &p); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	c, err := s.Service.Create(r.Context(), p)
	if err != nil {
		s.writeMutationError(w, r, err, "failed to add product")
		return
	}
	kit.WriteJSON(w, http.StatusOK, c)
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	var p Product
	if err := kit.DecodeJSON(w, r, &p); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	c, _, err := s.Service.Update(r.Context(), p)
	if err != nil {
		s.writeMutationError(w, r, err, "failed to update product")
		return
	}
	kit.WriteJSON(w, http.StatusOK, c)
}

func (s *Server) delete(w http.ResponseWriter, r *http.Request) {
	c, _, err := s.Service.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeMutationError(w, r, err, "failed to delete product")
		return
	}
	kit.WriteJSON(w, http.StatusOK, c)
}

func (s *Server) qr(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := s.Service.Get(r.Context(), id); !ok {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
		return
	}

	size, _ := strconv.Atoi(r.URL.Query().Get("size"))
	png, err := s.Links.VerifyQR(id, size)
	if err != nil {
		s.logger().Error("render qr failed", zap.Error(err), zap.String("id", id))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func (s *Server) writeMutationError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		kit.WriteError(w, r, http.StatusBadRequest, "invalid product", verr.Fields)
	case errors.Is(err, ErrInvalidProduct):
		kit.WriteError(w, r, http.StatusBadRequest, "invalid product", nil)
	case errors.Is(err, ErrConflict):
		kit.WriteError(w, r, http.StatusConflict, "conflict", nil)
	default:
		s.logger().Error("catalog write failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, msg, nil)
	}
}

func (s *Server) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}
