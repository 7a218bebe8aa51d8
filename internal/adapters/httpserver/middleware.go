package httpserver

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/rs/zerolog/log"

	"github.com/phenrril/eshop/internal/domain"
)

const (
	sessionName   = "eshop"
	sessionKeyKey = "sid"
	sessionUIDKey = "uid"
	adminCookie   = "admin_token"
)

type ctxKey int

const (
	visitorCtx ctxKey = iota
	cartCtx
	adminCtx
)

func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("dur", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("http")
	})
}

func (s *Server) session(r *http.Request) *sessions.Session {
	sess, err := s.sessions.Get(r, sessionName)
	if err != nil {
		// A cookie we cannot decode gets replaced by a fresh session.
		log.Debug().Err(err).Msg("discarding session cookie")
	}
	return sess
}

// withVisitor gives every request a session key and, once logged in, the
// user id.
func (s *Server) withVisitor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := s.session(r)
		sid, _ := sess.Values[sessionKeyKey].(string)
		if sid == "" {
			sid = uuid.NewString()
			sess.Values[sessionKeyKey] = sid
			if err := sess.Save(r, w); err != nil {
				log.Error().Err(err).Msg("save session")
			}
		}
		v := domain.Visitor{SessionKey: sid}
		if raw, ok := sess.Values[sessionUIDKey].(string); ok {
			if id, err := uuid.Parse(raw); err == nil {
				v.UserID = id
			}
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), visitorCtx, v)))
	})
}

// withCart resolves the visitor's open cart and attaches it to the request.
func (s *Server) withCart(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cart, err := s.carts.Resolve(r.Context(), visitorFrom(r))
		if err != nil {
			writeError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), cartCtx, cart)))
	})
}

func visitorFrom(r *http.Request) domain.Visitor {
	v, _ := r.Context().Value(visitorCtx).(domain.Visitor)
	return v
}

func cartFrom(r *http.Request) *domain.Cart {
	c, _ := r.Context().Value(cartCtx).(*domain.Cart)
	return c
}

func adminFrom(r *http.Request) string {
	e, _ := r.Context().Value(adminCtx).(string)
	return e
}

// requireAdmin accepts a bearer token or the admin cookie.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok := ""
		if auth := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(auth), "bearer ") {
			tok = strings.TrimSpace(auth[7:])
		} else if c, err := r.Cookie(adminCookie); err == nil {
			tok = c.Value
		}
		if tok == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "unauthorized"})
			return
		}
		email, err := s.verifyAdminToken(tok)
		if err != nil {
			log.Warn().Err(err).Msg("admin token rejected")
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "unauthorized"})
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), adminCtx, email)))
	})
}
