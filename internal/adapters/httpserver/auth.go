package httpserver

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/phenrril/eshop/internal/domain"
)

const (
	oauthStateCookie = "oauth_state"
	adminIssuer      = "eshop"
	adminTokenTTL    = 30 * time.Minute
)

func (s *Server) handleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	if s.oauthCfg == nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "oauth not configured"})
		return
	}
	state := uuid.NewString()
	http.SetCookie(w, &http.Cookie{Name: oauthStateCookie, Value: state, Path: "/", MaxAge: 300, HttpOnly: true, SameSite: http.SameSiteLaxMode})
	http.Redirect(w, r, s.oauthCfg.AuthCodeURL(state, oauth2.AccessTypeOnline), http.StatusFound)
}

type googleUserInfo struct {
	Email      string `json:"email"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
}

// handleGoogleCallback finishes the OAuth flow, stores the user and keeps
// the user id in the session.
func (s *Server) handleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	if s.oauthCfg == nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "oauth not configured"})
		return
	}
	q := r.URL.Query()
	c, _ := r.Cookie(oauthStateCookie)
	if c == nil || c.Value == "" || c.Value != q.Get("state") {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "state"})
		return
	}
	http.SetCookie(w, &http.Cookie{Name: oauthStateCookie, Value: "", Path: "/", MaxAge: -1})

	tok, err := s.oauthCfg.Exchange(r.Context(), q.Get("code"))
	if err != nil {
		log.Error().Err(err).Msg("exchange oauth")
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "oauth"})
		return
	}
	info, err := s.fetchUserInfo(r, tok)
	if err != nil {
		log.Error().Err(err).Msg("userinfo")
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "userinfo"})
		return
	}

	u, err := s.users.FindByEmail(r.Context(), info.Email)
	if errors.Is(err, domain.ErrNotFound) {
		u = &domain.User{Email: info.Email, FirstName: info.GivenName, LastName: info.FamilyName}
		err = s.users.Save(r.Context(), u)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := s.customers.FindOrCreate(r.Context(), u.ID); err != nil {
		writeError(w, r, err)
		return
	}

	sess := s.session(r)
	sess.Values[sessionUIDKey] = u.ID.String()
	if err := sess.Save(r, w); err != nil {
		writeError(w, r, err)
		return
	}
	log.Info().Str("user_id", u.ID.String()).Msg("user logged in")
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) fetchUserInfo(r *http.Request, tok *oauth2.Token) (*googleUserInfo, error) {
	resp, err := s.oauthCfg.Client(r.Context(), tok).Get(s.userInfoURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo status %d", resp.StatusCode)
	}
	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, err
	}
	if info.Email == "" {
		return nil, errors.New("userinfo without email")
	}
	return &info, nil
}

// handleLogout drops the login but keeps the session key, so the visitor
// falls back to their anonymous cart.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := s.session(r)
	delete(sess.Values, sessionUIDKey)
	if err := sess.Save(r, w); err != nil {
		writeError(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

type adminClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	if s.adminKey == "" {
		log.Error().Msg("ADMIN_API_KEY missing")
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "config"})
		return
	}
	key := r.Header.Get("X-Admin-Key")
	if key == "" || subtle.ConstantTimeCompare([]byte(key), []byte(s.adminKey)) != 1 {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "unauthorized"})
		return
	}
	var req struct {
		Email string `json:"email"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" && len(s.adminAllowed) == 1 {
		for k := range s.adminAllowed {
			email = k
		}
	}
	if _, ok := s.adminAllowed[email]; !ok {
		writeJSON(w, http.StatusForbidden, map[string]any{"error": "forbidden"})
		return
	}
	tok, exp, err := s.issueAdminToken(email, adminTokenTTL)
	if err != nil {
		writeError(w, r, err)
		return
	}
	secure := r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
	http.SetCookie(w, &http.Cookie{Name: adminCookie, Value: tok, Path: "/admin", Expires: exp, HttpOnly: true, Secure: secure, SameSite: http.SameSiteStrictMode})
	writeJSON(w, http.StatusOK, map[string]any{"token": tok, "exp": exp.Unix(), "email": email})
}

func (s *Server) issueAdminToken(email string, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(ttl)
	claims := adminClaims{
		Email: email,
		Role:  "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			Issuer:    adminIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.adminSecret)
	return tok, exp, err
}

func (s *Server) verifyAdminToken(raw string) (string, error) {
	var claims adminClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return s.adminSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(adminIssuer), jwt.WithExpirationRequired())
	if err != nil {
		return "", err
	}
	if claims.Role != "admin" || claims.Email == "" {
		return "", errors.New("claims")
	}
	if _, ok := s.adminAllowed[strings.ToLower(claims.Email)]; !ok {
		return "", errors.New("not allowed")
	}
	return claims.Email, nil
}
