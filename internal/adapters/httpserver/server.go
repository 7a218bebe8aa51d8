package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/sessions"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/phenrril/eshop/internal/domain"
	"github.com/phenrril/eshop/internal/usecase"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"

type Deps struct {
	Catalog   *usecase.CatalogUC
	Carts     *usecase.CartUC
	Orders    *usecase.OrderUC
	Users     domain.UserRepo
	Customers domain.CustomerRepo

	Sessions    sessions.Store
	OAuth       *oauth2.Config
	UserInfoURL string

	// OrderFeed serves the admin websocket; Health serves /healthz.
	OrderFeed http.Handler
	Health    http.Handler

	UploadsDir string

	AdminAPIKey  string
	AdminSecret  []byte
	AdminAllowed map[string]struct{}
}

type Server struct {
	catalog   *usecase.CatalogUC
	carts     *usecase.CartUC
	orders    *usecase.OrderUC
	users     domain.UserRepo
	customers domain.CustomerRepo

	sessions    sessions.Store
	oauthCfg    *oauth2.Config
	userInfoURL string

	feed       http.Handler
	health     http.Handler
	uploadsDir string

	adminKey     string
	adminSecret  []byte
	adminAllowed map[string]struct{}

	validate *validator.Validate
}

func New(d Deps) http.Handler {
	s := &Server{
		catalog:      d.Catalog,
		carts:        d.Carts,
		orders:       d.Orders,
		users:        d.Users,
		customers:    d.Customers,
		sessions:     d.Sessions,
		oauthCfg:     d.OAuth,
		userInfoURL:  d.UserInfoURL,
		feed:         d.OrderFeed,
		health:       d.Health,
		uploadsDir:   d.UploadsDir,
		adminKey:     d.AdminAPIKey,
		adminSecret:  d.AdminSecret,
		adminAllowed: map[string]struct{}{},
		validate:     validator.New(validator.WithRequiredStructEnabled()),
	}
	if s.userInfoURL == "" {
		s.userInfoURL = googleUserInfoURL
	}
	for e := range d.AdminAllowed {
		s.adminAllowed[strings.ToLower(strings.TrimSpace(e))] = struct{}{}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(Logging)
	r.Use(middleware.Recoverer)
	s.routes(r)
	return r
}

func (s *Server) routes(r chi.Router) {
	if s.uploadsDir != "" {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(s.uploadsDir))))
	}
	if s.health != nil {
		r.Method(http.MethodGet, "/healthz", s.health)
	}

	r.Group(func(r chi.Router) {
		r.Use(s.withVisitor)

		r.Get("/auth/google/login", s.handleGoogleLogin)
		r.Get("/auth/google/callback", s.handleGoogleCallback)
		r.Post("/logout", s.handleLogout)
		r.Get("/orders", s.handleMyOrders)
		r.Post("/make-order", s.handleMakeOrder)

		r.Group(func(r chi.Router) {
			r.Use(s.withCart)
			r.Get("/", s.handleHome)
			r.Get("/category/{slug}", s.handleCategory)
			r.Get("/products/{tag}/{slug}", s.handleProduct)
			r.Get("/cart", s.handleCart)
			r.Get("/checkout", s.handleCheckout)
			r.Post("/add-to-cart/{tag}/{slug}", s.handleAddToCart)
			r.Post("/remove-from-cart/{tag}/{slug}", s.handleRemoveFromCart)
			r.Post("/change-qty/{tag}/{slug}", s.handleChangeQty)
		})
	})

	r.Route("/admin", func(r chi.Router) {
		r.Post("/login", s.handleAdminLogin)
		r.Group(func(r chi.Router) {
			r.Use(s.requireAdmin)
			r.Post("/categories", s.handleAdminCreateCategory)
			r.Post("/products/{tag}", s.handleAdminCreateProduct)
			r.Get("/orders", s.handleAdminOrders)
			r.Get("/orders/export.xlsx", s.handleAdminExportOrders)
			r.Patch("/orders/{id}/status", s.handleAdminOrderStatus)
			if s.feed != nil {
				r.Method(http.MethodGet, "/orders/ws", s.feed)
			}
		})
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto HTTP statuses. Anything unexpected is
// logged and reported as a 500 without details.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": domain.ErrValidation.Error(), "fields": verr.Fields})
	case errors.Is(err, domain.ErrValidation):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
	case errors.Is(err, domain.ErrCartClosed):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": domain.ErrCartClosed.Error()})
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "not found"})
	case errors.Is(err, domain.ErrAuthRequired):
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": domain.ErrAuthRequired.Error()})
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Str("request_id", middleware.GetReqID(r.Context())).Msg("request failed")
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal error"})
	}
}
