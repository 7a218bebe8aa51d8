package httpserver

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/phenrril/eshop/internal/adapters/export"
	"github.com/phenrril/eshop/internal/domain"
)

const maxUpload = 10 << 20

type categoryRequest struct {
	Name string `json:"name" validate:"required,max=255"`
	Slug string `json:"slug" validate:"required,max=140"`
}

func (s *Server) handleAdminCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "json"})
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, r, requestValidationError(err))
		return
	}
	c := &domain.Category{Name: strings.TrimSpace(req.Name), Slug: req.Slug}
	if err := s.catalog.CreateCategory(r.Context(), c); err != nil {
		writeError(w, r, err)
		return
	}
	log.Info().Str("admin", adminFrom(r)).Str("slug", c.Slug).Msg("category created")
	writeJSON(w, http.StatusCreated, c)
}

// requestValidationError turns validator output into field messages keyed by
// lower-case field name.
func requestValidationError(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	out := &domain.ValidationError{Fields: map[string]string{}}
	for _, fe := range verrs {
		out.Fields[strings.ToLower(fe.Field())] = fe.Tag()
	}
	return out
}

// productBuilders create an empty variant and fill its own fields from the
// submitted form.
var productBuilders = map[domain.ProductType]func(r *http.Request) domain.Product{
	domain.ProductTypeDress: func(r *http.Request) domain.Product {
		return &domain.Dress{
			Style:      r.FormValue("style"),
			Structure:  r.FormValue("structure"),
			Cut:        r.FormValue("cut"),
			Silhouette: r.FormValue("silhouette"),
			Color:      r.FormValue("color"),
			Length:     r.FormValue("length"),
		}
	},
	domain.ProductTypeSkirt: func(r *http.Request) domain.Product {
		return &domain.Skirt{
			Style:      r.FormValue("style"),
			Structure:  r.FormValue("structure"),
			Cut:        r.FormValue("cut"),
			Silhouette: r.FormValue("silhouette"),
			Landing:    r.FormValue("landing"),
			Length:     r.FormValue("length"),
		}
	},
}

func (s *Server) handleAdminCreateProduct(w http.ResponseWriter, r *http.Request) {
	tag, ok := productTag(r)
	build := productBuilders[tag]
	if !ok || build == nil {
		writeError(w, r, domain.ErrNotFound)
		return
	}
	if err := r.ParseMultipartForm(maxUpload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "multipart"})
		return
	}

	catSlug := r.FormValue("category")
	if catSlug == "" {
		catSlug = string(tag)
	}
	cat, err := s.catalog.Categories.FindBySlug(r.Context(), catSlug)
	if err != nil {
		writeError(w, r, err)
		return
	}
	price, err := decimal.NewFromString(strings.TrimSpace(r.FormValue("price")))
	if err != nil {
		writeError(w, r, domain.NewValidationError("price", "must be a decimal number"))
		return
	}

	p := build(r)
	b := p.Base()
	b.CategoryID = cat.ID
	b.Title = strings.TrimSpace(r.FormValue("title"))
	b.Slug = r.FormValue("slug")
	b.Description = r.FormValue("description")
	b.Price = price

	var image io.Reader
	if f, _, err := r.FormFile("image"); err == nil {
		defer f.Close()
		image = f
	} else if err != http.ErrMissingFile {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "image"})
		return
	}

	if err := s.catalog.CreateProduct(r.Context(), p, image); err != nil {
		writeError(w, r, err)
		return
	}
	log.Info().Str("admin", adminFrom(r)).Str("type", string(tag)).Str("slug", b.Slug).Msg("product created")
	writeJSON(w, http.StatusCreated, toProductView(p, true))
}

func (s *Server) handleAdminOrders(w http.ResponseWriter, r *http.Request) {
	list, err := s.orders.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": list})
}

func (s *Server) handleAdminOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, domain.ErrNotFound)
		return
	}
	var req struct {
		Status domain.OrderStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "json"})
		return
	}
	o, err := s.orders.AdvanceStatus(r.Context(), id, req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	log.Info().Str("admin", adminFrom(r)).Str("order_id", id.String()).Str("status", string(o.Status)).Msg("order status changed")
	writeJSON(w, http.StatusOK, o)
}

func (s *Server) handleAdminExportOrders(w http.ResponseWriter, r *http.Request) {
	list, err := s.orders.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := export.WriteOrdersXLSX(&buf, list); err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="orders.xlsx"`)
	_, _ = w.Write(buf.Bytes())
}
