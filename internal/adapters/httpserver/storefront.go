package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/phenrril/eshop/internal/domain"
	"github.com/phenrril/eshop/internal/usecase"
)

type productView struct {
	Type        domain.ProductType `json:"type"`
	Title       string             `json:"title"`
	Slug        string             `json:"slug"`
	URL         string             `json:"url"`
	Image       string             `json:"image"`
	Description string             `json:"description,omitempty"`
	Price       decimal.Decimal    `json:"price"`
	Specs       []domain.Spec      `json:"specs,omitempty"`
}

func toProductView(p domain.Product, withSpecs bool) productView {
	b := p.Base()
	v := productView{
		Type:        p.Type(),
		Title:       b.Title,
		Slug:        b.Slug,
		URL:         domain.ProductURL(p),
		Image:       b.Image,
		Description: b.Description,
		Price:       b.Price,
	}
	if withSpecs {
		v.Specs = p.Specs()
	}
	return v
}

func toProductViews(list []domain.Product) []productView {
	out := make([]productView, 0, len(list))
	for _, p := range list {
		out = append(out, toProductView(p, false))
	}
	return out
}

// pageContext returns the parts every storefront page shares: the sidebar
// and the visitor's cart.
func (s *Server) pageContext(r *http.Request) (map[string]any, error) {
	cats, err := s.catalog.SidebarCategories(r.Context())
	if err != nil {
		return nil, err
	}
	cart, err := s.carts.Snapshot(r.Context(), cartFrom(r).ID)
	if err != nil {
		return nil, err
	}
	return map[string]any{"categories": cats, "cart": cart, "authenticated": visitorFrom(r).Authenticated()}, nil
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	data, err := s.pageContext(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	latest, err := s.catalog.Latest(r.Context(), domain.ProductTypeDress, domain.ProductTypeDress, domain.ProductTypeSkirt)
	if err != nil {
		writeError(w, r, err)
		return
	}
	data["products"] = toProductViews(latest)
	writeJSON(w, http.StatusOK, data)
}

func (s *Server) handleCategory(w http.ResponseWriter, r *http.Request) {
	cat, list, err := s.catalog.CategoryDetail(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	data, err := s.pageContext(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	data["category"] = cat
	data["products"] = toProductViews(list)
	writeJSON(w, http.StatusOK, data)
}

// productTag reads the {tag} URL parameter. A tag the catalog does not know
// is a missing page.
func productTag(r *http.Request) (domain.ProductType, bool) {
	return domain.ParseProductType(chi.URLParam(r, "tag"))
}

func (s *Server) handleProduct(w http.ResponseWriter, r *http.Request) {
	tag, ok := productTag(r)
	if !ok {
		writeError(w, r, domain.ErrNotFound)
		return
	}
	p, err := s.catalog.ProductBySlug(r.Context(), tag, chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	data, err := s.pageContext(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	data["product"] = toProductView(p, true)
	writeJSON(w, http.StatusOK, data)
}

func (s *Server) handleCart(w http.ResponseWriter, r *http.Request) {
	data, err := s.pageContext(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	data, err := s.pageContext(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	data["buying_types"] = []domain.BuyingType{domain.BuyingTypeSelf, domain.BuyingTypeDelivery}
	writeJSON(w, http.StatusOK, data)
}

// mutate runs a line-item mutation against the request cart and answers
// with the fresh cart snapshot.
func (s *Server) mutate(w http.ResponseWriter, r *http.Request, msg string, fn func(*domain.Cart, domain.ProductType, string) error) {
	tag, ok := productTag(r)
	if !ok {
		writeError(w, r, domain.ErrNotFound)
		return
	}
	cart := cartFrom(r)
	if err := fn(cart, tag, chi.URLParam(r, "slug")); err != nil {
		writeError(w, r, err)
		return
	}
	view, err := s.carts.Snapshot(r.Context(), cart.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cart": view, "message": msg})
}

func (s *Server) handleAddToCart(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, "Product added", func(c *domain.Cart, tag domain.ProductType, slug string) error {
		return s.carts.Add(r.Context(), c, tag, slug)
	})
}

func (s *Server) handleRemoveFromCart(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, "Product removed", func(c *domain.Cart, tag domain.ProductType, slug string) error {
		return s.carts.Remove(r.Context(), c, tag, slug)
	})
}

func (s *Server) handleChangeQty(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, "Quantity updated", func(c *domain.Cart, tag domain.ProductType, slug string) error {
		qty, err := usecase.ParseQuantity(r.FormValue("qty"))
		if err != nil {
			return err
		}
		return s.carts.ChangeQty(r.Context(), c, tag, slug, qty)
	})
}

func orderFormFrom(r *http.Request) domain.OrderForm {
	return domain.OrderForm{
		FirstName:  r.PostFormValue("first_name"),
		LastName:   r.PostFormValue("last_name"),
		Phone:      r.PostFormValue("phone"),
		Address:    r.PostFormValue("address"),
		BuyingType: r.PostFormValue("buying_type"),
		OrderDate:  r.PostFormValue("order_date"),
		Comment:    r.PostFormValue("comment"),
	}
}

func (s *Server) handleMakeOrder(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "form"})
		return
	}
	o, err := s.orders.PlaceOrder(r.Context(), visitorFrom(r), orderFormFrom(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	log.Info().Str("order_id", o.ID.String()).Msg("checkout completed")
	writeJSON(w, http.StatusCreated, map[string]any{"order": o, "message": "Thank you for your order"})
}

func (s *Server) handleMyOrders(w http.ResponseWriter, r *http.Request) {
	list, err := s.orders.CustomerOrders(r.Context(), visitorFrom(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": list})
}
