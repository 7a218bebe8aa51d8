package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/phenrril/eshop/internal/domain"
)

// LatestPerType is how many of the newest products of each type the home
// page shows.
const LatestPerType = 5

// ImageEncoder turns an uploaded image into the stored representation.
type ImageEncoder func(r io.Reader) ([]byte, error)

type CatalogUC struct {
	Categories domain.CategoryRepo
	Products   map[domain.ProductType]domain.ProductRepo
	Storage    domain.FileStorage
	Encode     ImageEncoder
}

func NewCatalogUC(cats domain.CategoryRepo, storage domain.FileStorage, encode ImageEncoder, repos ...domain.ProductRepo) *CatalogUC {
	m := make(map[domain.ProductType]domain.ProductRepo, len(repos))
	for _, r := range repos {
		m[r.Type()] = r
	}
	return &CatalogUC{Categories: cats, Products: m, Storage: storage, Encode: encode}
}

// Repo returns the repository registered for tag. An unknown tag is a wiring
// bug, not bad user input.
func (uc *CatalogUC) Repo(tag domain.ProductType) (domain.ProductRepo, error) {
	r, ok := uc.Products[tag]
	if !ok {
		return nil, fmt.Errorf("%w: unknown product type %q", domain.ErrConfiguration, tag)
	}
	return r, nil
}

func (uc *CatalogUC) ProductBySlug(ctx context.Context, tag domain.ProductType, slug string) (domain.Product, error) {
	repo, err := uc.Repo(tag)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(slug) == "" {
		return nil, domain.ErrNotFound
	}
	p, err := repo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("%s %q: %w", tag, slug, err)
	}
	return p, nil
}

func (uc *CatalogUC) ProductByRef(ctx context.Context, ref domain.ProductRef) (domain.Product, error) {
	repo, err := uc.Repo(ref.Type)
	if err != nil {
		return nil, err
	}
	return repo.FindByID(ctx, ref.ID)
}

// CategoryProductType resolves a category slug to the category and the
// product family it holds.
func (uc *CatalogUC) CategoryProductType(ctx context.Context, slug string) (*domain.Category, domain.ProductType, error) {
	c, err := uc.Categories.FindBySlug(ctx, slug)
	if err != nil {
		return nil, "", fmt.Errorf("category %q: %w", slug, err)
	}
	tag, ok := domain.ProductTypeForCategory(c.Slug)
	if !ok {
		return nil, "", fmt.Errorf("%w: category %q has no product type", domain.ErrConfiguration, c.Slug)
	}
	if _, err := uc.Repo(tag); err != nil {
		return nil, "", err
	}
	return c, tag, nil
}

func (uc *CatalogUC) CategoryDetail(ctx context.Context, slug string) (*domain.Category, []domain.Product, error) {
	c, tag, err := uc.CategoryProductType(ctx, slug)
	if err != nil {
		return nil, nil, err
	}
	list, err := uc.Products[tag].ListByCategory(ctx, c.ID)
	if err != nil {
		return nil, nil, err
	}
	return c, list, nil
}

// SidebarCategories lists every category with the number of products it holds.
func (uc *CatalogUC) SidebarCategories(ctx context.Context) ([]domain.CategoryCount, error) {
	cats, err := uc.Categories.List(ctx)
	if err != nil {
		return nil, err
	}
	counts := map[uuid.UUID]int64{}
	for _, repo := range uc.Products {
		m, err := repo.CountByCategory(ctx)
		if err != nil {
			return nil, err
		}
		for id, n := range m {
			counts[id] += n
		}
	}
	out := make([]domain.CategoryCount, 0, len(cats))
	for _, c := range cats {
		out = append(out, domain.CategoryCount{Name: c.Name, Slug: c.Slug, URL: "/category/" + c.Slug, Count: counts[c.ID]})
	}
	return out, nil
}

// Latest takes the newest LatestPerType products of every tag, in tag order,
// and moves products of the primary type to the front. An empty primary
// leaves the concatenation untouched.
func (uc *CatalogUC) Latest(ctx context.Context, primary domain.ProductType, tags ...domain.ProductType) ([]domain.Product, error) {
	groups := make([][]domain.Product, 0, len(tags))
	for _, tag := range tags {
		repo, err := uc.Repo(tag)
		if err != nil {
			return nil, err
		}
		list, err := repo.Latest(ctx, LatestPerType)
		if err != nil {
			return nil, err
		}
		groups = append(groups, list)
	}
	return MergeLatest(groups, primary), nil
}

// MergeLatest concatenates groups and stable-partitions the result so that
// products of type primary come first.
func MergeLatest(groups [][]domain.Product, primary domain.ProductType) []domain.Product {
	var out []domain.Product
	for _, g := range groups {
		out = append(out, g...)
	}
	if primary == "" {
		return out
	}
	slices.SortStableFunc(out, func(a, b domain.Product) int {
		ap, bp := a.Type() == primary, b.Type() == primary
		switch {
		case ap && !bp:
			return -1
		case !ap && bp:
			return 1
		}
		return 0
	})
	return out
}

func (uc *CatalogUC) CreateCategory(ctx context.Context, c *domain.Category) error {
	verr := &domain.ValidationError{Fields: map[string]string{}}
	if strings.TrimSpace(c.Name) == "" {
		verr.Fields["name"] = "required"
	}
	if strings.TrimSpace(c.Slug) == "" {
		verr.Fields["slug"] = "required"
	}
	if len(verr.Fields) > 0 {
		return verr
	}
	if _, err := uc.Categories.FindBySlug(ctx, strings.ToLower(c.Slug)); err == nil {
		return domain.NewValidationError("slug", "already exists")
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return uc.Categories.Save(ctx, c)
}

// CreateProduct stores p after checking that its category belongs to p's
// family and that its slug is free. The image, when given, is re-encoded and
// stored as "<tag>/<uuid>.jpg".
func (uc *CatalogUC) CreateProduct(ctx context.Context, p domain.Product, image io.Reader) error {
	repo, err := uc.Repo(p.Type())
	if err != nil {
		return err
	}
	if err := domain.ValidateProduct(p); err != nil {
		return err
	}
	b := p.Base()
	c, err := uc.Categories.FindByID(ctx, b.CategoryID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NewValidationError("category", "unknown category")
		}
		return err
	}
	if tag, ok := domain.ProductTypeForCategory(c.Slug); !ok || tag != p.Type() {
		return domain.NewValidationError("category", fmt.Sprintf("category %q does not hold %s products", c.Slug, p.Type()))
	}
	b.Slug = strings.ToLower(strings.TrimSpace(b.Slug))
	if _, err := repo.FindBySlug(ctx, b.Slug); err == nil {
		return domain.NewValidationError("slug", "already exists")
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	if image != nil {
		if uc.Storage == nil || uc.Encode == nil {
			return fmt.Errorf("%w: image storage not configured", domain.ErrConfiguration)
		}
		data, err := uc.Encode(image)
		if err != nil {
			return domain.NewValidationError("image", err.Error())
		}
		// Unique per upload; the cleanup below may only remove this file.
		name := string(p.Type()) + "/" + uuid.NewString() + ".jpg"
		url, err := uc.Storage.Save(ctx, name, bytes.NewReader(data))
		if err != nil {
			return err
		}
		b.Image = url
	}

	if err := repo.Save(ctx, p); err != nil {
		if b.Image != "" && image != nil {
			if derr := uc.Storage.Delete(ctx, b.Image); derr != nil {
				log.Warn().Err(derr).Str("image", b.Image).Msg("remove orphan image")
			}
		}
		return err
	}
	return nil
}
