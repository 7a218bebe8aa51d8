package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/phenrril/eshop/internal/domain"
)

// ProductRepo stores one product variant in its own table. T is the variant
// struct and PT its pointer, which is what implements domain.Product.
type ProductRepo[T any, PT interface {
	*T
	domain.Product
}] struct {
	db  *gorm.DB
	tag domain.ProductType
}

func newProductRepo[T any, PT interface {
	*T
	domain.Product
}](db *gorm.DB) *ProductRepo[T, PT] {
	var zero T
	return &ProductRepo[T, PT]{db: db, tag: PT(&zero).Type()}
}

func NewDressRepo(db *gorm.DB) *ProductRepo[domain.Dress, *domain.Dress] {
	return newProductRepo[domain.Dress, *domain.Dress](db)
}

func NewSkirtRepo(db *gorm.DB) *ProductRepo[domain.Skirt, *domain.Skirt] {
	return newProductRepo[domain.Skirt, *domain.Skirt](db)
}

func (r *ProductRepo[T, PT]) Type() domain.ProductType { return r.tag }

func (r *ProductRepo[T, PT]) FindBySlug(ctx context.Context, slug string) (domain.Product, error) {
	var p T
	if err := r.db.WithContext(ctx).First(&p, "slug = ?", strings.TrimSpace(slug)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return PT(&p), nil
}

func (r *ProductRepo[T, PT]) FindByID(ctx context.Context, id uuid.UUID) (domain.Product, error) {
	var p T
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return PT(&p), nil
}

// Latest returns the newest products first.
func (r *ProductRepo[T, PT]) Latest(ctx context.Context, limit int) ([]domain.Product, error) {
	var list []T
	q := r.db.WithContext(ctx).Order("created_at desc").Order("id desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&list).Error; err != nil {
		return nil, err
	}
	return wrap[T, PT](list), nil
}

func (r *ProductRepo[T, PT]) ListByCategory(ctx context.Context, categoryID uuid.UUID) ([]domain.Product, error) {
	var list []T
	if err := r.db.WithContext(ctx).Where("category_id = ?", categoryID).Order("created_at desc").Order("id desc").Find(&list).Error; err != nil {
		return nil, err
	}
	return wrap[T, PT](list), nil
}

func (r *ProductRepo[T, PT]) CountByCategory(ctx context.Context) (map[uuid.UUID]int64, error) {
	var rows []struct {
		CategoryID uuid.UUID
		N          int64
	}
	if err := r.db.WithContext(ctx).Model(new(T)).Select("category_id, count(*) as n").Group("category_id").Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]int64, len(rows))
	for _, row := range rows {
		out[row.CategoryID] = row.N
	}
	return out, nil
}

func (r *ProductRepo[T, PT]) Save(ctx context.Context, p domain.Product) error {
	typed, ok := p.(PT)
	if !ok {
		return fmt.Errorf("%w: %s repo cannot store %T", domain.ErrConfiguration, r.tag, p)
	}
	if err := domain.ValidateProduct(p); err != nil {
		return err
	}
	b := p.Base()
	b.Slug = strings.ToLower(strings.TrimSpace(b.Slug))
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
		return r.db.WithContext(ctx).Create(typed).Error
	}
	return r.db.WithContext(ctx).Save(typed).Error
}

func wrap[T any, PT interface {
	*T
	domain.Product
}](list []T) []domain.Product {
	out := make([]domain.Product, 0, len(list))
	for i := range list {
		out = append(out, PT(&list[i]))
	}
	return out
}
