package services

import (
	"context"
	"errors"
	"fmt"

	"quotedesk/internal/catalog"
	"quotedesk/internal/domain"
	"quotedesk/internal/repos"
	"quotedesk/internal/validate"
)

var ErrCategoryExists = errors.New("category already exists")

type CatalogService struct {
	Cats     *repos.CategoryRepo
	Prods    *repos.ProductRepo
	Activity *Activity
}

func NewCatalogService(cats *repos.CategoryRepo, prods *repos.ProductRepo, act *Activity) *CatalogService {
	return &CatalogService{Cats: cats, Prods: prods, Activity: act}
}

// Field is one visible column of a product.
type Field struct {
	Name  string
	Value string
}

// ProductView is a search hit as shown to the user. Price stays hidden until revealed.
type ProductView struct {
	Name     string
	SKU      string
	Category string
	Fields   []Field
	HasPrice bool
	Stock    domain.Availability
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.Cats.List(ctx)
}

func (s *CatalogService) CategoryNames(ctx context.Context) ([]string, error) {
	return s.Cats.Names(ctx)
}

func (s *CatalogService) AddCategory(ctx context.Context, user, name string) error {
	name, ok := validate.Category(name)
	if !ok {
		return fmt.Errorf("%w: category names may use letters, digits, spaces and & ( ) . , ' -", ErrInvalidInput)
	}
	if err := s.Cats.Add(ctx, name, user); err != nil {
		switch {
		case errors.Is(err, repos.ErrDuplicate):
			return ErrCategoryExists
		case errors.Is(err, repos.ErrReserved):
			return fmt.Errorf("%w: %q is reserved", ErrInvalidInput, name)
		}
		return err
	}
	s.Activity.Record(ctx, user, "Add Category", name)
	return nil
}

// Search matches q against every column of every category.
func (s *CatalogService) Search(ctx context.Context, q string) ([]ProductView, error) {
	t, err := s.Prods.Search(ctx, q)
	if err != nil {
		return nil, err
	}
	return views(t), nil
}

// Category lists one category's products.
func (s *CatalogService) Category(ctx context.Context, name string) ([]ProductView, error) {
	name, err := s.canonical(ctx, name)
	if err != nil {
		return nil, err
	}
	t, err := s.Prods.Category(ctx, name)
	if err != nil {
		return nil, err
	}
	out := views(t)
	for i := range out {
		out[i].Category = name
	}
	return out, nil
}

// Product finds one product of a category by SKU.
func (s *CatalogService) Product(ctx context.Context, category, sku string) (domain.ProductRow, error) {
	category, err := s.canonical(ctx, category)
	if err != nil {
		return nil, err
	}
	t, err := s.Prods.Category(ctx, category)
	if err != nil {
		return nil, err
	}
	row, ok := catalog.Lookup(t, catalog.SKUColumns, sku)
	if !ok {
		return nil, fmt.Errorf("product %s/%s: %w", category, sku, repos.ErrNotFound)
	}
	row[domain.CategoryColumn] = category
	return row, nil
}

// RevealPrice returns the price cell of a product.
func (s *CatalogService) RevealPrice(ctx context.Context, user, category, sku string) (string, error) {
	row, err := s.Product(ctx, category, sku)
	if err != nil {
		return "", err
	}
	price := row.Get(catalog.PriceColumns...)
	if price == "" {
		return "", fmt.Errorf("product %s/%s has no price: %w", category, sku, repos.ErrNotFound)
	}
	s.Activity.Record(ctx, user, "View Price", category+"/"+sku)
	return price, nil
}

func (s *CatalogService) canonical(ctx context.Context, name string) (string, error) {
	canon, ok, err := s.Cats.Resolve(ctx, name)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("category %q: %w", name, repos.ErrNotFound)
	}
	return canon, nil
}

func views(t domain.Table) []ProductView {
	out := make([]ProductView, 0, t.Len())
	for _, rec := range t.Records() {
		row := domain.ProductRow(rec)
		v := ProductView{
			Name:     row.Get(catalog.NameColumns...),
			SKU:      row.Get(catalog.SKUColumns...),
			Category: row.Category(),
			HasPrice: row.Get(catalog.PriceColumns...) != "",
			Stock:    catalog.StockStatus(row.Get(catalog.StockColumns...)),
		}
		if v.Name == "" {
			v.Name = "Item"
		}
		for _, h := range t.Headers {
			if h == "" || catalog.HiddenColumns[h] {
				continue
			}
			v.Fields = append(v.Fields, Field{Name: h, Value: rec[h]})
		}
		out = append(out, v)
	}
	return out
}
