package store

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"
)

// RefreshProducts loads the first catalog page. On failure the previous
// catalog stays.
func (s *Store) RefreshProducts(ctx context.Context) {
	page, err := s.api.Products(ctx, 0, s.pageSize)
	if err != nil {
		s.log.Error("fetch products failed", zap.Error(err))
		return
	}

	products := make([]Product, 0, len(page.Content))
	for _, p := range page.Content {
		product := ProductFromWire(p)
		if product.Category == CategoryUnknown {
			s.log.Warn("product has an unknown category",
				zap.String("id", p.ID), zap.String("category", p.CategoryID))
		}
		products = append(products, product)
	}

	s.mu.Lock()
	s.products = products
	s.mu.Unlock()
}

func (s *Store) AddProduct(ctx context.Context, d ProductDraft) error {
	if _, err := s.api.CreateProduct(ctx, ProductToWire(d)); err != nil {
		s.log.Error("create product failed", zap.String("name", d.Name), zap.Error(err))
		return fmt.Errorf("add product: %w", err)
	}
	s.RefreshProducts(ctx)
	return nil
}

// UpdateProduct saves the draft over the product with d.ID.
func (s *Store) UpdateProduct(ctx context.Context, d ProductDraft) error {
	if _, err := s.api.UpdateProduct(ctx, d.ID, ProductToWire(d)); err != nil {
		s.log.Error("update product failed", zap.String("id", d.ID), zap.Error(err))
		return fmt.Errorf("update product: %w", err)
	}
	s.RefreshProducts(ctx)
	return nil
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	if err := s.api.DeleteProduct(ctx, id); err != nil {
		s.log.Error("delete product failed", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("delete product: %w", err)
	}
	s.RefreshProducts(ctx)
	return nil
}

// UploadImage sends the file and returns the URL it is served from.
func (s *Store) UploadImage(ctx context.Context, filename string, r io.Reader) (string, error) {
	url, err := s.api.Upload(ctx, filename, r)
	if err != nil {
		s.log.Error("upload failed", zap.String("file", filename), zap.Error(err))
		return "", fmt.Errorf("upload image: %w", err)
	}
	return url, nil
}
