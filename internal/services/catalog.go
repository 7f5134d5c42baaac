package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/lojinha/apiserver/internal/events"
	"github.com/lojinha/apiserver/internal/media"
	"github.com/lojinha/apiserver/types"
)

// ErrImageRequired is returned when a product is created without an image
// file or image URL.
var ErrImageRequired = errors.New("an image file or image URL is required")

// ErrImageUpload is returned when the external media host rejects an upload.
// The wrapped cause is preserved for logs.
var ErrImageUpload = errors.New("image upload failed")

// ProductRepository defines persistence operations for products.
type ProductRepository interface {
	List(ctx context.Context) ([]types.Product, error)
	Get(ctx context.Context, id int) (types.Product, error)
	Create(ctx context.Context, product types.Product) (types.Product, error)
	Update(ctx context.Context, product types.Product) (types.Product, error)
	Delete(ctx context.Context, id int) error
}

// ImageSource is either a direct URL or raw image bytes to upload. A direct
// URL takes precedence when both are supplied.
type ImageSource struct {
	URL         string
	Filename    string
	ContentType string
	Data        []byte
}

// CreateProduct is the input for CatalogService.Create.
type CreateProduct struct {
	Name        string
	Price       float64
	Description string
	Image       ImageSource
}

// UpdateProduct is the input for CatalogService.Update. Nil fields are left
// untouched on the stored record.
type UpdateProduct struct {
	Name        *string
	Price       *float64
	Description *string
	Image       *ImageSource
}

// CatalogService encapsulates product use-cases: image resolution against the
// media host, partial-update merging, and change-event publishing.
type CatalogService struct {
	repo      ProductRepository
	media     media.Uploader
	publisher *events.Publisher
}

// NewCatalogService constructs a CatalogService. uploader may be nil when no
// media backend is configured; publisher may be nil when events are disabled.
func NewCatalogService(repo ProductRepository, uploader media.Uploader, publisher *events.Publisher) *CatalogService {
	return &CatalogService{
		repo:      repo,
		media:     uploader,
		publisher: publisher,
	}
}

func (s *CatalogService) List(ctx context.Context) ([]types.Product, error) {
	return s.repo.List(ctx)
}

func (s *CatalogService) Get(ctx context.Context, id int) (types.Product, error) {
	return s.repo.Get(ctx, id)
}

// Create resolves the image to a public URL, then persists the product.
// Nothing is written when image resolution fails.
func (s *CatalogService) Create(ctx context.Context, req CreateProduct) (types.Product, error) {
	imageURL, err := s.resolveImageURL(ctx, req.Image)
	if err != nil {
		return types.Product{}, err
	}

	created, err := s.repo.Create(ctx, types.Product{
		Name:        req.Name,
		Price:       req.Price,
		ImageURL:    imageURL,
		Description: req.Description,
	})
	if err != nil {
		return types.Product{}, err
	}

	s.publish(ctx, events.ProductCreated, created.ID)
	return created, nil
}

// Update merges only the supplied fields into the stored product. A new
// image is uploaded before any persistence write, so an upload failure
// leaves the record untouched.
func (s *CatalogService) Update(ctx context.Context, id int, req UpdateProduct) (types.Product, error) {
	product, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.Product{}, err
	}

	if req.Image != nil {
		imageURL, err := s.resolveImageURL(ctx, *req.Image)
		if err != nil {
			return types.Product{}, err
		}
		product.ImageURL = imageURL
	}
	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.Description != nil {
		product.Description = *req.Description
	}

	updated, err := s.repo.Update(ctx, product)
	if err != nil {
		return types.Product{}, err
	}

	s.publish(ctx, events.ProductUpdated, updated.ID)
	return updated, nil
}

func (s *CatalogService) Delete(ctx context.Context, id int) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.publish(ctx, events.ProductDeleted, id)
	return nil
}

func (s *CatalogService) resolveImageURL(ctx context.Context, image ImageSource) (string, error) {
	if image.URL != "" {
		return image.URL, nil
	}
	if len(image.Data) == 0 {
		return "", ErrImageRequired
	}
	if s.media == nil {
		return "", fmt.Errorf("%w: media storage is not configured", ErrImageUpload)
	}

	url, err := s.media.Upload(ctx, image.Filename, image.ContentType, bytes.NewReader(image.Data), int64(len(image.Data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrImageUpload, err)
	}
	return url, nil
}

func (s *CatalogService) publish(ctx context.Context, eventType string, productID int) {
	if s.publisher == nil {
		return
	}
	if _, err := s.publisher.ProductChanged(ctx, eventType, productID); err != nil {
		log.Printf("failed to publish %s event for product %d: %v", eventType, productID, err)
	}
}
