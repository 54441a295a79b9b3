package handlers

import (
	"context"

	"github.com/mamadbah2/salonpos/internal/domain/models"
)

// ProductCatalog reads products from the backend.
type ProductCatalog interface {
	ListProducts(ctx context.Context, search string, page int) (*models.ProductPage, error)
	GetProduct(ctx context.Context, productID int64) (*models.Product, error)
}
