// Package catalog manages the product catalog and manual stock adjustments.
package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/catalog"
	"github.com/retailpos/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ProductService handles product-related business operations
type ProductService struct {
	productRepo catalog.ProductRepository
	logger      *zap.Logger
}

// NewProductService creates a new ProductService
func NewProductService(productRepo catalog.ProductRepository, logger *zap.Logger) *ProductService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductService{productRepo: productRepo, logger: logger}
}

// Create creates a new product
func (s *ProductService) Create(ctx context.Context, tenantID, userID uuid.UUID, req CreateProductRequest) (*ProductResponse, error) {
	exists, err := s.productRepo.ExistsByCode(ctx, tenantID, strings.ToUpper(strings.TrimSpace(req.Code)))
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Product with this code already exists")
	}
	if req.Barcode != "" {
		if err := s.ensureBarcodeFree(ctx, tenantID, req.Barcode, uuid.Nil); err != nil {
			return nil, err
		}
	}

	product, err := catalog.NewProduct(tenantID, req.Code, req.Name, req.Unit, req.UnitPrice, req.CostPrice)
	if err != nil {
		return nil, err
	}
	product.SetCreatedBy(userID)
	if req.Description != "" {
		if err := product.Update(req.Name, req.Description, req.Unit); err != nil {
			return nil, err
		}
	}
	if err := product.SetBarcode(req.Barcode); err != nil {
		return nil, err
	}
	if req.MinStock != nil {
		if err := product.SetMinStock(*req.MinStock); err != nil {
			return nil, err
		}
	}
	if req.InitialStock != nil {
		if err := product.AdjustStock(*req.InitialStock); err != nil {
			return nil, shared.NewDomainError("INVALID_QUANTITY", "Initial stock cannot be negative")
		}
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	resp := ToProductResponse(product)
	return &resp, nil
}

// GetByID retrieves a product by ID
func (s *ProductService) GetByID(ctx context.Context, tenantID, productID uuid.UUID) (*ProductResponse, error) {
	product, err := s.productRepo.FindByIDForTenant(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}
	resp := ToProductResponse(product)
	return &resp, nil
}

// GetByBarcode looks a product up by its scanned barcode
func (s *ProductService) GetByBarcode(ctx context.Context, tenantID uuid.UUID, barcode string) (*ProductResponse, error) {
	product, err := s.productRepo.FindByBarcode(ctx, tenantID, barcode)
	if err != nil {
		return nil, err
	}
	resp := ToProductResponse(product)
	return &resp, nil
}

// List retrieves products with filtering and pagination
func (s *ProductService) List(ctx context.Context, tenantID uuid.UUID, filter ProductListFilter) ([]ProductResponse, int64, error) {
	domainFilter := catalog.ProductFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			OrderBy:  filter.OrderBy,
			OrderDir: filter.OrderDir,
			Search:   filter.Search,
		}.Normalize(),
		Active: filter.Active,
	}
	if filter.OrderBy == "" {
		domainFilter.OrderBy = "name"
		domainFilter.OrderDir = "asc"
	}
	return s.list(ctx, tenantID, domainFilter)
}

// ListLowStock lists active products at or below their minimum stock
func (s *ProductService) ListLowStock(ctx context.Context, tenantID uuid.UUID, page, pageSize int) ([]ProductResponse, int64, error) {
	active := true
	domainFilter := catalog.ProductFilter{
		Filter: shared.Filter{
			Page:     page,
			PageSize: pageSize,
			OrderBy:  "stock_quantity",
			OrderDir: "asc",
		}.Normalize(),
		Active:   &active,
		LowStock: true,
	}
	return s.list(ctx, tenantID, domainFilter)
}

func (s *ProductService) list(ctx context.Context, tenantID uuid.UUID, filter catalog.ProductFilter) ([]ProductResponse, int64, error) {
	products, err := s.productRepo.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.productRepo.CountForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	return ToProductResponses(products), total, nil
}

// Update changes descriptive fields, barcode, minimum stock and activation
func (s *ProductService) Update(ctx context.Context, tenantID, productID uuid.UUID, req UpdateProductRequest) (*ProductResponse, error) {
	product, err := s.productRepo.FindByIDForTenant(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}

	name, description, unit := product.Name, product.Description, product.Unit
	if req.Name != nil {
		name = *req.Name
	}
	if req.Description != nil {
		description = *req.Description
	}
	if req.Unit != nil {
		unit = *req.Unit
	}
	if err := product.Update(name, description, unit); err != nil {
		return nil, err
	}
	if req.Barcode != nil && *req.Barcode != product.Barcode {
		if *req.Barcode != "" {
			if err := s.ensureBarcodeFree(ctx, tenantID, *req.Barcode, product.ID); err != nil {
				return nil, err
			}
		}
		if err := product.SetBarcode(*req.Barcode); err != nil {
			return nil, err
		}
	}
	if req.MinStock != nil {
		if err := product.SetMinStock(*req.MinStock); err != nil {
			return nil, err
		}
	}
	if req.Active != nil {
		if *req.Active {
			product.Activate()
		} else {
			product.Deactivate()
		}
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	resp := ToProductResponse(product)
	return &resp, nil
}

// UpdatePrices replaces the selling and cost price. Completed sales keep
// the prices captured when they were made.
func (s *ProductService) UpdatePrices(ctx context.Context, tenantID, productID uuid.UUID, req UpdatePricesRequest) (*ProductResponse, error) {
	product, err := s.productRepo.FindByIDForTenant(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}
	oldPrice := product.UnitPrice
	if err := product.SetPrices(req.UnitPrice, req.CostPrice); err != nil {
		return nil, err
	}
	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	s.logger.Info("Product prices updated",
		zap.String("tenant_id", tenantID.String()),
		zap.String("product_code", product.Code),
		zap.String("old_price", oldPrice.StringFixed(2)),
		zap.String("new_price", product.UnitPrice.StringFixed(2)))
	resp := ToProductResponse(product)
	return &resp, nil
}

// AdjustStock applies a manual stock correction. Stock may not go below zero.
func (s *ProductService) AdjustStock(ctx context.Context, tenantID, productID uuid.UUID, req AdjustStockRequest) (*ProductResponse, error) {
	if req.Delta.IsZero() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Stock adjustment cannot be zero")
	}
	product, err := s.productRepo.FindByIDForTenant(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}
	if err := product.AdjustStock(req.Delta); err != nil {
		return nil, err
	}
	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	s.logger.Info("Stock adjusted",
		zap.String("tenant_id", tenantID.String()),
		zap.String("product_code", product.Code),
		zap.String("delta", req.Delta.String()),
		zap.String("reason", req.Reason))
	resp := ToProductResponse(product)
	return &resp, nil
}

// Delete soft deletes a product. Past sales keep referencing it.
func (s *ProductService) Delete(ctx context.Context, tenantID, productID uuid.UUID) error {
	product, err := s.productRepo.FindByIDForTenant(ctx, tenantID, productID)
	if err != nil {
		return err
	}
	product.SoftDelete()
	return s.productRepo.Save(ctx, product)
}

func (s *ProductService) ensureBarcodeFree(ctx context.Context, tenantID uuid.UUID, barcode string, self uuid.UUID) error {
	existing, err := s.productRepo.FindByBarcode(ctx, tenantID, barcode)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		return err
	}
	if existing.ID != self {
		return shared.NewDomainError("ALREADY_EXISTS", "Product with this barcode already exists")
	}
	return nil
}
