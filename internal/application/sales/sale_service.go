// Package sales rings up and cancels sales. A sale, its stock movement and,
// for store credit, its installment plan are written in one transaction.
package sales

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	appbilling "github.com/retailpos/backend/internal/application/billing"
	appshared "github.com/retailpos/backend/internal/application/shared"
	"github.com/retailpos/backend/internal/domain/billing"
	"github.com/retailpos/backend/internal/domain/catalog"
	"github.com/retailpos/backend/internal/domain/partner"
	"github.com/retailpos/backend/internal/domain/sales"
	"github.com/retailpos/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// SaleService handles sale operations
type SaleService struct {
	saleRepo        sales.SaleRepository
	installmentRepo billing.InstallmentRepository
	txScope         appshared.TransactionScope
	eventPublisher  shared.EventPublisher
	locations       appshared.TenantLocations
	logger          *zap.Logger
	now             func() time.Time
}

// NewSaleService creates a new SaleService
func NewSaleService(
	saleRepo sales.SaleRepository,
	installmentRepo billing.InstallmentRepository,
	txScope appshared.TransactionScope,
	logger *zap.Logger,
) *SaleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SaleService{
		saleRepo:        saleRepo,
		installmentRepo: installmentRepo,
		txScope:         txScope,
		logger:          logger,
		now:             time.Now,
	}
}

// SetEventPublisher sets the event publisher for domain events
func (s *SaleService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetClock overrides the time source
func (s *SaleService) SetClock(now func() time.Time) {
	s.now = now
}

// SetLocations dates sales and due days in the tenant's timezone
func (s *SaleService) SetLocations(locations appshared.TenantLocations) {
	s.locations = locations
}

// CreateSale completes a sale. Stock is decremented for every line and an
// installment sale gets its plan generated from the net total.
func (s *SaleService) CreateSale(ctx context.Context, tenantID, sellerID uuid.UUID, req CreateSaleRequest) (*SaleResponse, error) {
	method := sales.PaymentMethod(req.PaymentMethod)
	if !method.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", fmt.Sprintf("Unknown payment method %q", req.PaymentMethod))
	}
	if len(req.Items) == 0 {
		return nil, shared.NewDomainError("EMPTY_SALE", "Sale must have at least one item")
	}
	now, err := appshared.LocalNow(ctx, s.locations, tenantID, s.now())
	if err != nil {
		return nil, err
	}

	var (
		sale         *sales.Sale
		installments []*billing.Installment
	)
	err = s.txScope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		number, err := repos.Sales().GenerateSaleNumber(ctx, tenantID, now)
		if err != nil {
			return fmt.Errorf("generate sale number: %w", err)
		}
		sale, err = sales.NewSale(tenantID, number, sellerID, method)
		if err != nil {
			return err
		}
		sale.SoldAt = now
		sale.Notes = req.Notes

		var customer *partner.Customer
		if req.CustomerID != nil {
			customer, err = repos.Customers().FindByIDForTenant(ctx, tenantID, *req.CustomerID)
			if err != nil {
				return err
			}
			if method.IsCredit() {
				if err := customer.CanBuyOnCredit(); err != nil {
					return err
				}
			}
			sale.SetCustomer(customer.ID, customer.Name)
		}

		products, err := s.lockProducts(ctx, repos.Products(), tenantID, req.Items)
		if err != nil {
			return err
		}
		touched := make([]*catalog.Product, 0, len(req.Items))
		for _, line := range req.Items {
			p := products[line.ProductID]
			if err := p.CanSell(line.Quantity); err != nil {
				return err
			}
			price := p.UnitPrice
			if line.UnitPrice != nil {
				price = *line.UnitPrice
			}
			if _, err := sale.AddItem(sales.ItemInput{
				ProductID:   p.ID,
				ProductCode: p.Code,
				ProductName: p.Name,
				Quantity:    line.Quantity,
				UnitPrice:   price,
				UnitCost:    p.CostPrice,
			}); err != nil {
				return err
			}
			if err := p.AdjustStock(line.Quantity.Neg()); err != nil {
				return shared.NewDomainError("INSUFFICIENT_STOCK", "Insufficient stock for product "+p.Code)
			}
			touched = append(touched, p)
		}

		if req.Discount != nil {
			if err := sale.ApplyDiscount(*req.Discount); err != nil {
				return err
			}
		}
		if method.IsCredit() {
			if err := sale.PlanInstallments(req.InstallmentCount, req.FirstDueDate); err != nil {
				return err
			}
			if customer != nil {
				debt, err := repos.Installments().CustomerDebt(ctx, tenantID, customer.ID, now)
				if err != nil {
					return fmt.Errorf("load customer debt: %w", err)
				}
				if err := customer.CheckCredit(debt.Outstanding, sale.Total); err != nil {
					return err
				}
			}
		}
		if err := sale.Complete(); err != nil {
			return err
		}

		if err := repos.Sales().Save(ctx, sale); err != nil {
			return err
		}
		if err := repos.Products().SaveBatch(ctx, touched); err != nil {
			return err
		}

		if method.IsCredit() {
			entries, err := sale.Schedule()
			if err != nil {
				return err
			}
			installments, err = billing.InstallmentsFromSchedule(tenantID, sale.ID, *sale.CustomerID, entries)
			if err != nil {
				return err
			}
			for _, inst := range installments {
				inst.SetCreatedBy(sellerID)
			}
			if err := repos.Installments().CreateBatch(ctx, installments); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, sale, installments)
	s.logger.Info("Sale completed",
		zap.String("tenant_id", tenantID.String()),
		zap.String("sale_number", sale.SaleNumber),
		zap.String("payment_method", string(method)),
		zap.String("total", sale.Total.StringFixed(2)),
		zap.Int("installments", len(installments)))

	resp := ToSaleResponse(sale)
	return &resp, nil
}

// GetSale returns a sale by ID
func (s *SaleService) GetSale(ctx context.Context, tenantID, saleID uuid.UUID) (*SaleResponse, error) {
	sale, err := s.saleRepo.FindByIDForTenant(ctx, tenantID, saleID)
	if err != nil {
		return nil, err
	}
	resp := ToSaleResponse(sale)
	return &resp, nil
}

// GetSaleByNumber returns a sale by its human readable number
func (s *SaleService) GetSaleByNumber(ctx context.Context, tenantID uuid.UUID, number string) (*SaleResponse, error) {
	sale, err := s.saleRepo.FindByNumber(ctx, tenantID, number)
	if err != nil {
		return nil, err
	}
	resp := ToSaleResponse(sale)
	return &resp, nil
}

// ListSales returns sales matching the filter
func (s *SaleService) ListSales(ctx context.Context, tenantID uuid.UUID, filter SaleListFilter) ([]SaleListResponse, int64, error) {
	domainFilter := sales.SaleFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			OrderBy:  filter.OrderBy,
			OrderDir: filter.OrderDir,
			Search:   filter.Search,
		}.Normalize(),
		CustomerID: filter.CustomerID,
		SellerID:   filter.SellerID,
		From:       filter.From,
		To:         filter.To,
	}
	if filter.PaymentMethod != "" {
		m := sales.PaymentMethod(filter.PaymentMethod)
		if !m.IsValid() {
			return nil, 0, shared.NewDomainError("INVALID_PAYMENT_METHOD", fmt.Sprintf("Unknown payment method %q", filter.PaymentMethod))
		}
		domainFilter.PaymentMethod = &m
	}
	if filter.Status != "" {
		st := sales.SaleStatus(filter.Status)
		if !st.IsValid() {
			return nil, 0, shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("Unknown sale status %q", filter.Status))
		}
		domainFilter.Status = &st
	}

	list, err := s.saleRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.saleRepo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToSaleListResponses(list), total, nil
}

// GetSaleInstallments returns the installment plan of a sale with live balances
func (s *SaleService) GetSaleInstallments(ctx context.Context, tenantID, saleID uuid.UUID) ([]appbilling.InstallmentResponse, error) {
	if _, err := s.saleRepo.FindByIDForTenant(ctx, tenantID, saleID); err != nil {
		return nil, err
	}
	list, err := s.installmentRepo.FindBySale(ctx, tenantID, saleID)
	if err != nil {
		return nil, err
	}
	now, err := appshared.LocalNow(ctx, s.locations, tenantID, s.now())
	if err != nil {
		return nil, err
	}
	return appbilling.ToInstallmentResponses(list, now), nil
}

// CancelSale voids a sale, returns its items to stock and cancels its open
// installments. A sale with any installment payment cannot be cancelled;
// the payments must be removed first.
func (s *SaleService) CancelSale(ctx context.Context, tenantID, saleID uuid.UUID, req CancelSaleRequest) (*SaleResponse, error) {
	var (
		sale         *sales.Sale
		installments []*billing.Installment
	)
	err := s.txScope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		var err error
		sale, err = repos.Sales().FindByIDForTenant(ctx, tenantID, saleID)
		if err != nil {
			return err
		}
		if sale.IsCancelled() {
			return shared.NewDomainError("INVALID_STATE", "Sale is already cancelled")
		}

		plan, err := repos.Installments().FindBySale(ctx, tenantID, saleID)
		if err != nil {
			return err
		}
		for i := range plan {
			if plan[i].HasPayments() {
				return shared.NewDomainError("SALE_HAS_PAYMENTS",
					"Sale has installment payments; remove them before cancelling")
			}
		}
		for i := range plan {
			inst := &plan[i]
			if inst.IsCancelled() {
				continue
			}
			if err := inst.Cancel(req.Reason); err != nil {
				return err
			}
			installments = append(installments, inst)
		}

		ids := make([]uuid.UUID, len(sale.Items))
		for i, it := range sale.Items {
			ids[i] = it.ProductID
		}
		products, err := repos.Products().FindByIDsForUpdate(ctx, tenantID, ids)
		if err != nil {
			return err
		}
		byID := make(map[uuid.UUID]*catalog.Product, len(products))
		for i := range products {
			byID[products[i].ID] = &products[i]
		}
		restocked := make([]*catalog.Product, 0, len(sale.Items))
		for _, it := range sale.Items {
			p, ok := byID[it.ProductID]
			if !ok {
				// deleted since the sale; nothing to restock
				continue
			}
			if err := p.AdjustStock(it.Quantity); err != nil {
				return err
			}
			restocked = append(restocked, p)
		}

		if err := sale.Cancel(req.Reason); err != nil {
			return err
		}
		if err := repos.Sales().SaveWithLock(ctx, sale); err != nil {
			return err
		}
		if len(restocked) > 0 {
			if err := repos.Products().SaveBatch(ctx, restocked); err != nil {
				return err
			}
		}
		if len(installments) > 0 {
			if err := repos.Installments().SaveBatchWithLock(ctx, installments); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, sale, installments)
	s.logger.Info("Sale cancelled",
		zap.String("tenant_id", tenantID.String()),
		zap.String("sale_number", sale.SaleNumber),
		zap.Int("installments_cancelled", len(installments)))

	resp := ToSaleResponse(sale)
	return &resp, nil
}

func (s *SaleService) lockProducts(ctx context.Context, repo catalog.ProductRepository, tenantID uuid.UUID, items []SaleItemRequest) (map[uuid.UUID]*catalog.Product, error) {
	ids := make([]uuid.UUID, 0, len(items))
	seen := make(map[uuid.UUID]bool, len(items))
	for _, it := range items {
		if seen[it.ProductID] {
			return nil, shared.NewDomainError("DUPLICATE_ITEM", "Product "+it.ProductID.String()+" appears more than once")
		}
		seen[it.ProductID] = true
		ids = append(ids, it.ProductID)
	}
	found, err := repo.FindByIDsForUpdate(ctx, tenantID, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*catalog.Product, len(found))
	for i := range found {
		byID[found[i].ID] = &found[i]
	}
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			return nil, shared.NewDomainError("NOT_FOUND", "Product "+id.String()+" not found")
		}
	}
	return byID, nil
}

func (s *SaleService) publish(ctx context.Context, sale *sales.Sale, installments []*billing.Installment) {
	aggregates := make([]shared.AggregateRoot, 0, len(installments)+1)
	aggregates = append(aggregates, sale)
	for _, inst := range installments {
		aggregates = append(aggregates, inst)
	}
	appshared.PublishPending(ctx, s.eventPublisher, s.logger, aggregates...)
}
