package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appbilling "github.com/retailpos/backend/internal/application/billing"
	catalogapp "github.com/retailpos/backend/internal/application/catalog"
	identityapp "github.com/retailpos/backend/internal/application/identity"
	partnerapp "github.com/retailpos/backend/internal/application/partner"
	salesapp "github.com/retailpos/backend/internal/application/sales"
)

// Seeder creates a dataset through the application services, so every record
// goes through the same rules as an API request.
type Seeder struct {
	Auth         *identityapp.AuthService
	Companies    *identityapp.CompanyService
	Users        *identityapp.UserService
	Products     *catalogapp.ProductService
	Customers    *partnerapp.CustomerService
	Sales        *salesapp.SaleService
	Installments *appbilling.InstallmentService

	// Validate checks request structs against their binding tags
	Validate func(any) error
	Logger   *zap.Logger
	Now      func() time.Time
}

// Summary counts what a run created
type Summary struct {
	TenantID  uuid.UUID
	AdminID   uuid.UUID
	Users     int
	Products  int
	Customers int
	Sales     int
	Payments  int
}

func (s *Seeder) check(req any) error {
	if s.Validate == nil {
		return nil
	}
	return s.Validate(req)
}

// Run creates the company first and stops at the first failure. Records
// created before the failure are kept.
func (s *Seeder) Run(ctx context.Context, ds *Dataset) (*Summary, error) {
	if s.Now == nil {
		s.Now = time.Now
	}
	if s.Logger == nil {
		s.Logger = zap.NewNop()
	}

	register := identityapp.RegisterRequest{
		CompanyName:     ds.Company.Name,
		CompanyDocument: ds.Company.Document,
		Username:        ds.Admin.Username,
		Password:        ds.Admin.Password,
		Name:            ds.Admin.Name,
		Email:           ds.Admin.Email,
	}
	if err := s.check(register); err != nil {
		return nil, fmt.Errorf("company: %w", err)
	}
	registered, err := s.Auth.Register(ctx, register)
	if err != nil {
		return nil, fmt.Errorf("register company: %w", err)
	}
	sum := &Summary{TenantID: registered.User.TenantID, AdminID: registered.User.ID}
	s.Logger.Info("Company registered",
		zap.String("tenant_id", sum.TenantID.String()),
		zap.String("name", ds.Company.Name))

	if update := companySettings(ds.Company); update != nil {
		if err := s.check(*update); err != nil {
			return nil, fmt.Errorf("company settings: %w", err)
		}
		if _, err := s.Companies.Update(ctx, sum.TenantID, *update); err != nil {
			return nil, fmt.Errorf("company settings: %w", err)
		}
	}

	sellers := map[string]uuid.UUID{ds.Admin.Username: sum.AdminID}
	for _, u := range ds.Users {
		req := identityapp.CreateUserRequest{
			Username: u.Username,
			Password: u.Password,
			Name:     u.Name,
			Email:    u.Email,
			Role:     u.Role,
		}
		if err := s.check(req); err != nil {
			return nil, fmt.Errorf("user %s: %w", u.Username, err)
		}
		created, err := s.Users.Create(ctx, sum.TenantID, sum.AdminID, req)
		if err != nil {
			return nil, fmt.Errorf("user %s: %w", u.Username, err)
		}
		sellers[u.Username] = created.ID
		sum.Users++
	}

	products := make(map[string]uuid.UUID, len(ds.Products))
	for _, p := range ds.Products {
		req := catalogapp.CreateProductRequest{
			Code:        p.Code,
			Barcode:     p.Barcode,
			Name:        p.Name,
			Description: p.Description,
			Unit:        p.Unit,
			UnitPrice:   decimalOrZero(p.UnitPrice),
			CostPrice:   decimalOrZero(p.CostPrice),
		}
		req.InitialStock, _ = optionalDecimal(p.InitialStock)
		req.MinStock, _ = optionalDecimal(p.MinStock)
		if err := s.check(req); err != nil {
			return nil, fmt.Errorf("product %s: %w", p.Code, err)
		}
		created, err := s.Products.Create(ctx, sum.TenantID, sum.AdminID, req)
		if err != nil {
			return nil, fmt.Errorf("product %s: %w", p.Code, err)
		}
		products[p.Code] = created.ID
		sum.Products++
	}

	customers := make(map[string]uuid.UUID, len(ds.Customers))
	for _, c := range ds.Customers {
		req := partnerapp.CreateCustomerRequest{
			Name:     c.Name,
			Document: c.Document,
			Email:    c.Email,
			Phone:    c.Phone,
			Address:  c.Address,
			City:     c.City,
			State:    c.State,
			Notes:    c.Notes,
		}
		req.CreditLimit, _ = optionalDecimal(c.CreditLimit)
		if err := s.check(req); err != nil {
			return nil, fmt.Errorf("customer %s: %w", c.Name, err)
		}
		created, err := s.Customers.Create(ctx, sum.TenantID, sum.AdminID, req)
		if err != nil {
			return nil, fmt.Errorf("customer %s: %w", c.Name, err)
		}
		if c.Document != "" {
			customers[c.Document] = created.ID
		}
		sum.Customers++
	}

	for i, sale := range ds.Sales {
		req := s.saleRequest(sale, products, customers)
		if err := s.check(req); err != nil {
			return nil, fmt.Errorf("sale %d: %w", i+1, err)
		}
		seller, ok := sellers[sale.Seller]
		if !ok {
			seller = sum.AdminID
		}
		created, err := s.Sales.CreateSale(ctx, sum.TenantID, seller, req)
		if err != nil {
			return nil, fmt.Errorf("sale %d: %w", i+1, err)
		}
		s.Logger.Debug("Sale created",
			zap.String("sale_number", created.SaleNumber),
			zap.String("total", created.Total.StringFixed(2)))
		sum.Sales++
	}

	for i, p := range ds.Payments {
		req := appbilling.PayDebtRequest{
			Amount: decimalOrZero(p.Amount),
			Method: p.Method,
			Notes:  p.Notes,
		}
		if err := s.check(req); err != nil {
			return nil, fmt.Errorf("payment %d: %w", i+1, err)
		}
		if _, err := s.Installments.PayCustomerDebt(ctx, sum.TenantID, sum.AdminID, customers[p.Customer], req, ""); err != nil {
			return nil, fmt.Errorf("payment %d: %w", i+1, err)
		}
		sum.Payments++
	}
	return sum, nil
}

func (s *Seeder) saleRequest(sale SaleSeed, products, customers map[string]uuid.UUID) salesapp.CreateSaleRequest {
	req := salesapp.CreateSaleRequest{
		PaymentMethod:    sale.PaymentMethod,
		InstallmentCount: sale.InstallmentCount,
		Notes:            sale.Notes,
	}
	req.Discount, _ = optionalDecimal(sale.Discount)
	if id, ok := customers[sale.Customer]; ok {
		req.CustomerID = &id
	}
	if sale.FirstDueInDays != nil {
		due := s.Now().AddDate(0, 0, *sale.FirstDueInDays)
		req.FirstDueDate = &due
	}
	for _, item := range sale.Items {
		line := salesapp.SaleItemRequest{
			ProductID: products[item.Product],
			Quantity:  decimalOrZero(item.Quantity),
		}
		line.UnitPrice, _ = optionalDecimal(item.UnitPrice)
		req.Items = append(req.Items, line)
	}
	return req
}

// companySettings returns nil when the dataset sets nothing beyond the name
// and document used at registration
func companySettings(c CompanySeed) *identityapp.UpdateCompanyRequest {
	var req identityapp.UpdateCompanyRequest
	set := false
	for _, f := range []struct {
		value string
		dst   **string
	}{
		{c.TradeName, &req.TradeName},
		{c.Email, &req.Email},
		{c.Phone, &req.Phone},
		{c.PixKey, &req.PixKey},
		{c.MerchantCity, &req.MerchantCity},
		{c.Timezone, &req.Timezone},
	} {
		if f.value != "" {
			v := f.value
			*f.dst = &v
			set = true
		}
	}
	if !set {
		return nil
	}
	return &req
}
