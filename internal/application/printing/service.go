package printing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	appshared "github.com/retailpos/backend/internal/application/shared"
	"github.com/retailpos/backend/internal/domain/billing"
	"github.com/retailpos/backend/internal/domain/identity"
	"github.com/retailpos/backend/internal/domain/partner"
	"github.com/retailpos/backend/internal/domain/sales"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/retailpos/backend/internal/infrastructure/pix"
	infra "github.com/retailpos/backend/internal/infrastructure/printing"
	"go.uber.org/zap"
)

// Document kinds
const (
	KindCarne   = "carne"
	KindReceipt = "receipt"
)

// DefaultDocumentURLTTL is how long a document link stays valid
const DefaultDocumentURLTTL = 24 * time.Hour

// DocumentService renders carnê booklets and sale receipts from live ledger data
type DocumentService struct {
	saleRepo        sales.SaleRepository
	installmentRepo billing.InstallmentRepository
	customerRepo    partner.CustomerRepository
	companyRepo     identity.CompanyRepository
	engine          *infra.TemplateEngine
	renderer        infra.PDFRenderer
	storage         appshared.ObjectStorage
	urlTTL          time.Duration
	logger          *zap.Logger
	now             func() time.Time
}

// NewDocumentService creates a new DocumentService. Without a renderer or a
// storage only HTML previews are available.
func NewDocumentService(
	saleRepo sales.SaleRepository,
	installmentRepo billing.InstallmentRepository,
	customerRepo partner.CustomerRepository,
	companyRepo identity.CompanyRepository,
	engine *infra.TemplateEngine,
	renderer infra.PDFRenderer,
	storage appshared.ObjectStorage,
	logger *zap.Logger,
) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if engine == nil {
		engine = infra.NewTemplateEngine()
	}
	return &DocumentService{
		saleRepo:        saleRepo,
		installmentRepo: installmentRepo,
		customerRepo:    customerRepo,
		companyRepo:     companyRepo,
		engine:          engine,
		renderer:        renderer,
		storage:         storage,
		urlTTL:          DefaultDocumentURLTTL,
		logger:          logger,
		now:             time.Now,
	}
}

// SetClock overrides the time source
func (s *DocumentService) SetClock(now func() time.Time) {
	s.now = now
}

// Carne renders the installment booklet of a credit sale. Each slip shows the
// live balance and, when the company has PIX configured, a copy-and-paste
// payload for the remaining amount.
func (s *DocumentService) Carne(ctx context.Context, tenantID, saleID uuid.UUID, req DocumentRequest) (*DocumentResponse, error) {
	sale, err := s.saleRepo.FindByIDForTenant(ctx, tenantID, saleID)
	if err != nil {
		return nil, err
	}
	if !sale.PaymentMethod.IsCredit() || sale.CustomerID == nil {
		return nil, shared.NewDomainError("NOT_CREDIT_SALE", "Only installment sales have a carnê")
	}
	if sale.IsCancelled() {
		return nil, shared.NewDomainError("INVALID_STATE", "Sale is cancelled")
	}

	company, err := s.companyRepo.FindByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	customer, err := s.customerRepo.FindByIDForTenant(ctx, tenantID, *sale.CustomerID)
	if err != nil {
		return nil, err
	}
	installments, err := s.installmentRepo.FindBySale(ctx, tenantID, sale.ID)
	if err != nil {
		return nil, err
	}

	now := s.now().In(company.Location())
	doc := &infra.CarneDocument{
		Issuer:     issuerOf(company),
		Customer:   partyOf(customer),
		SaleNumber: sale.SaleNumber,
		SoldAt:     sale.SoldAt.In(company.Location()),
		Total:      sale.Total,
		IssuedAt:   now,
	}
	for i := range installments {
		inst := &installments[i]
		if inst.IsCancelled() {
			continue
		}
		doc.Slips = append(doc.Slips, s.slipOf(company, sale, inst, now))
	}
	if len(doc.Slips) == 0 {
		return nil, shared.NewDomainError("NO_INSTALLMENTS", "Sale has no open installments")
	}

	html, err := s.engine.CarneHTML(doc)
	if err != nil {
		return nil, fmt.Errorf("render carne html: %w", err)
	}
	return s.output(ctx, tenantID, KindCarne, sale, html, infra.PaperA4, req.Format)
}

// Receipt renders the counter receipt of a sale, cancelled sales included
func (s *DocumentService) Receipt(ctx context.Context, tenantID, saleID uuid.UUID, req DocumentRequest) (*DocumentResponse, error) {
	sale, err := s.saleRepo.FindByIDForTenant(ctx, tenantID, saleID)
	if err != nil {
		return nil, err
	}
	company, err := s.companyRepo.FindByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	loc := company.Location()

	doc := &infra.ReceiptDocument{
		Issuer:        issuerOf(company),
		SaleNumber:    sale.SaleNumber,
		SoldAt:        sale.SoldAt.In(loc),
		Subtotal:      sale.Subtotal,
		Discount:      sale.Discount,
		Total:         sale.Total,
		PaymentMethod: string(sale.PaymentMethod),
		Cancelled:     sale.IsCancelled(),
	}
	for _, item := range sale.Items {
		doc.Lines = append(doc.Lines, infra.ReceiptLine{
			Code:      item.ProductCode,
			Name:      item.ProductName,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Subtotal:  item.Subtotal,
		})
	}
	if sale.CustomerID != nil {
		customer, err := s.customerRepo.FindByIDForTenant(ctx, tenantID, *sale.CustomerID)
		switch {
		case err == nil:
			party := partyOf(customer)
			doc.Customer = &party
		case errors.Is(err, shared.ErrNotFound):
			doc.Customer = &infra.Party{Name: sale.CustomerName}
		default:
			return nil, err
		}
	}
	if sale.PaymentMethod.IsCredit() && !sale.IsCancelled() {
		installments, err := s.installmentRepo.FindBySale(ctx, tenantID, sale.ID)
		if err != nil {
			return nil, err
		}
		now := s.now().In(loc)
		for i := range installments {
			if installments[i].IsCancelled() {
				continue
			}
			slip := s.slipOf(company, sale, &installments[i], now)
			slip.PixPayload = ""
			doc.Slips = append(doc.Slips, slip)
		}
	}

	html, err := s.engine.ReceiptHTML(doc)
	if err != nil {
		return nil, fmt.Errorf("render receipt html: %w", err)
	}
	return s.output(ctx, tenantID, KindReceipt, sale, html, infra.PaperReceipt80M, req.Format)
}

func (s *DocumentService) slipOf(company *identity.Company, sale *sales.Sale, inst *billing.Installment, now time.Time) infra.Slip {
	remaining := inst.Remaining()
	slip := infra.Slip{
		Label:     inst.Label(),
		DueDate:   inst.DueDate,
		Amount:    inst.Amount,
		TotalPaid: inst.TotalPaid(),
		Remaining: remaining,
		Status:    string(inst.StatusAt(now)),
	}
	if company.HasPix() && remaining.IsPositive() {
		payload, err := pix.BuildPayload(pix.Charge{
			PixKey:       company.PixKey,
			MerchantName: company.DisplayName(),
			MerchantCity: company.MerchantCity,
			Amount:       remaining,
			Description:  sale.SaleNumber + " " + inst.Label(),
		})
		if err != nil {
			s.logger.Warn("Skipping PIX payload on carnê slip",
				zap.String("installment_id", inst.ID.String()),
				zap.Error(err))
		} else {
			slip.PixPayload = payload
		}
	}
	return slip
}

func (s *DocumentService) output(
	ctx context.Context,
	tenantID uuid.UUID,
	kind string,
	sale *sales.Sale,
	html string,
	paper infra.PaperSize,
	format string,
) (*DocumentResponse, error) {
	resp := &DocumentResponse{
		Kind:       kind,
		SaleID:     sale.ID,
		SaleNumber: sale.SaleNumber,
		Format:     FormatPDF,
	}
	if strings.EqualFold(format, FormatHTML) {
		resp.Format = FormatHTML
		resp.HTML = html
		return resp, nil
	}
	if s.renderer == nil || s.storage == nil {
		return nil, shared.NewDomainError("PRINTING_DISABLED", "PDF generation is not configured")
	}

	result, err := s.renderer.Render(ctx, &infra.RenderRequest{
		HTML:    html,
		Title:   fmt.Sprintf("%s %s", kind, sale.SaleNumber),
		Paper:   paper,
		Margins: infra.Margins{Top: 8, Right: 8, Bottom: 8, Left: 8},
	})
	if err != nil {
		s.logger.Error("PDF rendering failed",
			zap.String("kind", kind),
			zap.String("sale_id", sale.ID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("render %s pdf: %w", kind, err)
	}

	key := appshared.ObjectKey(tenantID, kind, sale.SaleNumber+".pdf")
	if err := s.storage.Upload(ctx, key, result.PDFData, "application/pdf"); err != nil {
		return nil, fmt.Errorf("upload %s pdf: %w", kind, err)
	}
	url, expiresAt, err := s.storage.DownloadURL(ctx, key, s.urlTTL)
	if err != nil {
		return nil, fmt.Errorf("sign %s pdf url: %w", kind, err)
	}

	resp.URL = url
	resp.ExpiresAt = &expiresAt
	resp.PageCount = result.PageCount
	resp.SizeBytes = len(result.PDFData)
	s.logger.Info("Document generated",
		zap.String("tenant_id", tenantID.String()),
		zap.String("kind", kind),
		zap.String("sale_number", sale.SaleNumber),
		zap.Int("pages", result.PageCount),
		zap.Duration("render_duration", result.RenderDuration))
	return resp, nil
}

func issuerOf(c *identity.Company) infra.Issuer {
	return infra.Issuer{
		Name:     c.DisplayName(),
		Document: c.Document,
		Phone:    c.Phone,
		PixKey:   c.PixKey,
	}
}

func partyOf(c *partner.Customer) infra.Party {
	address := c.Address
	if c.City != "" {
		address = strings.TrimSpace(strings.Join([]string{address, c.City + "/" + c.State}, " - "))
		address = strings.TrimPrefix(address, "- ")
	}
	return infra.Party{
		Name:     c.Name,
		Document: c.Document,
		Phone:    c.Phone,
		Address:  address,
	}
}
