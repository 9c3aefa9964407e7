package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	appshared "github.com/retailpos/backend/internal/application/shared"
	"github.com/retailpos/backend/internal/domain/billing"
	"github.com/retailpos/backend/internal/domain/identity"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/retailpos/backend/internal/infrastructure/pix"
	"go.uber.org/zap"
)

// ChargeGenerator builds a PIX payload and its QR image
type ChargeGenerator interface {
	Generate(c pix.Charge) (*pix.QRCode, error)
}

// DefaultQRCodeURLTTL is how long a QR image link stays valid
const DefaultQRCodeURLTTL = time.Hour

// PixChargeService issues static PIX charges for installment balances.
// Charges are informational; payments are still registered by staff.
type PixChargeService struct {
	installmentRepo billing.InstallmentRepository
	companyRepo     identity.CompanyRepository
	generator       ChargeGenerator
	storage         appshared.ObjectStorage
	urlTTL          time.Duration
	logger          *zap.Logger
}

// NewPixChargeService creates a new PixChargeService. A nil storage returns
// the payload without a QR image link.
func NewPixChargeService(
	installmentRepo billing.InstallmentRepository,
	companyRepo identity.CompanyRepository,
	generator ChargeGenerator,
	storage appshared.ObjectStorage,
	logger *zap.Logger,
) *PixChargeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PixChargeService{
		installmentRepo: installmentRepo,
		companyRepo:     companyRepo,
		generator:       generator,
		storage:         storage,
		urlTTL:          DefaultQRCodeURLTTL,
		logger:          logger,
	}
}

// GenerateCharge builds a charge for the installment's remaining amount
func (s *PixChargeService) GenerateCharge(ctx context.Context, tenantID, installmentID uuid.UUID) (*PixChargeResponse, error) {
	if s.generator == nil {
		return nil, shared.NewDomainError("PIX_DISABLED", "PIX charges are disabled")
	}
	inst, err := s.installmentRepo.FindByIDForTenant(ctx, tenantID, installmentID)
	if err != nil {
		return nil, err
	}
	if inst.IsCancelled() {
		return nil, shared.NewDomainError("INSTALLMENT_CANCELLED", "Installment is cancelled")
	}
	remaining := inst.Remaining()
	if remaining.IsZero() {
		return nil, shared.NewDomainError("INSTALLMENT_ALREADY_PAID", "Installment is already fully paid")
	}

	company, err := s.companyRepo.FindByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if !company.HasPix() {
		return nil, shared.NewDomainError("PIX_NOT_CONFIGURED", "Company has no PIX key or merchant city")
	}

	qr, err := s.generator.Generate(pix.Charge{
		PixKey:       company.PixKey,
		MerchantName: company.DisplayName(),
		MerchantCity: company.MerchantCity,
		Amount:       remaining,
		Description:  "Parcela " + inst.Label(),
	})
	if err != nil {
		if isChargeInputError(err) {
			return nil, shared.NewDomainError("INVALID_PIX_CHARGE", err.Error())
		}
		return nil, fmt.Errorf("generate pix charge: %w", err)
	}

	resp := &PixChargeResponse{
		InstallmentID: inst.ID,
		TxID:          qr.TxID,
		Amount:        remaining,
		Payload:       qr.Payload,
	}
	if s.storage != nil {
		key := appshared.ObjectKey(tenantID, "pix", qr.TxID+".png")
		if err := s.storage.Upload(ctx, key, qr.PNG, "image/png"); err != nil {
			return nil, fmt.Errorf("upload pix qr code: %w", err)
		}
		url, expiresAt, err := s.storage.DownloadURL(ctx, key, s.urlTTL)
		if err != nil {
			return nil, fmt.Errorf("sign pix qr code url: %w", err)
		}
		resp.QRCodeURL = url
		resp.ExpiresAt = &expiresAt
	}

	s.logger.Info("PIX charge generated",
		zap.String("tenant_id", tenantID.String()),
		zap.String("installment_id", inst.ID.String()),
		zap.String("txid", qr.TxID),
		zap.String("amount", remaining.StringFixed(2)))
	return resp, nil
}

func isChargeInputError(err error) bool {
	for _, target := range []error{
		pix.ErrMissingKey, pix.ErrKeyTooLong, pix.ErrMissingName,
		pix.ErrMissingCity, pix.ErrInvalidAmount, pix.ErrInvalidTxID,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
