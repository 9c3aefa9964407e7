// Package sales models point-of-sale transactions.
package sales

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/billing"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/retailpos/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// SaleStatus represents the status of a sale
type SaleStatus string

const (
	SaleStatusCompleted SaleStatus = "completed"
	SaleStatusCancelled SaleStatus = "cancelled"
)

func (s SaleStatus) IsValid() bool {
	return s == SaleStatusCompleted || s == SaleStatusCancelled
}

func (s SaleStatus) String() string {
	return string(s)
}

// PaymentMethod is how the sale was settled at the counter
type PaymentMethod string

const (
	PaymentMethodCash        PaymentMethod = "cash"
	PaymentMethodDebitCard   PaymentMethod = "debit_card"
	PaymentMethodCreditCard  PaymentMethod = "credit_card"
	PaymentMethodPix         PaymentMethod = "pix"
	PaymentMethodInstallment PaymentMethod = "installment" // store credit, settled through billing
)

func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodDebitCard, PaymentMethodCreditCard,
		PaymentMethodPix, PaymentMethodInstallment:
		return true
	}
	return false
}

func (m PaymentMethod) String() string {
	return string(m)
}

// IsCredit returns true if the sale is paid through installments
func (m PaymentMethod) IsCredit() bool {
	return m == PaymentMethodInstallment
}

// SaleItem is a sold line. UnitPrice and UnitCost are copies of the product
// prices at sale time, so later price changes do not rewrite history.
type SaleItem struct {
	ID          uuid.UUID
	SaleID      uuid.UUID
	ProductID   uuid.UUID
	ProductCode string
	ProductName string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	UnitCost    decimal.Decimal
	Subtotal    decimal.Decimal
}

// Cost is quantity times the captured unit cost
func (i *SaleItem) Cost() decimal.Decimal {
	return valueobject.RoundCents(i.Quantity.Mul(i.UnitCost))
}

// Sale aggregate root
type Sale struct {
	shared.TenantAggregateRoot
	SaleNumber       string
	CustomerID       *uuid.UUID
	CustomerName     string
	SellerID         uuid.UUID
	Items            []SaleItem
	Subtotal         decimal.Decimal
	Discount         decimal.Decimal
	Total            decimal.Decimal
	PaymentMethod    PaymentMethod
	InstallmentCount int
	FirstDueDate     *time.Time
	Status           SaleStatus
	Notes            string
	SoldAt           time.Time
	CancelledAt      *time.Time
	CancelReason     string
}

// ItemInput describes a line as captured at the counter
type ItemInput struct {
	ProductID   uuid.UUID
	ProductCode string
	ProductName string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	UnitCost    decimal.Decimal
}

// NewSale creates an empty sale; items are added before Complete
func NewSale(tenantID uuid.UUID, saleNumber string, sellerID uuid.UUID, method PaymentMethod) (*Sale, error) {
	if saleNumber == "" {
		return nil, shared.NewDomainError("INVALID_SALE_NUMBER", "Sale number cannot be empty")
	}
	if sellerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SELLER", "Seller cannot be empty")
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", fmt.Sprintf("Unknown payment method %q", method))
	}
	s := &Sale{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		SaleNumber:          saleNumber,
		SellerID:            sellerID,
		Items:               make([]SaleItem, 0),
		Subtotal:            decimal.Zero,
		Discount:            decimal.Zero,
		Total:               decimal.Zero,
		PaymentMethod:       method,
		Status:              SaleStatusCompleted,
		SoldAt:              time.Now(),
	}
	s.SetCreatedBy(sellerID)
	return s, nil
}

// SetCustomer attaches the buying customer
func (s *Sale) SetCustomer(customerID uuid.UUID, name string) {
	s.CustomerID = &customerID
	s.CustomerName = name
}

// AddItem adds a line. The same product may appear only once.
func (s *Sale) AddItem(in ItemInput) (*SaleItem, error) {
	if in.ProductID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if !in.Quantity.IsPositive() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if in.UnitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}
	if in.UnitCost.IsNegative() {
		return nil, shared.NewDomainError("INVALID_COST", "Unit cost cannot be negative")
	}
	for _, it := range s.Items {
		if it.ProductID == in.ProductID {
			return nil, shared.NewDomainError("DUPLICATE_ITEM",
				fmt.Sprintf("Product %s already in sale", in.ProductName))
		}
	}
	item := SaleItem{
		ID:          uuid.New(),
		SaleID:      s.ID,
		ProductID:   in.ProductID,
		ProductCode: in.ProductCode,
		ProductName: in.ProductName,
		Quantity:    in.Quantity,
		UnitPrice:   in.UnitPrice,
		UnitCost:    in.UnitCost,
		Subtotal:    valueobject.RoundCents(in.Quantity.Mul(in.UnitPrice)),
	}
	s.Items = append(s.Items, item)
	s.recalculateTotals()
	return &s.Items[len(s.Items)-1], nil
}

// ApplyDiscount sets an absolute discount, 0 <= discount <= subtotal
func (s *Sale) ApplyDiscount(discount decimal.Decimal) error {
	if discount.IsNegative() {
		return shared.NewDomainError("INVALID_DISCOUNT", "Discount cannot be negative")
	}
	if discount.GreaterThan(s.Subtotal) {
		return shared.NewDomainError("INVALID_DISCOUNT", "Discount cannot exceed subtotal")
	}
	s.Discount = valueobject.RoundCents(discount)
	s.recalculateTotals()
	return nil
}

// PlanInstallments configures store credit. firstDue defaults to SoldAt + 30 days.
func (s *Sale) PlanInstallments(count int, firstDue *time.Time) error {
	if !s.PaymentMethod.IsCredit() {
		return shared.NewDomainError("INVALID_PAYMENT_METHOD", "Only installment sales can have an installment plan")
	}
	if count < 1 || count > billing.MaxInstallments {
		return shared.NewDomainError("INVALID_INSTALLMENT_COUNT",
			fmt.Sprintf("Installment count must be between 1 and %d", billing.MaxInstallments))
	}
	due := s.SoldAt.AddDate(0, 0, billing.DefaultFirstDueDays)
	if firstDue != nil {
		if billing.DateOf(*firstDue).Before(billing.DateOf(s.SoldAt)) {
			return shared.NewDomainError("INVALID_DUE_DATE", "First due date cannot be before the sale date")
		}
		due = *firstDue
	}
	due = billing.DateOf(due)
	s.InstallmentCount = count
	s.FirstDueDate = &due
	return nil
}

// Complete validates the sale and records the SaleCompleted event
func (s *Sale) Complete() error {
	if len(s.Items) == 0 {
		return shared.NewDomainError("EMPTY_SALE", "Sale must have at least one item")
	}
	if s.PaymentMethod.IsCredit() {
		if s.CustomerID == nil {
			return shared.NewDomainError("CUSTOMER_REQUIRED", "Installment sales require a customer")
		}
		if s.InstallmentCount < 1 {
			return shared.NewDomainError("INVALID_INSTALLMENT_COUNT", "Installment sales require an installment plan")
		}
		if !s.Total.IsPositive() {
			return shared.NewDomainError("INVALID_AMOUNT", "Installment sales must have a positive total")
		}
	}
	s.Status = SaleStatusCompleted
	s.AddDomainEvent(NewSaleCompletedEvent(s))
	return nil
}

// Schedule returns the installment plan of a credit sale
func (s *Sale) Schedule() ([]billing.ScheduleEntry, error) {
	if !s.PaymentMethod.IsCredit() || s.FirstDueDate == nil {
		return nil, nil
	}
	return billing.BuildSchedule(s.Total, s.InstallmentCount, *s.FirstDueDate)
}

// Cancel voids the sale. Callers must make sure no installment payment exists.
func (s *Sale) Cancel(reason string) error {
	if s.IsCancelled() {
		return shared.NewDomainError("INVALID_STATE", "Sale is already cancelled")
	}
	now := time.Now()
	s.Status = SaleStatusCancelled
	s.CancelledAt = &now
	s.CancelReason = reason
	s.Touch()
	s.IncrementVersion()
	s.AddDomainEvent(NewSaleCancelledEvent(s, reason))
	return nil
}

func (s *Sale) IsCancelled() bool {
	return s.Status == SaleStatusCancelled
}

// TotalCost sums captured item costs
func (s *Sale) TotalCost() decimal.Decimal {
	total := decimal.Zero
	for i := range s.Items {
		total = total.Add(s.Items[i].Cost())
	}
	return total
}

// GrossProfit is net total minus captured cost
func (s *Sale) GrossProfit() decimal.Decimal {
	return s.Total.Sub(s.TotalCost())
}

// ItemNetRevenue is the item subtotal after its pro-rated share of the discount
func (s *Sale) ItemNetRevenue(item *SaleItem) decimal.Decimal {
	share := valueobject.ProRate(s.Discount, item.Subtotal, s.Subtotal)
	return item.Subtotal.Sub(share)
}

func (s *Sale) recalculateTotals() {
	subtotal := decimal.Zero
	for _, it := range s.Items {
		subtotal = subtotal.Add(it.Subtotal)
	}
	s.Subtotal = subtotal
	if s.Discount.GreaterThan(subtotal) {
		s.Discount = subtotal
	}
	s.Total = subtotal.Sub(s.Discount)
	s.Touch()
}
