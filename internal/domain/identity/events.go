package identity

import (
	"github.com/retailpos/backend/internal/domain/shared"
)

const (
	AggregateTypeCompany    = "Company"
	EventTypeCompanyCreated = "CompanyCreated"
)

type CompanyCreatedEvent struct {
	shared.BaseDomainEvent
	Name string `json:"name"`
}

func NewCompanyCreatedEvent(c *Company) *CompanyCreatedEvent {
	return &CompanyCreatedEvent{
		// a company is its own tenant
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCompanyCreated, AggregateTypeCompany, c.ID, c.ID),
		Name:            c.Name,
	}
}
