// Package models contains the GORM persistence models. Domain entities carry
// no ORM tags; each model converts to and from its aggregate with ToDomain and
// FromDomain, and repositories only ever touch models.
//
// Installment balances are never stored: a row keeps the scheduled amount and
// its payments live in installment_payments, so every balance is a sum.
package models
