// Package billing holds the receivables ledger: installments generated by a
// credit sale, the payments booked against them and the rules that derive
// an installment's status from its due date and what has been paid.
//
// Key Aggregates:
//   - Installment: one scheduled slice of a sale, owning its payments
//
// Value Objects:
//   - Payment: an amount received on a date by a method
//   - ScheduleEntry: a planned installment before it is persisted
//   - CustomerDebt: a customer's position across open installments
//
// Amounts are rounded to cents. A payment never exceeds what remains on its
// installment, and a debt payment is allocated oldest due date first.
package billing
