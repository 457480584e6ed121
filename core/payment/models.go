package payment

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Brainhard-droid/sports-school-crm-sub001/core"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/student"
)

// Payment methods
const (
	MethodCash     = "cash"
	MethodCard     = "card"
	MethodTransfer = "transfer"
)

// Payment is money received for a student's training in Period.
type Payment struct {
	ID        string          `json:"id"`
	StudentID string          `json:"student_id"`
	Amount    decimal.Decimal `json:"amount"`
	Period    string          `json:"period"` // YYYY-MM
	PaidAt    time.Time       `json:"paid_at"`
	Method    string          `json:"method"`
	Comment   string          `json:"comment"`
	CreatedBy string          `json:"created_by"`
	CreatedAt time.Time       `json:"created_at"` // UTC
}

type NewPayment struct {
	StudentID string          `json:"student_id" validate:"required,uuid"`
	Amount    decimal.Decimal `json:"amount" validate:"decimal_positive"`
	Period    string          `json:"period" validate:"required,period"`
	PaidAt    time.Time       `json:"paid_at"` // defaults to now
	Method    string          `json:"method" validate:"required,oneof=cash card transfer"`
	Comment   string          `json:"comment" validate:"max=500"`
}

func (np *NewPayment) Validate() error {
	np.StudentID = core.CleanString(np.StudentID, true /* lower */)
	np.Period = core.CleanString(np.Period)
	np.Method = core.CleanString(np.Method, true /* lower */)
	np.Comment = core.CleanString(np.Comment)
	return core.Validate.Struct(np)
}

type QueryFilter struct {
	StudentIDs []string
	Period     string
}

// Debt is what a student still owes for a period.
type Debt struct {
	Student     student.Student `json:"student"`
	Fee         decimal.Decimal `json:"fee"`
	Paid        decimal.Decimal `json:"paid"`
	Outstanding decimal.Decimal `json:"outstanding"`
}

type Repository interface {
	CreatePayment(ctx context.Context, p Payment, exec ...core.DBExecutor) (Payment, error)
	// QueryPayments applies AND operation on available QueryFilter fields, newest PaidAt first.
	QueryPayments(ctx context.Context, filter *QueryFilter, exec ...core.DBExecutor) ([]Payment, error)
	// SumPaid totals the payments of each student for period; students without payments are absent.
	SumPaid(ctx context.Context, studentIDs []string, period string, exec ...core.DBExecutor) (map[string]decimal.Decimal, error)
}
