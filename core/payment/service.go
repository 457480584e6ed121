package payment

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/Brainhard-droid/sports-school-crm-sub001/core"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/group"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/student"
)

var errStudentNotFound = errors.New("student not found")

type (
	Service interface {
		Create(ctx context.Context, np NewPayment, createdBy string) (Payment, error)
		QueryByStudent(ctx context.Context, studentID, period string) ([]Payment, error)
		// Debts lists the active students of g whose payments for period fall short of the monthly fee.
		Debts(ctx context.Context, g group.Group, period string) ([]Debt, error)
	}

	service struct {
		repo       Repository
		studentSvc student.Service
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, studentSvc student.Service) Service {
	return &service{repo: repo, studentSvc: studentSvc}
}

func (svc *service) Create(ctx context.Context, np NewPayment, createdBy string) (Payment, error) {
	if _, err := svc.studentSvc.Get(ctx, np.StudentID); err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return Payment{}, core.NewFieldError("student_id", errStudentNotFound.Error())
		}
		return Payment{}, errors.Wrap(err, "finding student")
	}

	now := time.Now().UTC()
	paidAt := np.PaidAt
	if paidAt.IsZero() {
		paidAt = now
	}
	return svc.repo.CreatePayment(ctx, Payment{
		StudentID: np.StudentID,
		Amount:    np.Amount,
		Period:    np.Period,
		PaidAt:    paidAt.UTC(),
		Method:    np.Method,
		Comment:   np.Comment,
		CreatedBy: createdBy,
		CreatedAt: now,
	})
}

func (svc *service) QueryByStudent(ctx context.Context, studentID, period string) ([]Payment, error) {
	return svc.repo.QueryPayments(ctx, &QueryFilter{StudentIDs: []string{studentID}, Period: period})
}

func (svc *service) Debts(ctx context.Context, g group.Group, period string) ([]Debt, error) {
	debts := []Debt{}
	if !g.MonthlyFee.IsPositive() {
		return debts, nil
	}

	students, err := svc.studentSvc.QueryByGroup(ctx, g.ID)
	if err != nil {
		return nil, errors.Wrap(err, "querying group students")
	}
	var ids []string
	for _, s := range students {
		if s.IsActive {
			ids = append(ids, s.ID)
		}
	}
	if len(ids) == 0 {
		return debts, nil
	}

	paid, err := svc.repo.SumPaid(ctx, ids, period)
	if err != nil {
		return nil, errors.Wrap(err, "summing payments")
	}
	for _, s := range students {
		if !s.IsActive {
			continue
		}
		total, ok := paid[s.ID]
		if !ok {
			total = decimal.Zero
		}
		if outstanding := g.MonthlyFee.Sub(total); outstanding.IsPositive() {
			debts = append(debts, Debt{Student: s, Fee: g.MonthlyFee, Paid: total, Outstanding: outstanding})
		}
	}
	return debts, nil
}
