package inmemdb

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/Brainhard-droid/sports-school-crm-sub001/core"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/payment"
)

type paymentRepository struct {
	db *DB
}

var _ payment.Repository = (*paymentRepository)(nil) // interface compliance check

func NewPaymentRepository(db *DB) payment.Repository {
	return &paymentRepository{db: db}
}

func (repo *paymentRepository) CreatePayment(ctx context.Context, p payment.Payment, exec ...core.DBExecutor) (payment.Payment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	p.ID = newID()
	repo.db.payments[p.ID] = &p
	return p, nil
}

func (repo *paymentRepository) QueryPayments(ctx context.Context, filter *payment.QueryFilter, exec ...core.DBExecutor) ([]payment.Payment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var ids map[string]bool
	if filter != nil && len(filter.StudentIDs) > 0 {
		ids = make(map[string]bool, len(filter.StudentIDs))
		for _, id := range filter.StudentIDs {
			ids[id] = true
		}
	}

	payments := make([]payment.Payment, 0)
	for _, p := range repo.db.payments {
		if ids != nil && !ids[p.StudentID] {
			continue
		}
		if filter != nil && filter.Period != "" && p.Period != filter.Period {
			continue
		}
		payments = append(payments, *p)
	}
	sort.Slice(payments, func(i, j int) bool {
		if !payments[i].PaidAt.Equal(payments[j].PaidAt) {
			return payments[i].PaidAt.After(payments[j].PaidAt)
		}
		return payments[i].ID < payments[j].ID
	})
	return payments, nil
}

func (repo *paymentRepository) SumPaid(ctx context.Context, studentIDs []string, period string, exec ...core.DBExecutor) (map[string]decimal.Decimal, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	wanted := make(map[string]bool, len(studentIDs))
	for _, id := range studentIDs {
		wanted[id] = true
	}

	sums := make(map[string]decimal.Decimal)
	for _, p := range repo.db.payments {
		if !wanted[p.StudentID] || p.Period != period {
			continue
		}
		sums[p.StudentID] = sums[p.StudentID].Add(p.Amount)
	}
	return sums, nil
}
