package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/Brainhard-droid/sports-school-crm-sub001/core"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/payment"
)

const paymentColumns = `id, student_id, amount, period, paid_at, method, comment, created_by, created_at`

type (
	paymentRepository struct {
		repository
	}

	paymentRow struct {
		ID        string          `db:"id"`
		StudentID string          `db:"student_id"`
		Amount    decimal.Decimal `db:"amount"`
		Period    string          `db:"period"`
		PaidAt    time.Time       `db:"paid_at"`
		Method    string          `db:"method"`
		Comment   string          `db:"comment"`
		CreatedBy null.String     `db:"created_by"`
		CreatedAt time.Time       `db:"created_at"`
	}

	paidRow struct {
		StudentID string          `db:"student_id"`
		Paid      decimal.Decimal `db:"paid"`
	}
)

var _ payment.Repository = (*paymentRepository)(nil) // interface compliance check

func NewPaymentRepository(exec core.DBExecutor) payment.Repository {
	return &paymentRepository{repository{exec: exec}}
}

func (repo paymentRepository) CreatePayment(ctx context.Context, p payment.Payment, exec ...core.DBExecutor) (payment.Payment, error) {
	p.ID = uuid.New().String()
	row := paymentRow{
		ID:        p.ID,
		StudentID: p.StudentID,
		Amount:    p.Amount,
		Period:    p.Period,
		PaidAt:    p.PaidAt.UTC(),
		Method:    p.Method,
		Comment:   p.Comment,
		CreatedBy: null.NewString(p.CreatedBy, p.CreatedBy != ""),
		CreatedAt: p.CreatedAt.UTC(),
	}
	q := `INSERT INTO payment (` + paymentColumns + `)
		VALUES (:id, :student_id, :amount, :period, :paid_at, :method, :comment, :created_by, :created_at)`
	if _, err := repo.getExec(exec).NamedExecContext(ctx, q, row); err != nil {
		return payment.Payment{}, errors.Wrap(err, "inserting payment")
	}
	return p, nil
}

func (repo paymentRepository) QueryPayments(ctx context.Context, filter *payment.QueryFilter, exec ...core.DBExecutor) ([]payment.Payment, error) {
	var w where
	if filter != nil {
		if len(filter.StudentIDs) > 0 {
			w.add("student_id::text IN (?)", filter.StudentIDs)
		}
		if filter.Period != "" {
			w.add("period = ?", filter.Period)
		}
	}

	exe := repo.getExec(exec)
	q, args, err := expand(exe, `SELECT `+paymentColumns+` FROM payment`+w.String()+` ORDER BY paid_at DESC, id ASC`, w.args...)
	if err != nil {
		return nil, errors.Wrap(err, "building payments query")
	}
	var rows []paymentRow
	if err = exe.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying payments")
	}

	payments := make([]payment.Payment, 0, len(rows))
	for _, row := range rows {
		payments = append(payments, payment.Payment{
			ID:        row.ID,
			StudentID: row.StudentID,
			Amount:    row.Amount,
			Period:    row.Period,
			PaidAt:    row.PaidAt.UTC(),
			Method:    row.Method,
			Comment:   row.Comment,
			CreatedBy: row.CreatedBy.String,
			CreatedAt: row.CreatedAt.UTC(),
		})
	}
	return payments, nil
}

func (repo paymentRepository) SumPaid(ctx context.Context, studentIDs []string, period string, exec ...core.DBExecutor) (map[string]decimal.Decimal, error) {
	sums := make(map[string]decimal.Decimal)
	if len(studentIDs) == 0 {
		return sums, nil
	}

	exe := repo.getExec(exec)
	q, args, err := expand(exe,
		`SELECT student_id, SUM(amount) AS paid FROM payment WHERE student_id::text IN (?) AND period = ? GROUP BY student_id`,
		studentIDs, period)
	if err != nil {
		return nil, errors.Wrap(err, "building payments sum query")
	}
	var rows []paidRow
	if err = exe.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "summing payments")
	}
	for _, row := range rows {
		sums[row.StudentID] = row.Paid
	}
	return sums, nil
}
