package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/Brainhard-droid/sports-school-crm-sub001/core"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/trial"
)

const trialColumns = `id, child_name, parent_name, phone, group_id, desired_at, status, notes, created_at, updated_at`

var trialSortable = map[string]bool{
	"id": true, "child_name": true, "status": true, "desired_at": true, "created_at": true, "updated_at": true,
}

type (
	trialRepository struct {
		repository
	}

	trialRow struct {
		ID         string    `db:"id"`
		ChildName  string    `db:"child_name"`
		ParentName string    `db:"parent_name"`
		Phone      string    `db:"phone"`
		GroupID    string    `db:"group_id"`
		DesiredAt  time.Time `db:"desired_at"`
		Status     string    `db:"status"`
		Notes      string    `db:"notes"`
		CreatedAt  null.Time `db:"created_at"`
		UpdatedAt  null.Time `db:"updated_at"`
	}
)

var _ trial.Repository = (*trialRepository)(nil) // interface compliance check

func NewTrialRepository(exec core.DBExecutor) trial.Repository {
	return &trialRepository{repository{exec: exec}}
}

func (repo trialRepository) toRow(r trial.Request) trialRow {
	return trialRow{
		ID:         r.ID,
		ChildName:  r.ChildName,
		ParentName: r.ParentName,
		Phone:      r.Phone,
		GroupID:    r.GroupID,
		DesiredAt:  r.DesiredAt.UTC(),
		Status:     r.Status,
		Notes:      r.Notes,
		CreatedAt:  nullTime(r.CreatedAt),
		UpdatedAt:  nullTime(r.UpdatedAt),
	}
}

func (repo trialRepository) fromRow(row trialRow) trial.Request {
	return trial.Request{
		ID:         row.ID,
		ChildName:  row.ChildName,
		ParentName: row.ParentName,
		Phone:      row.Phone,
		GroupID:    row.GroupID,
		DesiredAt:  row.DesiredAt.UTC(),
		Status:     row.Status,
		Notes:      row.Notes,
		CreatedAt:  row.CreatedAt.Time,
		UpdatedAt:  row.UpdatedAt.Time,
	}
}

func (repo trialRepository) CreateRequest(ctx context.Context, r trial.Request, exec ...core.DBExecutor) (trial.Request, error) {
	r.ID = uuid.New().String()
	q := `INSERT INTO trial_request (` + trialColumns + `)
		VALUES (:id, :child_name, :parent_name, :phone, :group_id, :desired_at, :status, :notes, :created_at, :updated_at)`
	if _, err := repo.getExec(exec).NamedExecContext(ctx, q, repo.toRow(r)); err != nil {
		return trial.Request{}, errors.Wrap(err, "inserting trial request")
	}
	return r, nil
}

func (repo trialRepository) QueryRequests(ctx context.Context, filter *trial.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]trial.Request, error) {
	var w where
	if filter != nil {
		if len(filter.Status) > 0 {
			w.add("status IN (?)", filter.Status)
		}
		if filter.GroupID != "" {
			w.add("group_id::text = ?", filter.GroupID)
		}
		if !filter.From.IsZero() {
			w.add("desired_at >= ?", filter.From.UTC())
		}
		if !filter.To.IsZero() {
			w.add("desired_at <= ?", filter.To.UTC())
		}
	}

	exe := repo.getExec(exec)
	q, args, err := expand(exe, `SELECT `+trialColumns+` FROM trial_request`+w.String()+
		orderBy(ordering, trialSortable, "created_at DESC, id ASC"), w.args...)
	if err != nil {
		return nil, errors.Wrap(err, "building trial requests query")
	}
	var rows []trialRow
	if err = exe.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying trial requests")
	}

	requests := make([]trial.Request, 0, len(rows))
	for _, row := range rows {
		requests = append(requests, repo.fromRow(row))
	}
	return requests, nil
}

func (repo trialRepository) GetRequest(ctx context.Context, id string, exec ...core.DBExecutor) (trial.Request, error) {
	if _, err := uuid.Parse(id); err != nil {
		return trial.Request{}, trial.ErrNotFound
	}
	exe := repo.getExec(exec)
	var row trialRow
	q := `SELECT ` + trialColumns + ` FROM trial_request WHERE id = ?`
	if err := exe.GetContext(ctx, &row, exe.Rebind(q), id); err != nil {
		return trial.Request{}, trapNoRowsErr(err, trial.ErrNotFound, "finding trial request")
	}
	return repo.fromRow(row), nil
}

func (repo trialRepository) CountActiveRequests(ctx context.Context, groupID string, at time.Time, exec ...core.DBExecutor) (int, error) {
	exe := repo.getExec(exec)
	q, args, err := expand(exe,
		`SELECT COUNT(*) FROM trial_request WHERE group_id = ? AND desired_at = ? AND status IN (?)`,
		groupID, at.UTC(), trial.ActiveStatuses)
	if err != nil {
		return 0, errors.Wrap(err, "building trial count query")
	}
	var n int
	if err = exe.GetContext(ctx, &n, q, args...); err != nil {
		return 0, errors.Wrap(err, "counting trial requests")
	}
	return n, nil
}

func (repo trialRepository) UpdateRequest(ctx context.Context, r trial.Request, exec ...core.DBExecutor) (trial.Request, error) {
	q := `UPDATE trial_request SET status = :status, notes = :notes, updated_at = :updated_at WHERE id = :id`
	res, err := repo.getExec(exec).NamedExecContext(ctx, q, repo.toRow(r))
	if err != nil {
		return trial.Request{}, errors.Wrap(err, "updating trial request")
	}
	if err = checkAffected(res, trial.ErrNotFound); err != nil {
		return trial.Request{}, err
	}
	return r, nil
}
