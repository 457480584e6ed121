package sqlxrepos

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/Brainhard-droid/sports-school-crm-sub001/core"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/group"
)

const groupColumns = `id, name, branch, trainer_id, schedule, monthly_fee, capacity, is_active, created_at, updated_at`

var groupSortable = map[string]bool{
	"id": true, "name": true, "branch": true, "monthly_fee": true, "is_active": true,
	"created_at": true, "updated_at": true,
}

type (
	groupRepository struct {
		repository
	}

	groupRow struct {
		ID         string          `db:"id"`
		Name       string          `db:"name"`
		Branch     string          `db:"branch"`
		TrainerID  null.String     `db:"trainer_id"`
		Schedule   string          `db:"schedule"`
		MonthlyFee decimal.Decimal `db:"monthly_fee"`
		Capacity   int             `db:"capacity"`
		IsActive   bool            `db:"is_active"`
		CreatedAt  null.Time       `db:"created_at"`
		UpdatedAt  null.Time       `db:"updated_at"`
	}
)

var _ group.Repository = (*groupRepository)(nil) // interface compliance check

func NewGroupRepository(exec core.DBExecutor) group.Repository {
	return &groupRepository{repository{exec: exec}}
}

func (repo groupRepository) toRow(g group.Group) groupRow {
	return groupRow{
		ID:         g.ID,
		Name:       g.Name,
		Branch:     g.Branch,
		TrainerID:  null.NewString(g.TrainerID, g.TrainerID != ""),
		Schedule:   g.Schedule,
		MonthlyFee: g.MonthlyFee,
		Capacity:   g.Capacity,
		IsActive:   g.IsActive,
		CreatedAt:  nullTime(g.CreatedAt),
		UpdatedAt:  nullTime(g.UpdatedAt),
	}
}

func (repo groupRepository) fromRow(row groupRow) group.Group {
	return group.Group{
		ID:         row.ID,
		Name:       row.Name,
		Branch:     row.Branch,
		TrainerID:  row.TrainerID.String,
		Schedule:   row.Schedule,
		MonthlyFee: row.MonthlyFee,
		Capacity:   row.Capacity,
		IsActive:   row.IsActive,
		CreatedAt:  row.CreatedAt.Time,
		UpdatedAt:  row.UpdatedAt.Time,
	}
}

func (repo groupRepository) CreateGroup(ctx context.Context, g group.Group, exec ...core.DBExecutor) (group.Group, error) {
	g.ID = uuid.New().String()
	q := `INSERT INTO training_group (` + groupColumns + `)
		VALUES (:id, :name, :branch, :trainer_id, :schedule, :monthly_fee, :capacity, :is_active, :created_at, :updated_at)`
	if _, err := repo.getExec(exec).NamedExecContext(ctx, q, repo.toRow(g)); err != nil {
		return group.Group{}, errors.Wrap(err, "inserting group")
	}
	return g, nil
}

func (repo groupRepository) QueryGroups(ctx context.Context, filter *group.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]group.Group, error) {
	var w where
	if filter != nil {
		if filter.Search != "" {
			w.add("name ILIKE ?", "%"+filter.Search+"%")
		}
		if filter.Branch != "" {
			w.add("branch ILIKE ?", filter.Branch)
		}
		if filter.TrainerID != "" {
			w.add("trainer_id::text = ?", filter.TrainerID)
		}
		if filter.IsActive != nil {
			w.add("is_active = ?", *filter.IsActive)
		}
	}

	exe := repo.getExec(exec)
	q := `SELECT ` + groupColumns + ` FROM training_group` + w.String() + orderBy(ordering, groupSortable, "name ASC, id ASC")
	var rows []groupRow
	if err := exe.SelectContext(ctx, &rows, exe.Rebind(q), w.args...); err != nil {
		return nil, errors.Wrap(err, "querying groups")
	}

	groups := make([]group.Group, 0, len(rows))
	for _, row := range rows {
		groups = append(groups, repo.fromRow(row))
	}
	return groups, nil
}

func (repo groupRepository) GetGroup(ctx context.Context, id string, exec ...core.DBExecutor) (group.Group, error) {
	if _, err := uuid.Parse(id); err != nil {
		return group.Group{}, group.ErrNotFound
	}
	exe := repo.getExec(exec)
	var row groupRow
	q := `SELECT ` + groupColumns + ` FROM training_group WHERE id = ?`
	if err := exe.GetContext(ctx, &row, exe.Rebind(q), id); err != nil {
		return group.Group{}, trapNoRowsErr(err, group.ErrNotFound, "finding group")
	}
	return repo.fromRow(row), nil
}

func (repo groupRepository) UpdateGroup(ctx context.Context, g group.Group, exec ...core.DBExecutor) (group.Group, error) {
	q := `UPDATE training_group SET name = :name, branch = :branch, trainer_id = :trainer_id, schedule = :schedule,
		monthly_fee = :monthly_fee, capacity = :capacity, is_active = :is_active, updated_at = :updated_at
		WHERE id = :id`
	res, err := repo.getExec(exec).NamedExecContext(ctx, q, repo.toRow(g))
	if err != nil {
		return group.Group{}, errors.Wrap(err, "updating group")
	}
	if err = checkAffected(res, group.ErrNotFound); err != nil {
		return group.Group{}, err
	}
	return g, nil
}

func (repo groupRepository) DeleteGroup(ctx context.Context, id string, exec ...core.DBExecutor) error {
	if _, err := uuid.Parse(id); err != nil {
		return group.ErrNotFound
	}
	exe := repo.getExec(exec)
	res, err := exe.ExecContext(ctx, exe.Rebind(`DELETE FROM training_group WHERE id = ?`), id)
	if err != nil {
		if isFKViolation(err) {
			return group.ErrInUse
		}
		return errors.Wrap(err, "deleting group")
	}
	return checkAffected(res, group.ErrNotFound)
}
