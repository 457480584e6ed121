package sqlxrepos

import (
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/Brainhard-droid/sports-school-crm-sub001/core"
)

const (
	fkViolation   = pq.ErrorCode("23503")
	adminShutdown = pq.ErrorCode("57P01")
)

type repository struct {
	exec core.DBExecutor
}

func (repo repository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.exec
}

// where collects AND-ed conditions written with "?" placeholders.
type where struct {
	conds []string
	args  []interface{}
}

func (w *where) add(cond string, args ...interface{}) {
	w.conds = append(w.conds, "("+cond+")")
	w.args = append(w.args, args...)
}

func (w where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// orderBy renders ordering against the sortable columns; unknown fields are skipped.
func orderBy(ordering []core.DBOrdering, columns map[string]bool, fallback string) string {
	parts := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		if columns[ord.Field] {
			parts = append(parts, ord.String())
		}
	}
	if len(parts) == 0 {
		return " ORDER BY " + fallback
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}

// expand runs sqlx.In over q (for slice args) and rebinds it for the executor's driver.
func expand(exe core.DBExecutor, q string, args ...interface{}) (string, []interface{}, error) {
	q, args, err := sqlx.In(q, args...)
	if err != nil {
		return "", nil, err
	}
	return exe.Rebind(q), args, nil
}

// trapNoRowsErr maps psql "no rows" err to notFound
func trapNoRowsErr(err error, notFound error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFound
	}
	if pqErr, ok := errors.Cause(err).(*pq.Error); ok && pqErr.Code == adminShutdown {
		return errors.Wrap(core.NewShutdownError("database is shutting down"), msg)
	}
	return errors.Wrap(err, msg)
}

func isFKViolation(err error) bool {
	pqErr, ok := errors.Cause(err).(*pq.Error)
	return ok && pqErr.Code == fkViolation
}

// checkAffected returns notFound when res touched no row.
func checkAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "reading affected rows")
	}
	if n == 0 {
		return notFound
	}
	return nil
}
