package inmemdb

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Brainhard-droid/sports-school-crm-sub001/core"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/group"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/payment"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/student"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/trial"
)

func openDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open()
	require.NoError(t, err)
	return db
}

func TestGroupRepository(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	groups := NewGroupRepository(db)
	students := NewStudentRepository(db)
	trials := NewTrialRepository(db)

	create := func(name, branch string, fee int64, active bool) group.Group {
		g, err := groups.CreateGroup(ctx, group.Group{Name: name, Branch: branch, MonthlyFee: decimal.NewFromInt(fee), IsActive: active})
		require.NoError(t, err)
		return g
	}
	swim := create("Плавание", "Север", 2000, true)
	foot := create("Футбол U10", "Центр", 3000, true)
	gym := create("Гимнастика", "центр", 2500, false)

	names := func(gs []group.Group) []string {
		out := make([]string, 0, len(gs))
		for _, g := range gs {
			out = append(out, g.Name)
		}
		return out
	}
	active := true

	tests := []struct {
		name     string
		filter   *group.QueryFilter
		ordering []core.DBOrdering
		want     []string
	}{
		{name: "all by name", want: []string{gym.Name, swim.Name, foot.Name}},
		{name: "search ignores case", filter: &group.QueryFilter{Search: "фут"}, want: []string{foot.Name}},
		{name: "branch ignores case", filter: &group.QueryFilter{Branch: "ЦЕНТР"}, want: []string{gym.Name, foot.Name}},
		{name: "active", filter: &group.QueryFilter{IsActive: &active}, want: []string{swim.Name, foot.Name}},
		{name: "fee desc", ordering: []core.DBOrdering{{Field: "monthly_fee"}}, want: []string{foot.Name, gym.Name, swim.Name}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := groups.QueryGroups(ctx, tt.filter, tt.ordering)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(got))
		})
	}

	t.Run("delete", func(t *testing.T) {
		_, err := students.CreateStudent(ctx, student.Student{Name: "Петя", GroupID: foot.ID, IsActive: true})
		require.NoError(t, err)
		_, err = trials.CreateRequest(ctx, trial.Request{GroupID: swim.ID, Status: trial.StatusNew})
		require.NoError(t, err)

		assert.Equal(t, group.ErrInUse, groups.DeleteGroup(ctx, foot.ID))
		assert.Equal(t, group.ErrInUse, groups.DeleteGroup(ctx, swim.ID))
		assert.NoError(t, groups.DeleteGroup(ctx, gym.ID))
		assert.Equal(t, group.ErrNotFound, groups.DeleteGroup(ctx, gym.ID))

		_, err = groups.GetGroup(ctx, gym.ID)
		assert.Equal(t, group.ErrNotFound, err)
	})
}

func TestStudentRepository_delete(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	students := NewStudentRepository(db)
	payments := NewPaymentRepository(db)

	paid, err := students.CreateStudent(ctx, student.Student{Name: "Петя"})
	require.NoError(t, err)
	other, err := students.CreateStudent(ctx, student.Student{Name: "Вася"})
	require.NoError(t, err)
	_, err = payments.CreatePayment(ctx, payment.Payment{StudentID: paid.ID, Amount: decimal.NewFromInt(100), Period: "2023-01"})
	require.NoError(t, err)

	assert.Equal(t, student.ErrInUse, students.DeleteStudent(ctx, paid.ID))
	assert.NoError(t, students.DeleteStudent(ctx, other.ID))
}

func TestPaymentRepository_SumPaid(t *testing.T) {
	ctx := context.Background()
	repo := NewPaymentRepository(openDB(t))

	add := func(studentID, amount, period string) {
		_, err := repo.CreatePayment(ctx, payment.Payment{
			StudentID: studentID, Amount: decimal.RequireFromString(amount), Period: period, PaidAt: time.Now().UTC(),
		})
		require.NoError(t, err)
	}
	add("a", "1000.50", "2023-01")
	add("a", "999.50", "2023-01")
	add("a", "3000", "2022-12")
	add("b", "10", "2023-01")
	add("c", "10", "2023-01")

	sums, err := repo.SumPaid(ctx, []string{"a", "b", "d"}, "2023-01")
	require.NoError(t, err)
	require.Len(t, sums, 2)
	assert.True(t, sums["a"].Equal(decimal.NewFromInt(2000)), sums["a"].String())
	assert.True(t, sums["b"].Equal(decimal.NewFromInt(10)))

	list, err := repo.QueryPayments(ctx, &payment.QueryFilter{StudentIDs: []string{"a"}, Period: "2022-12"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "2022-12", list[0].Period)
}

func TestTrialRepository_CountActiveRequests(t *testing.T) {
	ctx := context.Background()
	repo := NewTrialRepository(openDB(t))
	at := time.Date(2023, time.January, 16, 10, 0, 0, 0, time.UTC)

	for _, status := range []string{trial.StatusNew, trial.StatusInvited, trial.StatusAttended, trial.StatusRefused, trial.StatusConverted} {
		_, err := repo.CreateRequest(ctx, trial.Request{GroupID: "g", DesiredAt: at, Status: status})
		require.NoError(t, err)
	}
	_, err := repo.CreateRequest(ctx, trial.Request{GroupID: "g", DesiredAt: at.Add(time.Hour), Status: trial.StatusNew})
	require.NoError(t, err)
	_, err = repo.CreateRequest(ctx, trial.Request{GroupID: "h", DesiredAt: at, Status: trial.StatusNew})
	require.NoError(t, err)

	n, err := repo.CountActiveRequests(ctx, "g", at.In(time.FixedZone("MSK", 3*60*60)))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}
