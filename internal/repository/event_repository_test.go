package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-planner/internal/model"
)

func TestEventCreateAssignsID(t *testing.T) {
	db, mock := newMock(t)
	repo := NewEventRepo(db)

	mock.ExpectExec(q(qEventInsert)).
		WithArgs(sqlmock.AnyArg(), uint64(1), "Jazz", "Oslo", "2026-06-01", "20:00", 100, 0, 100, int64(2000),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	e := &model.Event{OwnerID: 1, Name: "Jazz", Location: "Oslo", Date: "2026-06-01", Time: "20:00",
		TicketQuantity: 100, TotalTickets: 100, TicketPriceCents: 2000}
	require.NoError(t, repo.Create(context.Background(), e))
	assert.Len(t, e.ID, 36)
	assert.False(t, e.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventGetByIDNotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(q(qEventByID)).WithArgs("x").WillReturnRows(sqlmock.NewRows(eventCols))

	_, err := NewEventRepo(db).GetByID(context.Background(), "x")
	assert.ErrorIs(t, err, ErrEventNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventListByOwner(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(q(qEventListByOwner)).WithArgs(uint64(1)).WillReturnRows(eventRow("e1", 1, 10, 0, 10, 100))

	owner := uint64(1)
	list, err := NewEventRepo(db).List(context.Background(), &owner)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "e1", list[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventUpdateLeavesCountersAlone(t *testing.T) {
	db, mock := newMock(t)
	repo := NewEventRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(q(qEventForUpdate)).WithArgs("e1").WillReturnRows(eventRow("e1", 1, 70, 30, 100, 2000))
	mock.ExpectExec(q(qEventUpdate)).
		WithArgs("Late Jazz", "Oslo", "2026-06-01", "20:00", int64(2000), sqlmock.AnyArg(), sqlmock.AnyArg(), "e1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	name := "Late Jazz"
	e, err := repo.UpdateByIDAndOwner(context.Background(), "e1", 1, model.EventPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Late Jazz", e.Name)
	assert.Equal(t, 70, e.TicketQuantity)
	assert.Equal(t, 100, e.TotalTickets)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventUpdateForbidden(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(q(qEventForUpdate)).WithArgs("e1").WillReturnRows(eventRow("e1", 1, 70, 30, 100, 2000))
	mock.ExpectRollback()

	name := "x"
	_, err := NewEventRepo(db).UpdateByIDAndOwner(context.Background(), "e1", 2, model.EventPatch{Name: &name})
	assert.ErrorIs(t, err, ErrForbidden)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventDeleteCascadesInOneTransaction(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(q(qEventForUpdate)).WithArgs("e1").WillReturnRows(eventRow("e1", 1, 70, 30, 100, 2000))
	mock.ExpectQuery(q(qEventAttendeeCount)).WithArgs("e1").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectExec(q(qEventDelete)).WithArgs("e1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	n, err := NewEventRepo(db).DeleteByIDAndOwner(context.Background(), "e1", 1)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
