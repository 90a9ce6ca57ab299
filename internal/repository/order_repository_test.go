package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/skillhub-booking/internal/model"
)

func TestOrderRepo_CreateOrder(t *testing.T) {
	_, repo, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO orders").
		WithArgs("Ada", "555").
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectExec("INSERT INTO order_lessons").
		WithArgs(42, 0, "7", 2, 42, 1, "8", 1).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	o := &model.Order{
		FullName:    "Ada",
		PhoneNumber: "555",
		Lessons:     []model.LineItem{{LessonID: "7", Quantity: 2}, {LessonID: "8", Quantity: 1}},
	}
	require.NoError(t, repo.CreateOrder(context.Background(), o))
	assert.Equal(t, "42", o.ID)
}

func TestOrderRepo_CreateOrder_RollsBackOnItemFailure(t *testing.T) {
	_, repo, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO orders").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO order_lessons").WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	o := &model.Order{FullName: "Ada", PhoneNumber: "555", Lessons: []model.LineItem{{LessonID: "7", Quantity: 1}}}
	require.Error(t, repo.CreateOrder(context.Background(), o))
	assert.Empty(t, o.ID)
}

func TestOrderRepo_ListOrders(t *testing.T) {
	_, repo, mock := newMockDB(t)

	mock.ExpectQuery("SELECT id, full_name, phone_number FROM orders").
		WillReturnRows(sqlmock.NewRows([]string{"id", "full_name", "phone_number"}).
			AddRow(1, "Ada", "555").
			AddRow(2, "Grace", "777"))
	mock.ExpectQuery("SELECT order_id, lesson_id, quantity FROM order_lessons").
		WillReturnRows(sqlmock.NewRows([]string{"order_id", "lesson_id", "quantity"}).
			AddRow(1, "7", 2).
			AddRow(1, "8", 1))

	got, err := repo.ListOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, []model.LineItem{{LessonID: "7", Quantity: 2}, {LessonID: "8", Quantity: 1}}, got[0].Lessons)
	assert.Equal(t, "Grace", got[1].FullName)
	assert.Empty(t, got[1].Lessons)
}
