package etl

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunLog_Start(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("INSERT INTO raw.etl_log").
		WithArgs("ozon", "/v2/analytics/stock_on_warehouses").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(7)))

	id, err := NewRunLog(mock).Start(context.Background(), "ozon", "/v2/analytics/stock_on_warehouses")
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunLog_Complete(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("UPDATE raw.etl_log").
		WithArgs(int64(120), "raw=120, norm=118", int64(7)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err = NewRunLog(mock).Complete(context.Background(), 7, 120, "raw=120, norm=118")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunLog_Fail(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("UPDATE raw.etl_log").
		WithArgs("api: HTTP 500: boom", int64(7)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err = NewRunLog(mock).Fail(context.Background(), 7, "api: HTTP 500: boom")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunLog_StartError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("INSERT INTO raw.etl_log").
		WithArgs("wb", "/report").
		WillReturnError(fmt.Errorf("relation does not exist"))

	_, err = NewRunLog(mock).Start(context.Background(), "wb", "/report")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "start run for wb")
}

func TestRunLog_List(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	started := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	finished := started.Add(42 * time.Second)
	rows := pgxmock.NewRows([]string{"id", "source", "endpoint", "started_at", "finished_at", "status", "rows_loaded", "message"}).
		AddRow(int64(2), "wb", "/report", started, &finished, StatusOK, int64(118), "ok").
		AddRow(int64(1), "ozon", "/stock", started.Add(-time.Hour), (*time.Time)(nil), StatusRunning, int64(0), "")

	mock.ExpectQuery("SELECT id, source, endpoint").
		WithArgs(10).
		WillReturnRows(rows)

	entries, err := NewRunLog(mock).List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "wb", entries[0].Source)
	assert.Equal(t, StatusOK, entries[0].Status)
	assert.NotNil(t, entries[0].FinishedAt)
	assert.Nil(t, entries[1].FinishedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}
