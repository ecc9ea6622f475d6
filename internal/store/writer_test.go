package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aurelien-L/bookcrawler/internal/catalog"
	"github.com/Aurelien-L/bookcrawler/internal/store"
)

func normalizedRecord() catalog.Record {
	return catalog.Record{
		ExternalID:   "a897fe39b1053632",
		Title:        "A Light in the Attic",
		Description:  "Its hard to imagine a world without it.",
		Category:     "Poetry",
		Rating:       3,
		Price:        51.77,
		Availability: catalog.InStock,
		StockCount:   22,
	}
}

func TestSaveCommitsOneTransaction(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	w, err := store.NewWriterWithPool(mock, nil)
	require.NoError(t, err)

	rec := normalizedRecord()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO categories").
		WithArgs(rec.Category).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectQuery("INSERT INTO items").
		WithArgs(rec.ExternalID, rec.Title, rec.Description, int64(7), rec.Rating).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(42)))
	mock.ExpectExec("INSERT INTO stock_records").
		WithArgs(int64(42), rec.Price, string(rec.Availability), rec.StockCount).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	require.NoError(t, w.Save(context.Background(), rec))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveRollsBackWhenStockInsertFails(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	w, err := store.NewWriterWithPool(mock, nil)
	require.NoError(t, err)

	rec := normalizedRecord()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO categories").
		WithArgs(rec.Category).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectQuery("INSERT INTO items").
		WithArgs(rec.ExternalID, rec.Title, rec.Description, int64(7), rec.Rating).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(42)))
	mock.ExpectExec("INSERT INTO stock_records").
		WithArgs(int64(42), rec.Price, string(rec.Availability), rec.StockCount).
		WillReturnError(errors.New("connection lost"))
	mock.ExpectRollback()

	err = w.Save(context.Background(), rec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert stock record")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveRollsBackWhenItemUpsertFails(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	w, err := store.NewWriterWithPool(mock, nil)
	require.NoError(t, err)

	rec := normalizedRecord()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO categories").
		WithArgs(rec.Category).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectQuery("INSERT INTO items").
		WithArgs(rec.ExternalID, rec.Title, rec.Description, int64(7), rec.Rating).
		WillReturnError(errors.New("value too long"))
	mock.ExpectRollback()

	err = w.Save(context.Background(), rec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upsert item")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveSurfacesBeginFailure(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	w, err := store.NewWriterWithPool(mock, nil)
	require.NoError(t, err)

	mock.ExpectBegin().WillReturnError(errors.New("pool exhausted"))

	err = w.Save(context.Background(), normalizedRecord())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "begin ingest transaction")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewWriterWithPoolRequiresPool(t *testing.T) {
	t.Parallel()

	_, err := store.NewWriterWithPool(nil, nil)
	require.Error(t, err)
}

func TestNewWriterRequiresDSN(t *testing.T) {
	t.Parallel()

	_, err := store.NewWriter(context.Background(), store.Config{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db.dsn is required")
}
