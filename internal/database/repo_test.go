package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptodash/internal/models"
)

func setupSQLite(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := Open(context.Background(), "", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func setupPostgres(t *testing.T) *sqlx.DB {
	t.Helper()
	url := os.Getenv("POSTGRES_URL")
	if url == "" {
		t.Skip("POSTGRES_URL is not set; skipping integration tests")
	}
	db, err := Open(context.Background(), url, "")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func exerciseHoldings(t *testing.T, db *sqlx.DB) {
	ctx := context.Background()
	r := New(db, logrus.New())

	first := []models.Holding{
		{Symbol: "PEPE", Amount: decimal.RequireFromString("32510000")},
		{Symbol: "BTC", Amount: decimal.RequireFromString("1.0037")},
		{Symbol: "ETH", Amount: decimal.RequireFromString("18.4697")},
	}
	require.NoError(t, r.SaveHoldings(ctx, first))

	got, err := r.LoadHoldings(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i := range first {
		assert.Equal(t, first[i].Symbol, got[i].Symbol, "order is preserved")
		assert.True(t, first[i].Amount.Equal(got[i].Amount), "%s: %s != %s", first[i].Symbol, first[i].Amount, got[i].Amount)
	}

	require.NoError(t, r.SaveHoldings(ctx, first[:1]))
	got, err = r.LoadHoldings(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1, "save replaces the collection")

	require.NoError(t, r.SaveHoldings(ctx, nil))
	got, err = r.LoadHoldings(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func exerciseAlerts(t *testing.T, db *sqlx.DB) {
	ctx := context.Background()
	r := New(db, logrus.New())

	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	fired := created.Add(time.Hour)
	alerts := []models.Alert{
		{ID: "a1", Symbol: "BTC", Type: models.AlertPriceAbove, Threshold: decimal.RequireFromString("70000"), Active: true, CreatedAt: created},
		{ID: "a2", Symbol: "ETH", Type: models.AlertTVLChange, Threshold: decimal.RequireFromString("5.5"), Active: false, Triggered: true, LastTriggered: &fired, CreatedAt: created.Add(time.Minute)},
	}
	require.NoError(t, r.SaveAlerts(ctx, alerts))

	got, err := r.LoadAlerts(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "a1", got[0].ID)
	assert.True(t, got[0].Active)
	assert.False(t, got[0].Triggered)
	assert.Nil(t, got[0].LastTriggered)
	assert.True(t, got[0].CreatedAt.Equal(created))

	assert.Equal(t, models.AlertTVLChange, got[1].Type)
	assert.True(t, got[1].Threshold.Equal(decimal.RequireFromString("5.5")))
	assert.True(t, got[1].Triggered)
	require.NotNil(t, got[1].LastTriggered)
	assert.True(t, got[1].LastTriggered.Equal(fired))
}

func TestSQLite_Holdings(t *testing.T) {
	exerciseHoldings(t, setupSQLite(t))
}

func TestSQLite_Alerts(t *testing.T) {
	exerciseAlerts(t, setupSQLite(t))
}

func TestSQLite_MigrateIsIdempotent(t *testing.T) {
	db := setupSQLite(t)
	require.NoError(t, Migrate(context.Background(), db))
}

func TestPostgres_HoldingsAndAlerts(t *testing.T) {
	db := setupPostgres(t)
	exerciseHoldings(t, db)
	exerciseAlerts(t, db)
}
