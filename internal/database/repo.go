package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"cryptodash/internal/models"
)

// Repo persists the holdings and alerts collections. Each save replaces the
// whole collection inside one transaction.
type Repo struct {
	db  *sqlx.DB
	log *logrus.Logger
}

func New(db *sqlx.DB, log *logrus.Logger) *Repo {
	return &Repo{db: db, log: log}
}

func (r *Repo) LoadHoldings(ctx context.Context) ([]models.Holding, error) {
	rows := []holdingRow{}
	if err := r.db.SelectContext(ctx, &rows, `SELECT symbol, amount, sort_order FROM holdings ORDER BY sort_order ASC, symbol ASC`); err != nil {
		return nil, fmt.Errorf("query holdings: %w", err)
	}
	res := make([]models.Holding, 0, len(rows))
	for _, row := range rows {
		amount, err := decimal.NewFromString(row.Amount)
		if err != nil {
			r.log.Warnf("skipping holding %s with unreadable amount %q: %v", row.Symbol, row.Amount, err)
			continue
		}
		res = append(res, models.Holding{Symbol: row.Symbol, Amount: amount})
	}
	return res, nil
}

func (r *Repo) SaveHoldings(ctx context.Context, holdings []models.Holding) error {
	return r.replace(ctx, "holdings", func(tx *sqlx.Tx) error {
		q := tx.Rebind(`INSERT INTO holdings (symbol, amount, sort_order, updated_at) VALUES (?, ?, ?, ?)`)
		now := time.Now().UTC()
		for i, h := range holdings {
			if _, err := tx.ExecContext(ctx, q, h.Symbol, h.Amount.String(), i, now); err != nil {
				return fmt.Errorf("insert holding %s: %w", h.Symbol, err)
			}
		}
		return nil
	})
}

func (r *Repo) LoadAlerts(ctx context.Context) ([]models.Alert, error) {
	rows := []alertRow{}
	if err := r.db.SelectContext(ctx, &rows, `SELECT id, symbol, type, threshold, active, triggered, last_triggered, created_at FROM alerts ORDER BY created_at ASC, id ASC`); err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	res := make([]models.Alert, 0, len(rows))
	for _, row := range rows {
		threshold, err := decimal.NewFromString(row.Threshold)
		if err != nil {
			r.log.Warnf("skipping alert %s with unreadable threshold %q: %v", row.ID, row.Threshold, err)
			continue
		}
		a := models.Alert{
			ID:        row.ID,
			Symbol:    row.Symbol,
			Type:      models.AlertType(row.Type),
			Threshold: threshold,
			Active:    row.Active,
			Triggered: row.Triggered,
		}
		if ts, err := time.Parse(time.RFC3339Nano, row.CreatedAt); err == nil {
			a.CreatedAt = ts
		}
		if row.LastTriggered.Valid {
			if ts, err := time.Parse(time.RFC3339Nano, row.LastTriggered.String); err == nil {
				a.LastTriggered = &ts
			}
		}
		res = append(res, a)
	}
	return res, nil
}

func (r *Repo) SaveAlerts(ctx context.Context, alerts []models.Alert) error {
	return r.replace(ctx, "alerts", func(tx *sqlx.Tx) error {
		q := tx.Rebind(`INSERT INTO alerts (id, symbol, type, threshold, active, triggered, last_triggered, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
		for _, a := range alerts {
			var last sql.NullString
			if a.LastTriggered != nil {
				last = sql.NullString{String: a.LastTriggered.UTC().Format(time.RFC3339Nano), Valid: true}
			}
			created := a.CreatedAt.UTC().Format(time.RFC3339Nano)
			if _, err := tx.ExecContext(ctx, q, a.ID, a.Symbol, string(a.Type), a.Threshold.String(), a.Active, a.Triggered, last, created); err != nil {
				return fmt.Errorf("insert alert %s: %w", a.ID, err)
			}
		}
		return nil
	})
}

// replace empties table and refills it with fill inside a transaction.
func (r *Repo) replace(ctx context.Context, table string, fill func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin %s tx: %w", table, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		return fmt.Errorf("clear %s: %w", table, err)
	}
	if err := fill(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", table, err)
	}
	return nil
}
