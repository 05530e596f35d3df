package database

import "database/sql"

type holdingRow struct {
	Symbol    string `db:"symbol"`
	Amount    string `db:"amount"`
	SortOrder int    `db:"sort_order"`
}

type alertRow struct {
	ID            string         `db:"id"`
	Symbol        string         `db:"symbol"`
	Type          string         `db:"type"`
	Threshold     string         `db:"threshold"`
	Active        bool           `db:"active"`
	Triggered     bool           `db:"triggered"`
	LastTriggered sql.NullString `db:"last_triggered"`
	CreatedAt     string         `db:"created_at"`
}
