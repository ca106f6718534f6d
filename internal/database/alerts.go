package database

import (
	"database/sql"
	"fmt"
	"log"

	"pairwatch-telegram-bot/internal/types"

	_ "modernc.org/sqlite"
)

// InsertAlert saves an alert to the database, overwriting any record with the same id.
func InsertAlert(a types.Alert) error {
	query := `
	INSERT OR REPLACE INTO alerts (id, chat_id, pair_address, token_name, token_symbol, chain, condition, target, reference_price)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);`

	_, err := DB.Exec(query, a.ID, a.ChatID, a.PairAddress, a.TokenName, a.TokenSymbol, a.Chain, a.Condition, a.Target, a.ReferencePrice)
	if err != nil {
		return fmt.Errorf("failed to insert alert: %w", err)
	}

	log.Printf("Alert inserted: ID: %s, ChatID: %d, Pair: %s, Condition: %s, Target: %f", a.ID, a.ChatID, a.PairAddress, a.Condition, a.Target)
	return nil
}

// DeleteAlert removes an alert and returns the prior record, or nil if the id
// was already gone. Deleting an absent id is not an error.
func DeleteAlert(alertID string) (*types.Alert, error) {
	tx, err := DB.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin delete transaction: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRow(`SELECT id, chat_id, pair_address, token_name, token_symbol, chain, condition, target, reference_price, created_at FROM alerts WHERE id = ?;`, alertID)

	var a types.Alert
	err = row.Scan(&a.ID, &a.ChatID, &a.PairAddress, &a.TokenName, &a.TokenSymbol, &a.Chain, &a.Condition, &a.Target, &a.ReferencePrice, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to read alert %s: %w", alertID, err)
	}

	if _, err := tx.Exec(`DELETE FROM alerts WHERE id = ?;`, alertID); err != nil {
		return nil, fmt.Errorf("failed to delete alert %s: %w", alertID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit delete of alert %s: %w", alertID, err)
	}
	return &a, nil
}

// GetAllAlerts fetches a snapshot of every pending alert.
func GetAllAlerts() ([]types.Alert, error) {
	query := `SELECT id, chat_id, pair_address, token_name, token_symbol, chain, condition, target, reference_price, created_at FROM alerts;`

	rows, err := DB.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	return scanAlerts(rows)
}

// GetAlertsByChatID fetches all pending alerts for a specific chat ID.
func GetAlertsByChatID(chatID int64) ([]types.Alert, error) {
	query := `SELECT id, chat_id, pair_address, token_name, token_symbol, chain, condition, target, reference_price, created_at FROM alerts WHERE chat_id = ?;`

	rows, err := DB.Query(query, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts for chat ID %d: %w", chatID, err)
	}
	defer rows.Close()

	return scanAlerts(rows)
}

func scanAlerts(rows *sql.Rows) ([]types.Alert, error) {
	var alerts []types.Alert
	for rows.Next() {
		var a types.Alert
		if err := rows.Scan(&a.ID, &a.ChatID, &a.PairAddress, &a.TokenName, &a.TokenSymbol, &a.Chain, &a.Condition, &a.Target, &a.ReferencePrice, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}
