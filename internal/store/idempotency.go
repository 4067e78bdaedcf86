package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

var ErrIdempotencyInProgress = errors.New("idempotency in progress")

// beginIdempotencyTx claims the (user_id, request_id) key for this
// transaction, or hands back the stored result_json when a prior call
// already finished under that key.
//
// Unexported on purpose: the claim, the operation's writes, and the result
// store must land in one transaction, which RunIdempotent guarantees. A
// caller that claims here and commits early strands an empty row that every
// later replay will read as in-progress.
func beginIdempotencyTx(tx *sql.Tx, userID, requestID, command string) (storedResultJSON string, replay bool, err error) {
	if userID == "" {
		return "", false, fmt.Errorf("user id is required")
	}
	if requestID == "" {
		return "", false, fmt.Errorf("request id is required")
	}
	if command == "" {
		return "", false, fmt.Errorf("idempotency command is required")
	}

	_, err = tx.Exec(`
		INSERT INTO idempotency (user_id, request_id, command, result_json)
		VALUES (?, ?, ?, '')
	`, userID, requestID, command)
	if err == nil {
		return "", false, nil
	}
	if !IsUniqueConstraintErr(err) {
		return "", false, fmt.Errorf("claim request %s: %w", requestID, err)
	}

	// Key already taken: either a finished call to replay or a concurrent
	// one still running.
	var priorCommand, resultJSON string
	if err := tx.QueryRow(`
		SELECT command, result_json
		FROM idempotency
		WHERE user_id = ? AND request_id = ?
	`, userID, requestID).Scan(&priorCommand, &resultJSON); err != nil {
		return "", false, fmt.Errorf("load prior request %s: %w", requestID, err)
	}
	if priorCommand != command {
		return "", false, fmt.Errorf("request id collision: %q was used for %q, now %q", requestID, priorCommand, command)
	}
	if strings.TrimSpace(resultJSON) == "" {
		return "", false, &IdempotencyInProgressError{UserID: userID, RequestID: requestID, Command: command}
	}
	return resultJSON, true, nil
}

// completeIdempotencyTx stores the operation's encoded result under its
// claimed key. An empty result is rejected; it would make the row look
// still in progress.
func completeIdempotencyTx(tx *sql.Tx, userID, requestID, resultJSON string) error {
	if resultJSON == "" {
		return fmt.Errorf("idempotency result json must be non-empty")
	}
	res, err := tx.Exec(`
		UPDATE idempotency
		SET result_json = ?
		WHERE user_id = ? AND request_id = ?
	`, resultJSON, userID, requestID)
	if err != nil {
		return fmt.Errorf("store result for request %s: %w", requestID, err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store result for request %s: %w", requestID, err)
	}
	if ra != 1 {
		return fmt.Errorf("no claimed row for user=%q request_id=%q", userID, requestID)
	}
	return nil
}

// IsUniqueConstraintErr reports whether err is a SQLite unique constraint
// violation. modernc.org/sqlite surfaces these as text only:
//
//	"constraint failed: UNIQUE constraint failed: table.col (2067)"
//
// so this matches on the message. Revisit if the driver ever grows typed
// constraint errors.
func IsUniqueConstraintErr(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
