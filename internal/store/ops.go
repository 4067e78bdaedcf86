package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

// Request replay for mutating operations. Each mutation claims its
// (user_id, request_id) key inside the same transaction as its writes; a
// second call with the same key gets the stored result back instead of a
// second side effect.

// runAttempt performs one claim-work-store cycle in a fresh transaction.
// retryable reports whether the caller may try again; a replayed or
// committed attempt never is.
func runAttempt[T any](
	db *sql.DB,
	userID, requestID, command string,
	operation func(tx *sql.Tx) (T, error),
) (out T, replayed bool, retryable bool, err error) {
	tx, err := db.Begin()
	if err != nil {
		return out, false, false, fmt.Errorf("begin replay tx: %w", err)
	}

	stored, hit, err := beginIdempotencyTx(tx, userID, requestID, command)
	if err != nil {
		_ = tx.Rollback()
		return out, false, true, err
	}

	if hit {
		if err := json.Unmarshal([]byte(stored), &out); err != nil {
			_ = tx.Rollback()
			return out, false, false, fmt.Errorf("decode stored result for request %s: %w", requestID, err)
		}
		if err := tx.Commit(); err != nil {
			return out, false, false, fmt.Errorf("commit replay tx: %w", err)
		}
		return out, true, false, nil
	}

	out, err = operation(tx)
	if err != nil {
		_ = tx.Rollback()
		return out, false, true, err
	}

	encoded, err := json.Marshal(out)
	if err != nil {
		_ = tx.Rollback()
		return out, false, false, fmt.Errorf("encode result for request %s: %w", requestID, err)
	}
	if err := completeIdempotencyTx(tx, userID, requestID, string(encoded)); err != nil {
		_ = tx.Rollback()
		return out, false, true, err
	}

	if err := tx.Commit(); err != nil {
		return out, false, false, fmt.Errorf("commit replay tx: %w", err)
	}
	return out, false, false, nil
}

// RunIdempotent runs operation at most once per (user_id, request_id,
// command). A repeat call returns the first call's decoded result without
// touching the store again.
func RunIdempotent[T any](db *sql.DB, userID, requestID, command string, operation func(tx *sql.Tx) (T, error)) (T, error) {
	out, _, err := RunIdempotentWithRetry(db, userID, requestID, command, 1, nil, operation)
	return out, err
}

// RunIdempotentWithRetry is RunIdempotent with bounded re-attempts on
// errors the caller marks retryable, such as a lost CAS race. Each attempt
// runs in its own transaction. replayed is true when the result came from a
// stored record rather than this call's work.
func RunIdempotentWithRetry[T any](
	db *sql.DB,
	userID, requestID, command string,
	maxAttempts int,
	shouldRetry func(error) bool,
	operation func(tx *sql.Tx) (T, error),
) (result T, replayed bool, err error) {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		out, hit, retryable, err := runAttempt(db, userID, requestID, command, operation)
		if err == nil || !retryable {
			return out, hit, err
		}
		if shouldRetry == nil || !shouldRetry(err) || attempt == maxAttempts {
			return out, false, err
		}
	}

	return result, false, fmt.Errorf("request %s: attempts exhausted", requestID)
}
