package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dotcommander/agentflow/internal/models"
)

// Log payload size constraints enforced by ValidateLogPayload.
const (
	MaxLogMessageLength  = 4096
	MaxLogMetadataLength = 16384
)

// ValidateLogPayload enforces activity-log payload constraints for
// durability and safety.
func ValidateLogPayload(logType, message, metadata string) error {
	logType = strings.TrimSpace(logType)
	message = strings.TrimSpace(message)

	if logType == "" {
		return errors.New("log type is required")
	}
	if !models.IsValidLogType(logType) {
		return fmt.Errorf("unknown log type %q", logType)
	}
	if message == "" {
		return errors.New("log message is required")
	}
	if len(message) > MaxLogMessageLength {
		return fmt.Errorf("log message exceeds max length (%d)", MaxLogMessageLength)
	}
	if metadata != "" {
		if len(metadata) > MaxLogMetadataLength {
			return fmt.Errorf("log metadata exceeds max length (%d)", MaxLogMetadataLength)
		}
		if !json.Valid([]byte(metadata)) {
			return errors.New("log metadata must be valid JSON")
		}
	}

	return nil
}

// AppendLogParams holds one activity-log append. UserID and TaskID are
// optional attribution.
type AppendLogParams struct {
	AgentID  string
	UserID   string
	LogType  string
	Message  string
	TaskID   string
	Metadata string
}

// AppendLogTx inserts one activity-log row in an existing transaction.
// The log is append-only; there is no update or delete path.
func AppendLogTx(tx *sql.Tx, p AppendLogParams) (int64, error) {
	if p.AgentID == "" {
		return 0, errors.New("agent id is required")
	}
	if err := ValidateLogPayload(p.LogType, p.Message, p.Metadata); err != nil {
		return 0, err
	}

	var userVal, taskVal, metaVal any
	if p.UserID != "" {
		userVal = p.UserID
	}
	if p.TaskID != "" {
		taskVal = p.TaskID
	}
	if p.Metadata != "" {
		metaVal = p.Metadata
	}

	result, err := tx.ExecContext(context.Background(), `
		INSERT INTO agent_logs (agent_id, user_id, log_type, message, task_id, metadata)
		VALUES (?, ?, ?, ?, ?, ?)
	`, p.AgentID, userVal, p.LogType, p.Message, taskVal, metaVal)
	if err != nil {
		return 0, fmt.Errorf("failed to insert log entry: %w", err)
	}

	entryID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return entryID, nil
}

// AppendLog inserts one activity-log row in its own transaction.
func AppendLog(db *sql.DB, p AppendLogParams) (int64, error) {
	var entryID int64
	err := Transact(db, func(tx *sql.Tx) error {
		id, err := AppendLogTx(tx, p)
		if err != nil {
			return err
		}
		entryID = id
		return nil
	})
	if err != nil {
		return 0, err
	}
	return entryID, nil
}

// ListLogs returns activity-log entries for an agent, newest first,
// optionally filtered by log type.
func ListLogs(db *sql.DB, agentID, typeFilter string, limit int) ([]*models.LogEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, agent_id, user_id, log_type, message, task_id, metadata, created_at
		FROM agent_logs WHERE agent_id = ?`
	args := []any{agentID}

	if typeFilter != "" {
		query += ` AND log_type = ?`
		args = append(args, typeFilter)
	}

	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := db.QueryContext(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query logs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []*models.LogEntry
	for rows.Next() {
		entry, err := scanLogRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan log row: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// CountLogs returns the number of log entries for an agent, optionally
// filtered by log type.
func CountLogs(db *sql.DB, agentID, typeFilter string) (int, error) {
	query := `SELECT COUNT(*) FROM agent_logs WHERE agent_id = ?`
	args := []any{agentID}
	if typeFilter != "" {
		query += ` AND log_type = ?`
		args = append(args, typeFilter)
	}

	var count int
	if err := db.QueryRowContext(context.Background(), query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count logs: %w", err)
	}
	return count, nil
}

func scanLogRow(rows *sql.Rows) (*models.LogEntry, error) {
	var entry models.LogEntry
	var userID, taskID, metadata sql.NullString
	err := rows.Scan(
		&entry.ID,
		&entry.AgentID,
		&userID,
		&entry.LogType,
		&entry.Message,
		&taskID,
		&metadata,
		&entry.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	entry.UserID = scanNullString(userID)
	entry.TaskID = scanNullString(taskID)
	if metadata.Valid && metadata.String != "" {
		entry.Metadata = json.RawMessage(metadata.String)
	}
	return &entry, nil
}
