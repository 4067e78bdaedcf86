package commands

import (
	"database/sql"
	"log/slog"

	"github.com/dotcommander/agentflow/internal/app"
	"github.com/dotcommander/agentflow/internal/output"
	"github.com/dotcommander/agentflow/internal/store"
)

// DB is an alias so command code doesn't need to import database/sql.
type DB = sql.DB

type printedError struct {
	err error
}

func (e printedError) Error() string {
	// Intentionally hide the original error: the JSON error response is the output.
	return "error already printed"
}

func openDB() (*DB, func(), error) {
	dbPath, err := app.GetDBPath()
	if err != nil {
		return nil, nil, err
	}

	db, err := store.InitDBWithPath(dbPath)
	if err != nil {
		return nil, nil, err
	}

	return db, func() { _ = db.Close() }, nil
}

func withDB(fn func(db *DB) error) error {
	db, closeDB, err := openDB()
	if err != nil {
		return cmdErr(err)
	}
	defer closeDB()

	if err := fn(db); err != nil {
		return cmdErr(err)
	}
	return nil
}

// cmdErr prints the JSON error envelope once and wraps the error so the
// root command doesn't print it a second time.
func cmdErr(err error) error {
	if err == nil {
		return nil
	}
	if printErr := output.PrintError(err); printErr != nil {
		slog.Error("failed to print error response", "error", printErr.Error())
	}
	return printedError{err: err}
}
