package migrations

import (
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigration(upCredentials, downCredentials)
}

func upCredentials(tx *sql.Tx) error {
	_, err := tx.Exec(`
	CREATE TABLE credentials (
		key VARCHAR PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	`)
	if err != nil {
		return err
	}
	return nil
}

func downCredentials(tx *sql.Tx) error {
	_, err := tx.Exec(`
	DROP TABLE credentials;
	`)
	if err != nil {
		return err
	}
	return nil
}
