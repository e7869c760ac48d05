package postgres

import (
	"fmt"
	"log"
	"time"

	"insurance-service/internal/config"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

var DB_Status bool

const schema = `
CREATE TABLE IF NOT EXISTS tariffs (
	id SERIAL PRIMARY KEY,
	date DATE NOT NULL,
	cargo_type TEXT NOT NULL,
	rate DOUBLE PRECISION NOT NULL,
	UNIQUE (cargo_type, date)
);

CREATE TABLE IF NOT EXISTS insurance_costs (
	id SERIAL PRIMARY KEY,
	tariff_id INTEGER NOT NULL REFERENCES tariffs(id) ON DELETE CASCADE ON UPDATE CASCADE,
	declared_price DOUBLE PRECISION NOT NULL,
	insurance_cost DOUBLE PRECISION NOT NULL
);
`

func ConnectAndCreateDB(cfg config.PostgresConfig) (*sqlx.DB, error) {
	targetConnStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.DBname)

	db, err := sqlx.Connect("postgres", targetConnStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to target database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping target database: %w", err)
	}

	if err := EnsureTables(db); err != nil {
		return nil, err
	}
	DB_Status = true

	return db, nil
}

// EnsureTables creates the tariffs and insurance_costs tables when absent.
func EnsureTables(db *sqlx.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}

// RetryConnectOnFailed keeps retrying the connection until it comes up,
// replacing *db in place so callers holding the pointer see the new handle.
func RetryConnectOnFailed(wait time.Duration, db **sqlx.DB, cfg config.PostgresConfig) {
	if DB_Status {
		log.Printf("database already connected, abort retry")
		return
	}

	if *db != nil {
		if err := (*db).Ping(); err == nil {
			log.Printf("database connection is healthy, no retry needed")
			return
		} else {
			log.Printf("failed to ping target database: %s, retry db connection", err)
		}
	} else {
		log.Printf("database connection is nil, attempting to reconnect...")
	}

	newDB, err := ConnectAndCreateDB(cfg)
	if err == nil {
		*db = newDB
		log.Printf("database retry connection successfully")
		return
	}
	log.Printf("failed to retry connect database: %s, next retry in %v", err, wait)
	time.Sleep(wait)

	RetryConnectOnFailed(wait, db, cfg)
}
