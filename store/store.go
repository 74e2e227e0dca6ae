// Package store persists assembled tables into PostgreSQL.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/finextract/ocr-financial-extraction/dto"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB is the subset of pgxpool.Pool the store needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store writes records row by row, one transaction per document.
type Store struct {
	db DB
}

// New creates a new store
func New(db DB) *Store {
	return &Store{db: db}
}

// Connect opens a connection pool and checks it with a ping.
func Connect(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS bank_statements (
	id          BIGSERIAL PRIMARY KEY,
	document_id UUID NOT NULL,
	source      TEXT NOT NULL,
	date        DATE NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	debit       NUMERIC(18,4) NOT NULL DEFAULT 0,
	credit      NUMERIC(18,4) NOT NULL DEFAULT 0,
	balance     NUMERIC(18,4) NOT NULL DEFAULT 0,
	category    TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS invoices (
	id          BIGSERIAL PRIMARY KEY,
	document_id UUID NOT NULL,
	source      TEXT NOT NULL,
	product_id  TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	quantity    INTEGER NOT NULL DEFAULT 0,
	unit_price  NUMERIC(18,4) NOT NULL DEFAULT 0,
	total       NUMERIC(18,4) NOT NULL DEFAULT 0,
	category    TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS profit_loss (
	id          BIGSERIAL PRIMARY KEY,
	document_id UUID NOT NULL,
	source      TEXT NOT NULL,
	section     TEXT NOT NULL DEFAULT '',
	category    TEXT NOT NULL DEFAULT '',
	date        DATE,
	description TEXT NOT NULL DEFAULT '',
	revenue     NUMERIC(18,4) NOT NULL DEFAULT 0,
	expenses    NUMERIC(18,4) NOT NULL DEFAULT 0,
	net_profit  NUMERIC(18,4) NOT NULL DEFAULT 0,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// EnsureSchema creates the record tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

const (
	insertTransaction = `INSERT INTO bank_statements (document_id, source, date, description, debit, credit, balance, category)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	insertInvoiceItem = `INSERT INTO invoices (document_id, source, product_id, description, quantity, unit_price, total, category)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	insertPnLEntry = `INSERT INTO profit_loss (document_id, source, section, category, date, description, revenue, expenses, net_profit)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
)

// SaveTable inserts every record of table under documentID and returns the
// number of rows written. Either all rows are written or none.
func (s *Store) SaveTable(ctx context.Context, documentID uuid.UUID, source string, table *dto.Table) (int, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	n := 0
	switch table.Kind {
	case dto.KindTransaction:
		for _, r := range table.Transactions {
			if _, err := tx.Exec(ctx, insertTransaction, documentID, source, r.Date.Time, r.Description,
				r.Debit.String(), r.Credit.String(), r.Balance.String(), r.Category); err != nil {
				return 0, fmt.Errorf("insert transaction %d: %w", n, err)
			}
			n++
		}
	case dto.KindInvoice:
		for _, r := range table.Items {
			if _, err := tx.Exec(ctx, insertInvoiceItem, documentID, source, r.ProductID, r.Description,
				r.Quantity, r.UnitPrice.String(), r.Total.String(), r.Category); err != nil {
				return 0, fmt.Errorf("insert invoice item %d: %w", n, err)
			}
			n++
		}
	case dto.KindPnL:
		for _, r := range table.Entries {
			if _, err := tx.Exec(ctx, insertPnLEntry, documentID, source, r.Section, r.Category, nullableDate(r.Date),
				r.Description, r.Revenue.String(), r.Expenses.String(), r.NetProfit.String()); err != nil {
				return 0, fmt.Errorf("insert profit and loss entry %d: %w", n, err)
			}
			n++
		}
	default:
		return 0, fmt.Errorf("cannot store document kind %s", table.Kind)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}

func nullableDate(d dto.Date) *time.Time {
	if d.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}
