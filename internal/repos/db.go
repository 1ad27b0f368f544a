package repos

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.mongodb.org/mongo-driver/bson/primitive"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by single-record lookups that match nothing.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned when a unique column would be violated.
var ErrDuplicate = errors.New("duplicate record")

func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// One connection: keeps ":memory:" databases shared and serialises writers.
	db.SetMaxOpenConns(1)
	if err = db.Ping(); err != nil {
		return nil, err
	}
	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	return db, nil
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
PRAGMA foreign_keys = OFF;

CREATE TABLE IF NOT EXISTS users(
  id TEXT PRIMARY KEY,
  firebase_uid TEXT NOT NULL UNIQUE,
  username TEXT NOT NULL DEFAULT '',
  email TEXT NOT NULL,
  role TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('user','seller','admin')),
  photo_url TEXT NOT NULL DEFAULT '',
  is_active INTEGER NOT NULL DEFAULT 1,
  seller_requested INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME NOT NULL,
  updated_at DATETIME NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(LOWER(email));

CREATE TABLE IF NOT EXISTS categories(
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL UNIQUE,
  image TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS products(
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL DEFAULT '',
  generic TEXT NOT NULL DEFAULT '',
  description TEXT NOT NULL DEFAULT '',
  brand TEXT NOT NULL DEFAULT '',
  image TEXT NOT NULL DEFAULT '',
  category_id TEXT NOT NULL DEFAULT '',
  company TEXT NOT NULL DEFAULT '',
  mass_unit TEXT NOT NULL DEFAULT '',
  price NUMERIC NOT NULL DEFAULT 0 CHECK (price >= 0),
  discount NUMERIC NOT NULL DEFAULT 0 CHECK (discount >= 0),
  seller_id TEXT NOT NULL DEFAULT '',
  stock INTEGER NOT NULL DEFAULT 0,
  is_advertised INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_products_category ON products(category_id);
CREATE INDEX IF NOT EXISTS idx_products_seller   ON products(seller_id);

CREATE TABLE IF NOT EXISTS payments(
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  items TEXT NOT NULL DEFAULT '[]',
  status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending','paid')),
  amount NUMERIC NOT NULL DEFAULT 0,
  payment_intent_id TEXT NOT NULL DEFAULT '',
  method TEXT NOT NULL DEFAULT '',
  date DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_payments_user ON payments(user_id);

CREATE TABLE IF NOT EXISTS invoices(
  id TEXT PRIMARY KEY,
  payment_id TEXT NOT NULL,
  invoice_number TEXT NOT NULL,
  date DATETIME NOT NULL,
  user_id TEXT NOT NULL,
  items TEXT NOT NULL DEFAULT '[]',
  total NUMERIC NOT NULL DEFAULT 0,
  status TEXT NOT NULL DEFAULT 'pending'
);
CREATE INDEX IF NOT EXISTS idx_invoices_payment ON invoices(payment_id);
CREATE INDEX IF NOT EXISTS idx_invoices_user    ON invoices(user_id);

CREATE TABLE IF NOT EXISTS seller_payments(
  id TEXT PRIMARY KEY,
  seller_id TEXT NOT NULL,
  invoice_id TEXT NOT NULL,
  amount NUMERIC NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending','paid')),
  created_at DATETIME NOT NULL,
  paid_at DATETIME
);
CREATE INDEX IF NOT EXISTS idx_seller_payments_seller ON seller_payments(seller_id);

CREATE TABLE IF NOT EXISTS admin_payment_requests(
  id TEXT PRIMARY KEY,
  seller_payment_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending','accepted')),
  created_at DATETIME NOT NULL,
  accepted_at DATETIME
);
CREATE INDEX IF NOT EXISTS idx_admin_requests_sp ON admin_payment_requests(seller_payment_id);

CREATE TABLE IF NOT EXISTS banners(
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  image TEXT NOT NULL DEFAULT '',
  description TEXT NOT NULL DEFAULT '',
  product_id TEXT NOT NULL DEFAULT '',
  seller_id TEXT NOT NULL DEFAULT '',
  slide INTEGER NOT NULL DEFAULT 0,
  status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending','live'))
);

CREATE TABLE IF NOT EXISTS carts(
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL UNIQUE,
  items TEXT NOT NULL DEFAULT '[]',
  updated_at DATETIME NOT NULL
);
`
	_, err := db.Exec(schema)
	return err
}

// Seed inserts demo categories and mirrors an admin account (idempotent).
func Seed(ctx context.Context, db *sqlx.DB, adminUID, adminEmail string) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, name := range []string{"Tablets", "Syrups", "Capsules", "Injections", "Ointments", "Drops"} {
		if _, err := tx.ExecContext(ctx, `INSERT INTO categories(id,name,image) VALUES(?,?,'') ON CONFLICT(name) DO NOTHING`,
			NewID(), name); err != nil {
			return err
		}
	}
	if adminUID != "" {
		now := time.Now().UTC()
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO users(id,firebase_uid,username,email,role,created_at,updated_at)
			VALUES(?,?,?,?,'admin',?,?)
			ON CONFLICT(firebase_uid) DO UPDATE SET role='admin', updated_at=excluded.updated_at
		`, NewID(), adminUID, "Admin", adminEmail, now, now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// NewID returns a fresh 24-hex record id.
func NewID() string { return primitive.NewObjectID().Hex() }

// ValidID reports whether s is a well-formed record id.
func ValidID(s string) bool {
	_, err := primitive.ObjectIDFromHex(s)
	return err == nil
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// execer is satisfied by both *sqlx.DB and *sqlx.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	GetContext(ctx context.Context, dest any, query string, args ...any) error
}

func affectedOrNotFound(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
