/*
Package sqlite provides a SQLite-backed implementation of credit.Repository.

PURPOSE:
  Persists the flat loan record described by the engine: the loan row
  plus its installments, fines, extra payments, and discounts. The same
  patterns apply to PostgreSQL - only minor SQL dialect differences.

REPRESENTATION:
  Dates are stored as "YYYY-MM-DD" strings (date-only, no timezone
  offset) and money as decimal strings, mirroring the engine's own
  serialization rules. Saving a loan replaces the whole record inside
  one transaction, so sub-records never go out of sync with the loan.

WAL MODE:
  SQLite is opened with WAL for better concurrency: multiple readers
  don't block and crash recovery is cleaner.

SEE ALSO:
  - credit/store.go: Interface definition
  - credit/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/microcredit-engine/credit"
)

// Store implements credit.Repository using SQLite.
type Store struct {
	db *sql.DB
}

// New opens (and migrates) the database at dbPath.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS clients (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		document TEXT,
		phone TEXT,
		address TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS loans (
		id TEXT PRIMARY KEY,
		client_id TEXT NOT NULL DEFAULT '',
		principal TEXT NOT NULL,
		plan TEXT NOT NULL,
		variant_first INTEGER NOT NULL DEFAULT 0,
		variant_second INTEGER NOT NULL DEFAULT 0,
		start_date TEXT NOT NULL,
		fee TEXT NOT NULL,
		renewal_payoff TEXT NOT NULL DEFAULT '0',
		installment_value TEXT NOT NULL,
		renewed BOOLEAN NOT NULL DEFAULT FALSE,
		tag TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_loans_client ON loans(client_id);
	CREATE INDEX IF NOT EXISTS idx_loans_start_date ON loans(start_date);

	CREATE TABLE IF NOT EXISTS installments (
		loan_id TEXT NOT NULL REFERENCES loans(id) ON DELETE CASCADE,
		seq INTEGER NOT NULL,
		due_date TEXT NOT NULL,
		manually_paid BOOLEAN NOT NULL DEFAULT FALSE,
		paid_date TEXT,
		PRIMARY KEY (loan_id, seq)
	);

	CREATE TABLE IF NOT EXISTS fines (
		id TEXT PRIMARY KEY,
		loan_id TEXT NOT NULL REFERENCES loans(id) ON DELETE CASCADE,
		seq INTEGER NOT NULL,
		amount TEXT NOT NULL,
		reason TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_fines_loan ON fines(loan_id, seq);

	CREATE TABLE IF NOT EXISTS extra_payments (
		id TEXT PRIMARY KEY,
		loan_id TEXT NOT NULL REFERENCES loans(id) ON DELETE CASCADE,
		amount TEXT NOT NULL,
		date TEXT NOT NULL,
		target INTEGER NOT NULL DEFAULT 0,
		description TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_extra_payments_loan ON extra_payments(loan_id);
	CREATE INDEX IF NOT EXISTS idx_extra_payments_date ON extra_payments(date);

	CREATE TABLE IF NOT EXISTS discounts (
		id TEXT PRIMARY KEY,
		loan_id TEXT NOT NULL REFERENCES loans(id) ON DELETE CASCADE,
		amount TEXT NOT NULL,
		kind TEXT NOT NULL,
		description TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_discounts_loan ON discounts(loan_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// LOANS
// =============================================================================

// SaveLoan upserts the whole flat record inside one transaction.
func (s *Store) SaveLoan(ctx context.Context, loan *credit.Loan) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO loans
			(id, client_id, principal, plan, variant_first, variant_second,
			 start_date, fee, renewal_payoff, installment_value, renewed, tag, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		loan.ID, loan.ClientID, loan.Principal.String(), string(loan.Plan),
		loan.Variant.First, loan.Variant.Second,
		loan.StartDate.String(), loan.Fee.String(), loan.RenewalPayoff.String(),
		loan.InstallmentValue.String(), loan.Renewed, string(loan.Tag),
		loan.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return err
	}

	// Replace sub-records wholesale; the transaction keeps them consistent.
	for _, table := range []string{"installments", "fines", "extra_payments", "discounts"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE loan_id = ?", loan.ID); err != nil {
			return err
		}
	}

	for i := range loan.Installments {
		inst := &loan.Installments[i]
		var paidDate any
		if inst.PaidDate != nil {
			paidDate = inst.PaidDate.String()
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO installments (loan_id, seq, due_date, manually_paid, paid_date)
			VALUES (?, ?, ?, ?, ?)`,
			loan.ID, inst.Sequence, inst.DueDate.String(), inst.ManuallyPaid, paidDate)
		if err != nil {
			return err
		}
		for _, f := range inst.Fines {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO fines (id, loan_id, seq, amount, reason, created_at)
				VALUES (?, ?, ?, ?, ?, ?)`,
				f.ID, loan.ID, inst.Sequence, f.Amount.String(), f.Reason,
				f.CreatedAt.UTC().Format(time.RFC3339))
			if err != nil {
				return err
			}
		}
	}

	for _, p := range loan.ExtraPayments {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO extra_payments (id, loan_id, amount, date, target, description)
			VALUES (?, ?, ?, ?, ?, ?)`,
			p.ID, loan.ID, p.Amount.String(), p.Date.String(), p.Target, p.Description)
		if err != nil {
			return err
		}
	}

	for _, d := range loan.Discounts {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO discounts (id, loan_id, amount, kind, description)
			VALUES (?, ?, ?, ?, ?)`,
			d.ID, loan.ID, d.Amount.String(), string(d.Kind), d.Description)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *Store) GetLoan(ctx context.Context, id string) (*credit.Loan, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, client_id, principal, plan, variant_first, variant_second,
		       start_date, fee, renewal_payoff, installment_value, renewed, tag, created_at
		FROM loans WHERE id = ?`, id)

	loan, err := scanLoan(row)
	if err == sql.ErrNoRows {
		return nil, credit.ErrLoanNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := s.loadSubRecords(ctx, loan); err != nil {
		return nil, err
	}
	return loan, nil
}

func (s *Store) ListLoans(ctx context.Context) ([]*credit.Loan, error) {
	return s.queryLoans(ctx, `
		SELECT id, client_id, principal, plan, variant_first, variant_second,
		       start_date, fee, renewal_payoff, installment_value, renewed, tag, created_at
		FROM loans ORDER BY created_at`)
}

func (s *Store) ListLoansByClient(ctx context.Context, clientID string) ([]*credit.Loan, error) {
	return s.queryLoans(ctx, `
		SELECT id, client_id, principal, plan, variant_first, variant_second,
		       start_date, fee, renewal_payoff, installment_value, renewed, tag, created_at
		FROM loans WHERE client_id = ? ORDER BY created_at`, clientID)
}

func (s *Store) DeleteLoan(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM loans WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return credit.ErrLoanNotFound
	}
	return nil
}

func (s *Store) queryLoans(ctx context.Context, query string, args ...any) ([]*credit.Loan, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var loans []*credit.Loan
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		loans = append(loans, loan)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, loan := range loans {
		if err := s.loadSubRecords(ctx, loan); err != nil {
			return nil, err
		}
	}
	return loans, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLoan(row rowScanner) (*credit.Loan, error) {
	var (
		loan                          credit.Loan
		principal, fee, payoff, value string
		plan, tag, start, created     string
	)
	err := row.Scan(&loan.ID, &loan.ClientID, &principal, &plan,
		&loan.Variant.First, &loan.Variant.Second,
		&start, &fee, &payoff, &value, &loan.Renewed, &tag, &created)
	if err != nil {
		return nil, err
	}
	loan.Principal = credit.MustParseMoney(principal)
	loan.Plan = credit.LoanPlan(plan)
	loan.Fee = credit.MustParseMoney(fee)
	loan.RenewalPayoff = credit.MustParseMoney(payoff)
	loan.InstallmentValue = credit.MustParseMoney(value)
	loan.Tag = credit.LoanTag(tag)
	if loan.StartDate, err = credit.ParseDate(start); err != nil {
		return nil, fmt.Errorf("loan %s: bad start_date: %w", loan.ID, err)
	}
	if loan.CreatedAt, err = time.Parse(time.RFC3339, created); err != nil {
		return nil, fmt.Errorf("loan %s: bad created_at: %w", loan.ID, err)
	}
	return &loan, nil
}

func (s *Store) loadSubRecords(ctx context.Context, loan *credit.Loan) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, due_date, manually_paid, paid_date
		FROM installments WHERE loan_id = ? ORDER BY seq`, loan.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			inst     credit.Installment
			due      string
			paidDate sql.NullString
		)
		if err := rows.Scan(&inst.Sequence, &due, &inst.ManuallyPaid, &paidDate); err != nil {
			return err
		}
		if inst.DueDate, err = credit.ParseDate(due); err != nil {
			return err
		}
		if paidDate.Valid {
			d, err := credit.ParseDate(paidDate.String)
			if err != nil {
				return err
			}
			inst.PaidDate = &d
		}
		loan.Installments = append(loan.Installments, inst)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	fineRows, err := s.db.QueryContext(ctx, `
		SELECT id, seq, amount, reason, created_at
		FROM fines WHERE loan_id = ? ORDER BY created_at`, loan.ID)
	if err != nil {
		return err
	}
	defer fineRows.Close()

	for fineRows.Next() {
		var (
			fine            credit.Fine
			seq             int
			amount, created string
		)
		if err := fineRows.Scan(&fine.ID, &seq, &amount, &fine.Reason, &created); err != nil {
			return err
		}
		fine.Amount = credit.MustParseMoney(amount)
		if fine.CreatedAt, err = time.Parse(time.RFC3339, created); err != nil {
			return err
		}
		inst, err := loan.Installment(seq)
		if err != nil {
			return err
		}
		inst.Fines = append(inst.Fines, fine)
	}
	if err := fineRows.Err(); err != nil {
		return err
	}

	payRows, err := s.db.QueryContext(ctx, `
		SELECT id, amount, date, target, description
		FROM extra_payments WHERE loan_id = ? ORDER BY date, id`, loan.ID)
	if err != nil {
		return err
	}
	defer payRows.Close()

	for payRows.Next() {
		var (
			p            credit.ExtraPayment
			amount, date string
		)
		if err := payRows.Scan(&p.ID, &amount, &date, &p.Target, &p.Description); err != nil {
			return err
		}
		p.Amount = credit.MustParseMoney(amount)
		if p.Date, err = credit.ParseDate(date); err != nil {
			return err
		}
		loan.ExtraPayments = append(loan.ExtraPayments, p)
	}
	if err := payRows.Err(); err != nil {
		return err
	}

	discRows, err := s.db.QueryContext(ctx, `
		SELECT id, amount, kind, description
		FROM discounts WHERE loan_id = ? ORDER BY id`, loan.ID)
	if err != nil {
		return err
	}
	defer discRows.Close()

	for discRows.Next() {
		var (
			d            credit.Discount
			amount, kind string
		)
		if err := discRows.Scan(&d.ID, &amount, &kind, &d.Description); err != nil {
			return err
		}
		d.Amount = credit.MustParseMoney(amount)
		d.Kind = credit.DiscountKind(kind)
		loan.Discounts = append(loan.Discounts, d)
	}
	return discRows.Err()
}

// =============================================================================
// CLIENTS
// =============================================================================

func (s *Store) SaveClient(ctx context.Context, client credit.Client) error {
	createdAt := client.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO clients (id, name, document, phone, address, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		client.ID, client.Name, client.Document, client.Phone, client.Address,
		createdAt.UTC().Format(time.RFC3339))
	return err
}

func (s *Store) GetClient(ctx context.Context, id string) (*credit.Client, error) {
	var (
		client  credit.Client
		created string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, document, phone, address, created_at
		FROM clients WHERE id = ?`, id).
		Scan(&client.ID, &client.Name, &client.Document, &client.Phone, &client.Address, &created)
	if err == sql.ErrNoRows {
		return nil, credit.ErrClientNotFound
	}
	if err != nil {
		return nil, err
	}
	if client.CreatedAt, err = time.Parse(time.RFC3339, created); err != nil {
		return nil, err
	}
	return &client, nil
}

func (s *Store) ListClients(ctx context.Context) ([]credit.Client, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, document, phone, address, created_at
		FROM clients ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clients []credit.Client
	for rows.Next() {
		var (
			client  credit.Client
			created string
		)
		if err := rows.Scan(&client.ID, &client.Name, &client.Document,
			&client.Phone, &client.Address, &created); err != nil {
			return nil, err
		}
		if client.CreatedAt, err = time.Parse(time.RFC3339, created); err != nil {
			return nil, err
		}
		clients = append(clients, client)
	}
	return clients, rows.Err()
}

func (s *Store) DeleteClient(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM clients WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return credit.ErrClientNotFound
	}
	return nil
}

var _ credit.Repository = (*Store)(nil)
