// Package postgres is the durable store. Multi-record ledger commits run
// inside serializable transactions with FOR UPDATE row locks so two
// cashiers hitting the same product or counterparty cannot interleave
// their read-compute-write cycles.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"

	"foxpos/backend/internal/domain"
	"foxpos/backend/internal/ledger"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) CommitTransaction(ctx context.Context, commit domain.LedgerCommit) (*domain.Transaction, error) {
	pgTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = pgTx.Rollback() }()

	// Lock and mutate products one by one; carts are a handful of rows so
	// the locks stay short-lived.
	for _, change := range commit.StockChanges {
		var p domain.Product
		err := pgTx.QueryRowContext(ctx, `
			SELECT id, name, purchase_price, current_stock
			FROM products
			WHERE id = $1
			FOR UPDATE
		`, change.ProductID).Scan(&p.ID, &p.Name, &p.PurchasePrice, &p.CurrentStock)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, domain.E(domain.CodeNotFound, "product not found: %s", change.ProductID)
			}
			return nil, err
		}

		switch change.Direction {
		case domain.StockIn:
			ledger.IncreaseStock(&p, change.Quantity, change.UnitCost, change.Reaverage)
		case domain.StockOut:
			if err := ledger.DecreaseStock(&p, change.Quantity, commit.StrictStock); err != nil {
				return nil, err
			}
		default:
			return nil, domain.E(domain.CodeValidation, "unknown stock direction: %s", change.Direction)
		}

		if _, err := pgTx.ExecContext(ctx, `
			UPDATE products
			SET purchase_price = $2, current_stock = $3, updated_at = now()
			WHERE id = $1
		`, p.ID, p.PurchasePrice, p.CurrentStock); err != nil {
			return nil, err
		}
	}

	if b := commit.Balance; b != nil {
		switch {
		case b.CustomerID != "":
			var name string
			var balance, creditLimit decimal.Decimal
			err := pgTx.QueryRowContext(ctx, `
				SELECT name, current_balance, credit_limit
				FROM customers
				WHERE id = $1
				FOR UPDATE
			`, b.CustomerID).Scan(&name, &balance, &creditLimit)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return nil, domain.E(domain.CodeNotFound, "customer not found: %s", b.CustomerID)
				}
				return nil, err
			}
			next := balance.Add(b.Delta)
			if b.EnforceCreditLimit && next.Cmp(creditLimit.Neg()) < 0 {
				return nil, domain.E(domain.CodeCreditLimitExceeded, "credit limit exceeded for customer: %s", name)
			}
			if _, err := pgTx.ExecContext(ctx, `
				UPDATE customers SET current_balance = $2, updated_at = now() WHERE id = $1
			`, b.CustomerID, next); err != nil {
				return nil, err
			}
		case b.SupplierID != "":
			var balance decimal.Decimal
			err := pgTx.QueryRowContext(ctx, `
				SELECT current_balance FROM suppliers WHERE id = $1 FOR UPDATE
			`, b.SupplierID).Scan(&balance)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return nil, domain.E(domain.CodeNotFound, "supplier not found: %s", b.SupplierID)
				}
				return nil, err
			}
			if _, err := pgTx.ExecContext(ctx, `
				UPDATE suppliers SET current_balance = $2, updated_at = now() WHERE id = $1
			`, b.SupplierID, balance.Add(b.Delta)); err != nil {
				return nil, err
			}
		default:
			return nil, domain.E(domain.CodeValidation, "balance change without a counterparty")
		}
	}

	if err := insertTransaction(ctx, pgTx, commit.Transaction); err != nil {
		return nil, err
	}
	if commit.Companion != nil {
		if err := insertTransaction(ctx, pgTx, *commit.Companion); err != nil {
			return nil, err
		}
	}

	if err := pgTx.Commit(); err != nil {
		return nil, err
	}

	created := commit.Transaction
	return &created, nil
}

func insertTransaction(ctx context.Context, pgTx *sql.Tx, tx domain.Transaction) error {
	items, err := json.Marshal(tx.Items)
	if err != nil {
		return fmt.Errorf("marshal transaction items: %w", err)
	}
	_, err = pgTx.ExecContext(ctx, `
		INSERT INTO transactions
			(id, type, amount, payment_method, status, description, category,
			 customer_id, supplier_id, shift_id, items, direct_sale, created_by, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,NULLIF($8,''),NULLIF($9,''),NULLIF($10,''),$11,$12,$13,$14)
	`, tx.ID, tx.Type, tx.Amount, tx.PaymentMethod, tx.Status, tx.Description, tx.Category,
		tx.CustomerID, tx.SupplierID, tx.ShiftID, items, tx.DirectSale, tx.CreatedBy, tx.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.E(domain.CodeDuplicate, "transaction id already exists: %s", tx.ID)
		}
		return err
	}
	return nil
}

const transactionColumns = `
	id, type, amount, payment_method, status,
	COALESCE(description,''), COALESCE(category,''),
	COALESCE(customer_id,''), COALESCE(supplier_id,''), COALESCE(shift_id,''),
	items, direct_sale, created_by, created_at`

func scanTransaction(row interface{ Scan(...any) error }) (*domain.Transaction, error) {
	var tx domain.Transaction
	var items []byte
	err := row.Scan(&tx.ID, &tx.Type, &tx.Amount, &tx.PaymentMethod, &tx.Status,
		&tx.Description, &tx.Category, &tx.CustomerID, &tx.SupplierID, &tx.ShiftID,
		&items, &tx.DirectSale, &tx.CreatedBy, &tx.CreatedAt)
	if err != nil {
		return nil, err
	}
	if len(items) > 0 {
		if err := json.Unmarshal(items, &tx.Items); err != nil {
			return nil, fmt.Errorf("unmarshal transaction items: %w", err)
		}
	}
	return &tx, nil
}

func (s *Store) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	tx, err := scanTransaction(s.db.QueryRowContext(ctx, `
		SELECT `+transactionColumns+` FROM transactions WHERE id = $1
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.E(domain.CodeNotFound, "transaction not found: %s", id)
	}
	return tx, err
}

func (s *Store) ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE 1=1`
	args := make([]any, 0, 7)
	add := func(clause string, value any) {
		args = append(args, value)
		query += fmt.Sprintf(clause, len(args))
	}
	if filter.Type != "" {
		add(" AND type = $%d", filter.Type)
	}
	if filter.Status != "" {
		add(" AND status = $%d", filter.Status)
	}
	if filter.ShiftID != "" {
		add(" AND shift_id = $%d", filter.ShiftID)
	}
	if filter.CustomerID != "" {
		add(" AND customer_id = $%d", filter.CustomerID)
	}
	if filter.SupplierID != "" {
		add(" AND supplier_id = $%d", filter.SupplierID)
	}
	if !filter.From.IsZero() {
		add(" AND created_at >= $%d", filter.From)
	}
	if !filter.To.IsZero() {
		add(" AND created_at < $%d", filter.To)
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]domain.Transaction, 0, 64)
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *tx)
	}
	return result, rows.Err()
}

func (s *Store) UpdateTransactionStatus(ctx context.Context, id string, from string, to string) (*domain.Transaction, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE transactions SET status = $3 WHERE id = $1 AND status = $2
	`, id, from, to)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		tx, getErr := s.GetTransaction(ctx, id)
		if getErr != nil {
			return nil, getErr
		}
		return nil, domain.E(domain.CodeInvalidStatus, "transaction %s is %s, expected %s", id, tx.Status, from)
	}
	return s.GetTransaction(ctx, id)
}

func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, code, name, category, unit, purchase_price, selling_price,
		       current_stock, min_stock_level, active, created_at
		FROM products
		ORDER BY code
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0, 128)
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Code, &p.Name, &p.Category, &p.Unit, &p.PurchasePrice,
			&p.SellingPrice, &p.CurrentStock, &p.MinStockLevel, &p.Active, &p.CreatedAt); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (s *Store) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product
	err := s.db.QueryRowContext(ctx, `
		SELECT id, code, name, category, unit, purchase_price, selling_price,
		       current_stock, min_stock_level, active, created_at
		FROM products
		WHERE id = $1
	`, id).Scan(&p.ID, &p.Code, &p.Name, &p.Category, &p.Unit, &p.PurchasePrice,
		&p.SellingPrice, &p.CurrentStock, &p.MinStockLevel, &p.Active, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.E(domain.CodeNotFound, "product not found: %s", id)
		}
		return nil, err
	}
	return &p, nil
}

func (s *Store) CreateProduct(ctx context.Context, p domain.Product) (*domain.Product, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products
			(id, code, name, category, unit, purchase_price, selling_price,
			 current_stock, min_stock_level, active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,now())
	`, p.ID, p.Code, p.Name, p.Category, p.Unit, p.PurchasePrice, p.SellingPrice,
		p.CurrentStock, p.MinStockLevel, p.Active, p.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.E(domain.CodeDuplicate, "product code already exists: %s", p.Code)
		}
		return nil, err
	}
	return &p, nil
}

func (s *Store) UpdateProduct(ctx context.Context, p domain.Product) (*domain.Product, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET code = $2, name = $3, category = $4, unit = $5, purchase_price = $6,
		    selling_price = $7, current_stock = $8, min_stock_level = $9, active = $10,
		    updated_at = now()
		WHERE id = $1
	`, p.ID, p.Code, p.Name, p.Category, p.Unit, p.PurchasePrice, p.SellingPrice,
		p.CurrentStock, p.MinStockLevel, p.Active)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, domain.E(domain.CodeNotFound, "product not found: %s", p.ID)
	}
	return &p, nil
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.E(domain.CodeNotFound, "product not found: %s", id)
	}
	return nil
}

func (s *Store) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, code, name, phone, type, current_balance, credit_limit, active, created_at
		FROM customers
		ORDER BY code
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	customers := make([]domain.Customer, 0, 64)
	for rows.Next() {
		var c domain.Customer
		if err := rows.Scan(&c.ID, &c.Code, &c.Name, &c.Phone, &c.Type,
			&c.CurrentBalance, &c.CreditLimit, &c.Active, &c.CreatedAt); err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

func (s *Store) GetCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	var c domain.Customer
	err := s.db.QueryRowContext(ctx, `
		SELECT id, code, name, phone, type, current_balance, credit_limit, active, created_at
		FROM customers
		WHERE id = $1
	`, id).Scan(&c.ID, &c.Code, &c.Name, &c.Phone, &c.Type,
		&c.CurrentBalance, &c.CreditLimit, &c.Active, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.E(domain.CodeNotFound, "customer not found: %s", id)
		}
		return nil, err
	}
	return &c, nil
}

func (s *Store) CreateCustomer(ctx context.Context, c domain.Customer) (*domain.Customer, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO customers
			(id, code, name, phone, type, current_balance, credit_limit, active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,now())
	`, c.ID, c.Code, c.Name, c.Phone, c.Type, c.CurrentBalance, c.CreditLimit, c.Active, c.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.E(domain.CodeDuplicate, "customer code already exists: %s", c.Code)
		}
		return nil, err
	}
	return &c, nil
}

func (s *Store) UpdateCustomer(ctx context.Context, c domain.Customer) (*domain.Customer, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE customers
		SET code = $2, name = $3, phone = $4, type = $5, current_balance = $6,
		    credit_limit = $7, active = $8, updated_at = now()
		WHERE id = $1
	`, c.ID, c.Code, c.Name, c.Phone, c.Type, c.CurrentBalance, c.CreditLimit, c.Active)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, domain.E(domain.CodeNotFound, "customer not found: %s", c.ID)
	}
	return &c, nil
}

func (s *Store) DeleteCustomer(ctx context.Context, id string) error {
	pgTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return err
	}
	defer func() { _ = pgTx.Rollback() }()

	var name string
	var balance decimal.Decimal
	err = pgTx.QueryRowContext(ctx, `
		SELECT name, current_balance FROM customers WHERE id = $1 FOR UPDATE
	`, id).Scan(&name, &balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.E(domain.CodeNotFound, "customer not found: %s", id)
		}
		return err
	}
	if balance.Sign() != 0 {
		return domain.E(domain.CodeBalanceNotZero, "customer %s has outstanding balance %s", name, balance)
	}
	if _, err := pgTx.ExecContext(ctx, `DELETE FROM customers WHERE id = $1`, id); err != nil {
		return err
	}
	return pgTx.Commit()
}

func (s *Store) ListSuppliers(ctx context.Context) ([]domain.Supplier, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, code, name, phone, current_balance, active, created_at
		FROM suppliers
		ORDER BY code
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	suppliers := make([]domain.Supplier, 0, 32)
	for rows.Next() {
		var sp domain.Supplier
		if err := rows.Scan(&sp.ID, &sp.Code, &sp.Name, &sp.Phone,
			&sp.CurrentBalance, &sp.Active, &sp.CreatedAt); err != nil {
			return nil, err
		}
		suppliers = append(suppliers, sp)
	}
	return suppliers, rows.Err()
}

func (s *Store) GetSupplier(ctx context.Context, id string) (*domain.Supplier, error) {
	var sp domain.Supplier
	err := s.db.QueryRowContext(ctx, `
		SELECT id, code, name, phone, current_balance, active, created_at
		FROM suppliers
		WHERE id = $1
	`, id).Scan(&sp.ID, &sp.Code, &sp.Name, &sp.Phone, &sp.CurrentBalance, &sp.Active, &sp.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.E(domain.CodeNotFound, "supplier not found: %s", id)
		}
		return nil, err
	}
	return &sp, nil
}

func (s *Store) CreateSupplier(ctx context.Context, sp domain.Supplier) (*domain.Supplier, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO suppliers
			(id, code, name, phone, current_balance, active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,now())
	`, sp.ID, sp.Code, sp.Name, sp.Phone, sp.CurrentBalance, sp.Active, sp.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.E(domain.CodeDuplicate, "supplier code already exists: %s", sp.Code)
		}
		return nil, err
	}
	return &sp, nil
}

func (s *Store) UpdateSupplier(ctx context.Context, sp domain.Supplier) (*domain.Supplier, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE suppliers
		SET code = $2, name = $3, phone = $4, current_balance = $5, active = $6, updated_at = now()
		WHERE id = $1
	`, sp.ID, sp.Code, sp.Name, sp.Phone, sp.CurrentBalance, sp.Active)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, domain.E(domain.CodeNotFound, "supplier not found: %s", sp.ID)
	}
	return &sp, nil
}

func (s *Store) DeleteSupplier(ctx context.Context, id string) error {
	pgTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return err
	}
	defer func() { _ = pgTx.Rollback() }()

	var name string
	var balance decimal.Decimal
	err = pgTx.QueryRowContext(ctx, `
		SELECT name, current_balance FROM suppliers WHERE id = $1 FOR UPDATE
	`, id).Scan(&name, &balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.E(domain.CodeNotFound, "supplier not found: %s", id)
		}
		return err
	}
	if balance.Sign() != 0 {
		return domain.E(domain.CodeBalanceNotZero, "supplier %s has outstanding balance %s", name, balance)
	}
	if _, err := pgTx.ExecContext(ctx, `DELETE FROM suppliers WHERE id = $1`, id); err != nil {
		return err
	}
	return pgTx.Commit()
}

func (s *Store) CreateShift(ctx context.Context, shift domain.Shift) (*domain.Shift, error) {
	// The partial unique index on (username) WHERE status = 'open' turns a
	// concurrent double-open into a unique violation.
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO shifts (id, username, status, start_cash, end_cash, expected_cash, start_time)
		VALUES ($1,$2,$3,$4,0,0,$5)
	`, shift.ID, shift.Username, shift.Status, shift.StartCash, shift.StartTime)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.E(domain.CodeShiftAlreadyOpen, "user %s already has an open shift", shift.Username)
		}
		return nil, err
	}
	return &shift, nil
}

func (s *Store) GetShift(ctx context.Context, id string) (*domain.Shift, error) {
	var shift domain.Shift
	var endTime sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT id, username, status, start_cash, end_cash, expected_cash, start_time, end_time
		FROM shifts
		WHERE id = $1
	`, id).Scan(&shift.ID, &shift.Username, &shift.Status, &shift.StartCash,
		&shift.EndCash, &shift.ExpectedCash, &shift.StartTime, &endTime)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.E(domain.CodeNotFound, "shift not found: %s", id)
		}
		return nil, err
	}
	if endTime.Valid {
		t := endTime.Time
		shift.EndTime = &t
	}
	return &shift, nil
}

// GetOpenShift returns (nil, nil) when the user has no open shift.
func (s *Store) GetOpenShift(ctx context.Context, username string) (*domain.Shift, error) {
	var shift domain.Shift
	err := s.db.QueryRowContext(ctx, `
		SELECT id, username, status, start_cash, end_cash, expected_cash, start_time
		FROM shifts
		WHERE username = $1 AND status = 'open'
	`, username).Scan(&shift.ID, &shift.Username, &shift.Status, &shift.StartCash,
		&shift.EndCash, &shift.ExpectedCash, &shift.StartTime)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &shift, nil
}

func (s *Store) CloseShift(ctx context.Context, id string, endCash, expectedCash decimal.Decimal, closedAt time.Time) (*domain.Shift, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE shifts
		SET status = 'closed', end_cash = $2, expected_cash = $3, end_time = $4
		WHERE id = $1 AND status = 'open'
	`, id, endCash, expectedCash, closedAt)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		if _, getErr := s.GetShift(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, domain.E(domain.CodeShiftAlreadyClosed, "shift %s is already closed", id)
	}
	return s.GetShift(ctx, id)
}

func (s *Store) ListShifts(ctx context.Context) ([]domain.Shift, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, username, status, start_cash, end_cash, expected_cash, start_time, end_time
		FROM shifts
		ORDER BY start_time DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	shifts := make([]domain.Shift, 0, 32)
	for rows.Next() {
		var shift domain.Shift
		var endTime sql.NullTime
		if err := rows.Scan(&shift.ID, &shift.Username, &shift.Status, &shift.StartCash,
			&shift.EndCash, &shift.ExpectedCash, &shift.StartTime, &endTime); err != nil {
			return nil, err
		}
		if endTime.Valid {
			t := endTime.Time
			shift.EndTime = &t
		}
		shifts = append(shifts, shift)
	}
	return shifts, rows.Err()
}

func (s *Store) CreateQuotation(ctx context.Context, q domain.Quotation) (*domain.Quotation, error) {
	items, err := json.Marshal(q.Items)
	if err != nil {
		return nil, fmt.Errorf("marshal quotation items: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO quotations (id, number, customer_id, items, total, status, created_by, created_at)
		VALUES ($1,$2,NULLIF($3,''),$4,$5,$6,$7,$8)
	`, q.ID, q.Number, q.CustomerID, items, q.Total, q.Status, q.CreatedBy, q.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.E(domain.CodeDuplicate, "quotation number already exists: %s", q.Number)
		}
		return nil, err
	}
	return &q, nil
}

func scanQuotation(row interface{ Scan(...any) error }) (*domain.Quotation, error) {
	var q domain.Quotation
	var items []byte
	var convertedAt sql.NullTime
	err := row.Scan(&q.ID, &q.Number, &q.CustomerID, &items, &q.Total, &q.Status,
		&q.CreatedBy, &q.CreatedAt, &convertedAt)
	if err != nil {
		return nil, err
	}
	if len(items) > 0 {
		if err := json.Unmarshal(items, &q.Items); err != nil {
			return nil, fmt.Errorf("unmarshal quotation items: %w", err)
		}
	}
	if convertedAt.Valid {
		t := convertedAt.Time
		q.ConvertedAt = &t
	}
	return &q, nil
}

const quotationColumns = `
	id, number, COALESCE(customer_id,''), items, total, status, created_by, created_at, converted_at`

func (s *Store) GetQuotation(ctx context.Context, id string) (*domain.Quotation, error) {
	q, err := scanQuotation(s.db.QueryRowContext(ctx, `
		SELECT `+quotationColumns+` FROM quotations WHERE id = $1
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.E(domain.CodeNotFound, "quotation not found: %s", id)
	}
	return q, err
}

func (s *Store) ListQuotations(ctx context.Context) ([]domain.Quotation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+quotationColumns+` FROM quotations ORDER BY number
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	quotations := make([]domain.Quotation, 0, 32)
	for rows.Next() {
		q, err := scanQuotation(rows)
		if err != nil {
			return nil, err
		}
		quotations = append(quotations, *q)
	}
	return quotations, rows.Err()
}

func (s *Store) MarkQuotationConverted(ctx context.Context, id string, at time.Time) (*domain.Quotation, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE quotations SET status = 'converted', converted_at = $2
		WHERE id = $1 AND status = 'draft'
	`, id, at)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		q, getErr := s.GetQuotation(ctx, id)
		if getErr != nil {
			return nil, getErr
		}
		return nil, domain.E(domain.CodeAlreadyConverted, "quotation %s already converted", q.Number)
	}
	return s.GetQuotation(ctx, id)
}

func (s *Store) NextQuotationNumber(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `
		UPDATE settings SET next_quotation_number = next_quotation_number + 1
		WHERE id = 1
		RETURNING next_quotation_number
	`).Scan(&n)
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (s *Store) GetSettings(ctx context.Context) (*domain.Settings, error) {
	var st domain.Settings
	err := s.db.QueryRowContext(ctx, `
		SELECT company_name, address, phone, next_invoice_number, opening_balance,
		       tax_rate, prevent_negative_stock, auto_print
		FROM settings
		WHERE id = 1
	`).Scan(&st.CompanyName, &st.Address, &st.Phone, &st.NextInvoiceNumber,
		&st.OpeningBalance, &st.TaxRate, &st.PreventNegativeStock, &st.AutoPrint)
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *Store) UpdateSettings(ctx context.Context, st domain.Settings) (*domain.Settings, error) {
	_, err := s.db.ExecContext(ctx, `
		UPDATE settings
		SET company_name = $1, address = $2, phone = $3, next_invoice_number = $4,
		    opening_balance = $5, tax_rate = $6, prevent_negative_stock = $7,
		    auto_print = $8, updated_at = now()
		WHERE id = 1
	`, st.CompanyName, st.Address, st.Phone, st.NextInvoiceNumber,
		st.OpeningBalance, st.TaxRate, st.PreventNegativeStock, st.AutoPrint)
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (username, password, role, active, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`, user.Username, user.Password, user.Role, user.Active, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.E(domain.CodeDuplicate, "username already exists: %s", user.Username)
		}
		return err
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, username string) (*domain.UserAccount, error) {
	var user domain.UserAccount
	err := s.db.QueryRowContext(ctx, `
		SELECT username, password, role, active, created_at FROM users WHERE username = $1
	`, username).Scan(&user.Username, &user.Password, &user.Role, &user.Active, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.E(domain.CodeNotFound, "user not found: %s", username)
		}
		return nil, err
	}
	return &user, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, password, role, active, created_at FROM users ORDER BY username
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0, 16)
	for rows.Next() {
		var user domain.UserAccount
		if err := rows.Scan(&user.Username, &user.Password, &user.Role, &user.Active, &user.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET password = $2 WHERE username = $1
	`, username, password)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.E(domain.CodeNotFound, "user not found: %s", username)
	}
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, username string) error {
	pgTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return err
	}
	defer func() { _ = pgTx.Rollback() }()

	var role string
	err = pgTx.QueryRowContext(ctx, `
		SELECT role FROM users WHERE username = $1 FOR UPDATE
	`, username).Scan(&role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.E(domain.CodeNotFound, "user not found: %s", username)
		}
		return err
	}
	if role == domain.RoleAdmin {
		var admins int
		if err := pgTx.QueryRowContext(ctx, `
			SELECT count(*) FROM users WHERE role = 'admin'
		`).Scan(&admins); err != nil {
			return err
		}
		if admins <= 1 {
			return domain.E(domain.CodeLastAdmin, "cannot delete the last admin account")
		}
	}
	if _, err := pgTx.ExecContext(ctx, `DELETE FROM users WHERE username = $1`, username); err != nil {
		return err
	}
	return pgTx.Commit()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
