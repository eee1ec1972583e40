package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"

	"github.com/joseph-ayodele/payment-desk/internal/common"
	"github.com/joseph-ayodele/payment-desk/internal/entity"
)

const (
	receiptsTable = "receipts"
	colPaymentID  = "payment_id"
	colAmount     = "amount"
	colMaskedCard = "masked_card"
	colTimestamp  = "created_at"
)

// SQLReceiptRepository stores receipts in a "receipts" table on any ent SQL dialect.
type SQLReceiptRepository struct {
	drv    *entsql.Driver
	logger *slog.Logger
}

func NewSQLReceiptRepository(drv *entsql.Driver, logger *slog.Logger) *SQLReceiptRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLReceiptRepository{drv: drv, logger: logger}
}

func (r *SQLReceiptRepository) builder() *entsql.DialectBuilder {
	return entsql.Dialect(r.drv.Dialect())
}

// receiptsSchema describes the receipts table. Atlas mutates tables during
// Create, so every migration gets a fresh copy.
func receiptsSchema() *schema.Table {
	column := func(name string) *schema.Column {
		return &schema.Column{Name: name, Type: field.TypeString, Size: 64}
	}
	return schema.NewTable(receiptsTable).
		AddPrimary(column(colPaymentID)).
		AddColumn(column(colAmount)).
		AddColumn(column(colMaskedCard)).
		AddColumn(column(colTimestamp))
}

// Migrate creates the receipts table if it does not exist.
func (r *SQLReceiptRepository) Migrate(ctx context.Context) error {
	log := common.ContextLogger(ctx, r.logger)
	m, err := schema.NewMigrate(r.drv)
	if err != nil {
		log.Error("failed to prepare migration", "error", err)
		return fmt.Errorf("migrate receipts: %w", err)
	}
	if err := m.Create(ctx, receiptsSchema()); err != nil {
		log.Error("failed to migrate receipts table", "error", err)
		return fmt.Errorf("migrate receipts: %w", err)
	}
	return nil
}

// Save inserts with ON CONFLICT DO NOTHING; zero affected rows means the id is taken.
func (r *SQLReceiptRepository) Save(ctx context.Context, receipt *entity.Receipt) error {
	log := common.ContextLogger(ctx, r.logger)
	rec := toRecord(receipt)
	query, args := r.builder().Insert(receiptsTable).
		Columns(colPaymentID, colAmount, colMaskedCard, colTimestamp).
		Values(rec.PaymentID, rec.Amount, rec.MaskedCard, rec.Timestamp).
		OnConflict(entsql.ConflictColumns(colPaymentID), entsql.DoNothing()).
		Query()
	res, err := r.drv.DB().ExecContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to insert receipt", "payment_id", rec.PaymentID, "error", err)
		return fmt.Errorf("%w: %w", ErrStoreWrite, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStoreWrite, err)
	}
	if n == 0 {
		return ErrDuplicatePaymentID
	}
	log.Debug("receipt saved", "payment_id", rec.PaymentID)
	return nil
}

func (r *SQLReceiptRepository) selector() *entsql.Selector {
	return r.builder().
		Select(colPaymentID, colAmount, colMaskedCard, colTimestamp).
		From(entsql.Table(receiptsTable))
}

func (r *SQLReceiptRepository) Find(ctx context.Context, paymentID string) (*entity.Receipt, error) {
	log := common.ContextLogger(ctx, r.logger)
	query, args := r.selector().Where(entsql.EQ(colPaymentID, paymentID)).Query()
	var rec receiptRecord
	err := r.drv.DB().QueryRowContext(ctx, query, args...).
		Scan(&rec.PaymentID, &rec.Amount, &rec.MaskedCard, &rec.Timestamp)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		log.Error("failed to query receipt", "payment_id", paymentID, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrStoreRead, err)
	}
	out, err := rec.toEntity()
	if err != nil {
		log.Error("receipt row is corrupt", "payment_id", paymentID, "error", err)
		return nil, err
	}
	return out, nil
}

func (r *SQLReceiptRepository) List(ctx context.Context) ([]*entity.Receipt, error) {
	log := common.ContextLogger(ctx, r.logger)
	query, args := r.selector().OrderBy(colTimestamp, colPaymentID).Query()
	rows, err := r.drv.DB().QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to list receipts", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrStoreRead, err)
	}
	defer rows.Close()

	var out []*entity.Receipt
	for rows.Next() {
		var rec receiptRecord
		if err := rows.Scan(&rec.PaymentID, &rec.Amount, &rec.MaskedCard, &rec.Timestamp); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrStoreRead, err)
		}
		receipt, err := rec.toEntity()
		if err != nil {
			log.Warn("skipping corrupt receipt row", "payment_id", rec.PaymentID, "error", err)
			continue
		}
		out = append(out, receipt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreRead, err)
	}
	sortReceipts(out)
	return out, nil
}
