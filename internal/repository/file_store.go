package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/payment-desk/constants"
	"github.com/joseph-ayodele/payment-desk/internal/common"
	"github.com/joseph-ayodele/payment-desk/internal/entity"
)

// FileReceiptRepository keeps one receipt_<payment_id>.json file per receipt.
type FileReceiptRepository struct {
	dir    string
	logger *slog.Logger
}

func NewFileReceiptRepository(dir string, logger *slog.Logger) *FileReceiptRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileReceiptRepository{dir: dir, logger: logger}
}

func (r *FileReceiptRepository) path(paymentID string) string {
	return filepath.Join(r.dir, constants.ReceiptFilePrefix+paymentID+"."+constants.ReceiptFileExt)
}

// Save writes the record to a temp file and hard-links it into place, so the
// final name either does not exist or holds a complete record.
func (r *FileReceiptRepository) Save(ctx context.Context, receipt *entity.Receipt) error {
	log := common.ContextLogger(ctx, r.logger)
	if !ValidPaymentID(receipt.PaymentID) {
		return fmt.Errorf("%w: invalid payment id %q", ErrStoreWrite, receipt.PaymentID)
	}
	data, err := encodeReceipt(receipt)
	if err != nil {
		return fmt.Errorf("%w: encode: %w", ErrStoreWrite, err)
	}

	tmp, err := os.CreateTemp(r.dir, ".receipt-*.tmp")
	if err != nil {
		log.Error("failed to create receipt temp file", "dir", r.dir, "error", err)
		return fmt.Errorf("%w: %w", ErrStoreWrite, err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err := os.Remove(tmpName); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Warn("failed to remove receipt temp file", "path", tmpName, "error", err)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: %w", ErrStoreWrite, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: %w", ErrStoreWrite, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrStoreWrite, err)
	}

	final := r.path(receipt.PaymentID)
	if err := os.Link(tmpName, final); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return ErrDuplicatePaymentID
		}
		log.Error("failed to link receipt file", "path", final, "error", err)
		return fmt.Errorf("%w: %w", ErrStoreWrite, err)
	}
	log.Debug("receipt saved", "payment_id", receipt.PaymentID, "path", final)
	return nil
}

func (r *FileReceiptRepository) Find(ctx context.Context, paymentID string) (*entity.Receipt, error) {
	log := common.ContextLogger(ctx, r.logger)
	if !ValidPaymentID(paymentID) {
		return nil, common.ErrNotFound
	}
	data, err := os.ReadFile(r.path(paymentID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, common.ErrNotFound
		}
		log.Error("failed to read receipt", "payment_id", paymentID, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrStoreRead, err)
	}
	rec, err := decodeReceipt(data)
	if err != nil {
		log.Error("receipt record is corrupt", "payment_id", paymentID, "error", err)
		return nil, err
	}
	if rec.PaymentID != paymentID {
		return nil, fmt.Errorf("%w: file for %q holds payment_id %q", ErrCorruptRecord, paymentID, rec.PaymentID)
	}
	return rec, nil
}

// List skips records that fail to decode, logging each one.
func (r *FileReceiptRepository) List(ctx context.Context) ([]*entity.Receipt, error) {
	log := common.ContextLogger(ctx, r.logger)
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreRead, err)
	}
	var out []*entity.Receipt
	for _, e := range entries {
		name := e.Name()
		if !e.Type().IsRegular() || !strings.HasPrefix(name, constants.ReceiptFilePrefix) ||
			constants.NormalizeExt(filepath.Ext(name)) != constants.ReceiptFileExt {
			continue
		}
		data, err := os.ReadFile(filepath.Join(r.dir, name))
		if err != nil {
			log.Warn("skipping unreadable receipt", "receipt_file", name, "error", err)
			continue
		}
		rec, err := decodeReceipt(data)
		if err != nil {
			log.Warn("skipping corrupt receipt", "receipt_file", name, "error", err)
			continue
		}
		out = append(out, rec)
	}
	sortReceipts(out)
	return out, nil
}
