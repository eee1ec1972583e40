package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/payment-desk/internal/common"
	"github.com/joseph-ayodele/payment-desk/internal/entity"
	"github.com/joseph-ayodele/payment-desk/internal/utils"
)

// ReceiptRepository persists write-once receipts keyed by payment id.
type ReceiptRepository interface {
	// Save stores a new receipt; ErrDuplicatePaymentID if the id is taken.
	Save(ctx context.Context, receipt *entity.Receipt) error
	// Find returns common.ErrNotFound when no receipt exists for paymentID.
	Find(ctx context.Context, paymentID string) (*entity.Receipt, error)
	// List returns every receipt ordered by timestamp, then payment id.
	List(ctx context.Context) ([]*entity.Receipt, error)
}

var (
	ErrDuplicatePaymentID = errors.New("payment id already has a receipt")
	ErrCorruptRecord      = errors.New("corrupt receipt record")
	ErrStoreWrite         = fmt.Errorf("receipt write failed: %w", common.ErrStorage)
	ErrStoreRead          = fmt.Errorf("receipt read failed: %w", common.ErrStorage)
)

var rePaymentID = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidPaymentID reports whether id is safe to use as a storage key.
func ValidPaymentID(id string) bool {
	return rePaymentID.MatchString(id)
}

// receiptRecord is the persisted shape of a receipt.
type receiptRecord struct {
	PaymentID  string `json:"payment_id"`
	Amount     string `json:"amount"`
	MaskedCard string `json:"masked_card"`
	Timestamp  string `json:"timestamp"`
}

const receiptSchemaJSON = `{
  "type": "object",
  "required": ["payment_id", "amount", "masked_card", "timestamp"],
  "properties": {
    "payment_id":  {"type": "string", "pattern": "^[A-Za-z0-9_-]{1,64}$"},
    "amount":      {"type": "string", "pattern": "^[0-9]+(\\.[0-9]+)?$"},
    "masked_card": {"type": "string"},
    "timestamp":   {"type": "string", "minLength": 1}
  }
}`

var receiptSchema = mustCompileReceiptSchema()

func mustCompileReceiptSchema() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("receipt.json", strings.NewReader(receiptSchemaJSON)); err != nil {
		panic(fmt.Sprintf("add receipt schema: %v", err))
	}
	schema, err := compiler.Compile("receipt.json")
	if err != nil {
		panic(fmt.Sprintf("compile receipt schema: %v", err))
	}
	return schema
}

func toRecord(r *entity.Receipt) receiptRecord {
	return receiptRecord{
		PaymentID:  r.PaymentID,
		Amount:     utils.FormatAmount(r.Amount),
		MaskedCard: r.MaskedCard,
		Timestamp:  utils.FormatTimestamp(r.Timestamp),
	}
}

func (rec receiptRecord) toEntity() (*entity.Receipt, error) {
	amount, err := decimal.NewFromString(rec.Amount)
	if err != nil {
		return nil, fmt.Errorf("%w: amount %q: %v", ErrCorruptRecord, rec.Amount, err)
	}
	ts, err := time.Parse(time.RFC3339Nano, rec.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("%w: timestamp %q: %v", ErrCorruptRecord, rec.Timestamp, err)
	}
	return &entity.Receipt{
		PaymentID:  rec.PaymentID,
		Amount:     amount,
		MaskedCard: rec.MaskedCard,
		Timestamp:  ts,
	}, nil
}

func encodeReceipt(r *entity.Receipt) ([]byte, error) {
	return json.MarshalIndent(toRecord(r), "", "  ")
}

// decodeReceipt validates data against the receipt schema before decoding it.
func decodeReceipt(data []byte) (*entity.Receipt, error) {
	var doc any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	if err := receiptSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	var rec receiptRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	return rec.toEntity()
}

func sortReceipts(recs []*entity.Receipt) {
	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].Timestamp.Equal(recs[j].Timestamp) {
			return recs[i].Timestamp.Before(recs[j].Timestamp)
		}
		return recs[i].PaymentID < recs[j].PaymentID
	})
}
