package core

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/zoobzio/clockz"

	"github.com/joseph-ayodele/payment-desk/constants"
	"github.com/joseph-ayodele/payment-desk/internal/audit"
	"github.com/joseph-ayodele/payment-desk/internal/codec"
	"github.com/joseph-ayodele/payment-desk/internal/common"
	"github.com/joseph-ayodele/payment-desk/internal/entity"
	"github.com/joseph-ayodele/payment-desk/internal/payment"
	"github.com/joseph-ayodele/payment-desk/internal/repository"
	"github.com/joseph-ayodele/payment-desk/internal/utils"
)

// maxIDAttempts bounds id regeneration when the store reports a duplicate.
const maxIDAttempts = 5

// Outcome describes what Dispatch did with one request file.
type Outcome struct {
	Envelope     Envelope
	Ignored      bool // unrecognized name, dropped without a response
	Status       constants.Status
	Reason       constants.Reason
	PaymentID    string
	ResponsePath string
}

// reply is a handler result before it is written out.
type reply struct {
	status    constants.Status
	reason    constants.Reason
	paymentID string
	fields    []codec.Field
	event     string
}

// approval is a payment already saved for a request whose response has not
// been confirmed yet. A retry of the same request reuses it instead of saving
// a second receipt.
type approval struct {
	digest  [sha256.Size]byte
	reply   reply
	audited bool
}

// Dispatcher turns one request file into one response file. It is meant to
// be driven by a single poll loop.
type Dispatcher struct {
	responsesDir string
	receipts     repository.ReceiptRepository
	validator    *payment.Validator
	audit        audit.Sink
	clock        clockz.Clock
	newID        func() string
	logger       *slog.Logger

	mu      sync.Mutex
	pending map[string]*approval // by request filename
}

type Option func(*Dispatcher)

// WithClock sets the clock used for expiry checks and receipt timestamps.
func WithClock(c clockz.Clock) Option {
	return func(d *Dispatcher) {
		if c != nil {
			d.clock = c
		}
	}
}

// WithAudit sets the audit sink. The default discards events.
func WithAudit(s audit.Sink) Option {
	return func(d *Dispatcher) {
		if s != nil {
			d.audit = s
		}
	}
}

// WithIDGenerator replaces payment.GenerateID.
func WithIDGenerator(gen func() string) Option {
	return func(d *Dispatcher) {
		if gen != nil {
			d.newID = gen
		}
	}
}

func NewDispatcher(responsesDir string, receipts repository.ReceiptRepository, logger *slog.Logger, opts ...Option) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dispatcher{
		responsesDir: responsesDir,
		receipts:     receipts,
		audit:        audit.Nop{},
		clock:        clockz.RealClock,
		newID:        payment.GenerateID,
		logger:       logger,
		pending:      make(map[string]*approval),
	}
	for _, o := range opts {
		o(d)
	}
	d.validator = payment.NewValidator(d.clock)
	return d
}

// Dispatch reads the request at path, writes its response and removes the
// request. When an error is returned the request file is left in place; an
// approved payment retried this way keeps its first payment id.
func (d *Dispatcher) Dispatch(ctx context.Context, path string) (Outcome, error) {
	ctx, _ = common.NewRequestContext(ctx)
	ctx = common.WithFilename(ctx, filepath.Base(path))
	logger := common.ContextLogger(ctx, d.logger)

	env, nameErr := ParseRequestName(path)
	out := Outcome{Envelope: env}

	data, err := os.ReadFile(path)
	if err != nil {
		return out, fmt.Errorf("read request %s: %w", env.Name, err)
	}

	if nameErr != nil {
		logger.Warn("dropping unrecognized request file")
		out.Ignored = true
		if err := os.Remove(path); err != nil {
			return out, fmt.Errorf("remove request %s: %w", env.Name, err)
		}
		return out, nil
	}

	fields := codec.Parse(string(data))

	var (
		r       reply
		pending *approval
	)
	switch env.Kind {
	case KindPayment:
		digest := sha256.Sum256(data)
		if pending = d.pendingApproval(env.Name, digest); pending != nil {
			logger.Info("reusing approval from earlier attempt", "payment_id", pending.reply.paymentID)
			r = pending.reply
		} else {
			r = d.handlePayment(ctx, fields, logger)
			if r.status == constants.StatusApproved {
				pending = &approval{digest: digest, reply: r}
				d.setPending(env.Name, pending)
			}
		}
	case KindReceipt:
		r = d.handleReceipt(ctx, fields, logger)
	}
	out.Status, out.Reason, out.PaymentID = r.status, r.reason, r.paymentID

	respPath := filepath.Join(d.responsesDir, env.ResponseName())
	if err := writeAtomic(d.responsesDir, respPath, codec.Serialize(r.fields)); err != nil {
		logger.Error("failed to write response", "response", respPath, "error", err)
		return out, fmt.Errorf("write response %s: %w", filepath.Base(respPath), err)
	}
	out.ResponsePath = respPath
	if pending == nil || !pending.audited {
		d.audit.Record(r.event)
		if pending != nil {
			pending.audited = true
		}
	}

	if err := os.Remove(path); err != nil {
		return out, fmt.Errorf("remove request %s: %w", env.Name, err)
	}
	if pending != nil {
		d.clearPending(env.Name)
	}

	logger.Info("request processed",
		"kind", env.Kind.String(),
		"status", string(r.status),
		"reason", string(r.reason),
		"payment_id", r.paymentID)
	return out, nil
}

// pendingApproval returns the unconfirmed approval for name when the request
// body is unchanged. A changed body is a new request and drops the old entry.
func (d *Dispatcher) pendingApproval(name string, digest [sha256.Size]byte) *approval {
	d.mu.Lock()
	defer d.mu.Unlock()
	a, ok := d.pending[name]
	if !ok {
		return nil
	}
	if a.digest != digest {
		delete(d.pending, name)
		return nil
	}
	return a
}

func (d *Dispatcher) setPending(name string, a *approval) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending[name] = a
}

func (d *Dispatcher) clearPending(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.pending, name)
}

func (d *Dispatcher) handlePayment(ctx context.Context, fields codec.Fields, logger *slog.Logger) reply {
	if res := d.validator.Validate(fields); !res.Valid() {
		return reply{
			status: constants.StatusDenied,
			reason: res.Reason,
			fields: []codec.Field{
				{Key: constants.FieldStatus, Value: string(constants.StatusDenied)},
				{Key: constants.FieldReason, Value: string(res.Reason)},
			},
			event: audit.Denied(string(res.Reason)),
		}
	}

	card, _ := fields.Get(constants.FieldCard)
	rawAmount, _ := fields.Get(constants.FieldAmount)
	amount, _ := payment.ParseAmount(rawAmount)

	receipt := &entity.Receipt{
		Amount:     amount,
		MaskedCard: payment.MaskCard(card),
		Timestamp:  d.clock.Now(),
	}
	if err := d.saveReceipt(ctx, receipt, logger); err != nil {
		logger.Error("failed to save receipt", "error", err)
		r := errorReply(constants.ReasonStoreWriteError)
		r.event = audit.PaymentError(string(constants.ReasonStoreWriteError))
		return r
	}

	return reply{
		status:    constants.StatusApproved,
		paymentID: receipt.PaymentID,
		fields: []codec.Field{
			{Key: constants.FieldStatus, Value: string(constants.StatusApproved)},
			{Key: constants.FieldPaymentID, Value: receipt.PaymentID},
		},
		event: audit.Approved(receipt.PaymentID, rawAmount),
	}
}

// saveReceipt assigns a fresh id and saves, retrying on id collisions.
func (d *Dispatcher) saveReceipt(ctx context.Context, receipt *entity.Receipt, logger *slog.Logger) error {
	var err error
	for attempt := 1; attempt <= maxIDAttempts; attempt++ {
		receipt.PaymentID = d.newID()
		err = d.receipts.Save(ctx, receipt)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrDuplicatePaymentID) {
			return err
		}
		logger.Warn("payment id collision, regenerating", "payment_id", receipt.PaymentID, "attempt", attempt)
	}
	return fmt.Errorf("no free payment id after %d attempts: %w", maxIDAttempts, err)
}

func (d *Dispatcher) handleReceipt(ctx context.Context, fields codec.Fields, logger *slog.Logger) reply {
	id, _ := fields.Get(constants.FieldPaymentID)
	id = strings.TrimSpace(id)
	if id == "" {
		return errorReply(constants.ReasonMissingPaymentID)
	}

	rec, err := d.receipts.Find(ctx, id)
	switch {
	case err == nil:
	case errors.Is(err, common.ErrNotFound):
		return errorReply(constants.ReasonReceiptNotFound)
	case errors.Is(err, repository.ErrCorruptRecord):
		logger.Warn("corrupt receipt record", "payment_id", id, "error", err)
		return errorReply(constants.ReasonCorruptRecord)
	default:
		logger.Error("failed to read receipt", "payment_id", id, "error", err)
		return errorReply(constants.ReasonStoreReadError)
	}

	return reply{
		status:    constants.StatusFound,
		paymentID: rec.PaymentID,
		fields: []codec.Field{
			{Key: constants.FieldStatus, Value: string(constants.StatusFound)},
			{Key: constants.FieldPaymentID, Value: rec.PaymentID},
			{Key: constants.FieldAmount, Value: utils.FormatAmount(rec.Amount)},
			{Key: constants.FieldCard, Value: rec.MaskedCard},
		},
		event: audit.ReceiptFound(rec.PaymentID),
	}
}

func errorReply(reason constants.Reason) reply {
	return reply{
		status: constants.StatusError,
		reason: reason,
		fields: []codec.Field{
			{Key: constants.FieldStatus, Value: string(constants.StatusError)},
			{Key: constants.FieldReason, Value: string(reason)},
		},
		event: audit.ReceiptError(string(reason)),
	}
}

// writeAtomic writes data to a temp file in dir, syncs it and renames it to
// path, so readers never see a partial response.
func writeAtomic(dir, path, data string) error {
	tmp, err := os.CreateTemp(dir, ".response-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.WriteString(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
