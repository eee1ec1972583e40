package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/payment-desk/internal/common"
	"github.com/joseph-ayodele/payment-desk/internal/entity"
)

func makeTestReceipt(id, amount string, ts time.Time) *entity.Receipt {
	return &entity.Receipt{
		PaymentID:  id,
		Amount:     decimal.RequireFromString(amount),
		MaskedCard: "xxxxxxxxxxxx1111",
		Timestamp:  ts,
	}
}

// runRepositoryContract exercises the behavior every backend must share.
func runRepositoryContract(t *testing.T, repo ReceiptRepository) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2026, 10, 17, 9, 30, 0, 123000000, time.UTC)

	t.Run("save then find round trips", func(t *testing.T) {
		want := makeTestReceipt("payabc123", "42.50", base)
		if err := repo.Save(ctx, want); err != nil {
			t.Fatalf("Save: %v", err)
		}
		got, err := repo.Find(ctx, "payabc123")
		if err != nil {
			t.Fatalf("Find: %v", err)
		}
		if got.PaymentID != want.PaymentID || got.MaskedCard != want.MaskedCard {
			t.Errorf("Find = %+v, want %+v", got, want)
		}
		if !got.Amount.Equal(want.Amount) || got.Amount.Exponent() != -2 {
			t.Errorf("amount = %s (exp %d), want 42.50", got.Amount, got.Amount.Exponent())
		}
		if !got.Timestamp.Equal(want.Timestamp) {
			t.Errorf("timestamp = %v, want %v", got.Timestamp, want.Timestamp)
		}
	})

	t.Run("find is idempotent", func(t *testing.T) {
		a, err := repo.Find(ctx, "payabc123")
		if err != nil {
			t.Fatal(err)
		}
		b, err := repo.Find(ctx, "payabc123")
		if err != nil {
			t.Fatal(err)
		}
		if a.PaymentID != b.PaymentID || !a.Amount.Equal(b.Amount) || a.MaskedCard != b.MaskedCard || !a.Timestamp.Equal(b.Timestamp) {
			t.Errorf("lookups differ: %+v vs %+v", a, b)
		}
	})

	t.Run("duplicate id is rejected and original kept", func(t *testing.T) {
		err := repo.Save(ctx, makeTestReceipt("payabc123", "1.00", base))
		if !errors.Is(err, ErrDuplicatePaymentID) {
			t.Fatalf("Save duplicate = %v, want ErrDuplicatePaymentID", err)
		}
		got, err := repo.Find(ctx, "payabc123")
		if err != nil {
			t.Fatal(err)
		}
		if got.Amount.String() != "42.5" {
			t.Errorf("original record was overwritten: amount %s", got.Amount)
		}
	})

	t.Run("unknown id is not found", func(t *testing.T) {
		_, err := repo.Find(ctx, "paynever00")
		if !errors.Is(err, common.ErrNotFound) {
			t.Fatalf("Find unknown = %v, want ErrNotFound", err)
		}
	})

	t.Run("list is ordered by timestamp", func(t *testing.T) {
		if err := repo.Save(ctx, makeTestReceipt("payearly01", "5", base.Add(-time.Hour))); err != nil {
			t.Fatal(err)
		}
		if err := repo.Save(ctx, makeTestReceipt("paylate001", "7.25", base.Add(time.Hour))); err != nil {
			t.Fatal(err)
		}
		recs, err := repo.List(ctx)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		var ids []string
		for _, r := range recs {
			ids = append(ids, r.PaymentID)
		}
		want := []string{"payearly01", "payabc123", "paylate001"}
		if len(ids) != len(want) {
			t.Fatalf("List ids = %v, want %v", ids, want)
		}
		for i := range want {
			if ids[i] != want[i] {
				t.Fatalf("List ids = %v, want %v", ids, want)
			}
		}
	})
}

func TestValidPaymentID(t *testing.T) {
	tests := map[string]bool{
		"payabc123":   true,
		"PAY_1-x":     true,
		"":            false,
		"../etc":      false,
		"a/b":         false,
		"pay abc":     false,
		"pay\x00null": false,
	}
	for id, want := range tests {
		if got := ValidPaymentID(id); got != want {
			t.Errorf("ValidPaymentID(%q) = %v, want %v", id, got, want)
		}
	}
}

func TestDecodeReceiptRejectsCorruptRecords(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", "{oops"},
		{"missing amount", `{"payment_id":"payabc123","masked_card":"x1111","timestamp":"2026-10-17T09:30:00Z"}`},
		{"numeric amount", `{"payment_id":"payabc123","amount":42.5,"masked_card":"x1111","timestamp":"2026-10-17T09:30:00Z"}`},
		{"negative amount", `{"payment_id":"payabc123","amount":"-1","masked_card":"x1111","timestamp":"2026-10-17T09:30:00Z"}`},
		{"bad timestamp", `{"payment_id":"payabc123","amount":"1.00","masked_card":"x1111","timestamp":"yesterday"}`},
		{"array", `[]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeReceipt([]byte(tt.data))
			if !errors.Is(err, ErrCorruptRecord) {
				t.Fatalf("decodeReceipt = %v, want ErrCorruptRecord", err)
			}
		})
	}
}
