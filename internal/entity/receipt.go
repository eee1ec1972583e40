package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Receipt is the durable record of an approved payment.
type Receipt struct {
	PaymentID  string          `json:"payment_id"`
	Amount     decimal.Decimal `json:"amount"`
	MaskedCard string          `json:"masked_card"`
	Timestamp  time.Time       `json:"timestamp"`
}
