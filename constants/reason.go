package constants

// Reason is the REASON value written next to a DENIED or ERROR status.
type Reason string

// Validation reasons, reported by the first failing rule.
const (
	ReasonInvalidCard         Reason = "InvalidCard"
	ReasonInvalidExpiryFormat Reason = "InvalidExpiryFormat"
	ReasonCardExpired         Reason = "CardExpired"
	ReasonInvalidCvv          Reason = "InvalidCvv"
	ReasonMissingAmount       Reason = "MissingAmount"
	ReasonInvalidAmount       Reason = "InvalidAmount"
)

// Lookup and storage reasons.
const (
	ReasonMissingPaymentID Reason = "MissingPaymentId"
	ReasonReceiptNotFound  Reason = "ReceiptNotFound"
	ReasonCorruptRecord    Reason = "CorruptRecord"
	ReasonStoreReadError   Reason = "StoreReadError"
	ReasonStoreWriteError  Reason = "StoreWriteError"
)
