package constants

import "strings"

// Request field names. Keys are case-sensitive.
const (
	FieldCard      = "CARD"
	FieldExpiry    = "EXP"
	FieldCVV       = "CVV"
	FieldAmount    = "AMOUNT"
	FieldPaymentID = "PAYMENT_ID"
	FieldStatus    = "STATUS"
	FieldReason    = "REASON"
)

// Request and response filename prefixes.
const (
	PaymentRequestPrefix  = "payment_request"
	PaymentResponsePrefix = "payment_response"
	ReceiptRequestPrefix  = "receipt_request"
	ReceiptResponsePrefix = "receipt_response"
)

// ReceiptFilePrefix and ReceiptFileExt name stored receipt records: receipt_<payment_id>.json
const (
	ReceiptFilePrefix = "receipt_"
	ReceiptFileExt    = "json"
)

// AuditLogFile is the audit log name inside the logs directory.
const AuditLogFile = "payment_log.txt"

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
