package constants

// Status is the STATUS value written to a response file.
type Status string

// Stable values (callers match these exact strings).
const (
	StatusApproved Status = "APPROVED" // payment accepted, receipt stored
	StatusDenied   Status = "DENIED"   // payment failed validation
	StatusFound    Status = "FOUND"    // receipt lookup hit
	StatusError    Status = "ERROR"    // lookup miss or storage failure
)
