package models

// Status is the discriminator every operation result carries. Callers must
// branch on it rather than on transport status codes.
type Status string

const (
	// StatusSuccess means the operation produced a usable result.
	StatusSuccess Status = "success"
	// StatusWarning means the operation completed but produced no usable
	// output (blank page, no matching chunks). Not a failure.
	StatusWarning Status = "warning"
	// StatusError means the operation failed.
	StatusError Status = "error"
)
