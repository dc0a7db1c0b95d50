package domain

import (
	"time"

	"github.com/google/uuid"
)

// DocumentID uniquely identifies an uploaded document.
type DocumentID uuid.UUID

// String returns the canonical UUID representation.
func (d DocumentID) String() string { return uuid.UUID(d).String() }

// MarshalText encodes the ID as a canonical UUID string.
func (d DocumentID) MarshalText() ([]byte, error) { return uuid.UUID(d).MarshalText() }

// UnmarshalText decodes a UUID string.
func (d *DocumentID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(d).UnmarshalText(b)
}

// DocumentType is the category assigned to a document by classification.
type DocumentType string

const (
	// DocumentTypeAadhaar is a national identity card.
	DocumentTypeAadhaar DocumentType = "aadhaar"
	// DocumentTypePAN is a tax identity card.
	DocumentTypePAN DocumentType = "pan"
	// DocumentTypeBankStatement is a bank account statement.
	DocumentTypeBankStatement DocumentType = "bank_statement"
)

// ReviewStatus tells whether an extraction can be trusted as-is.
type ReviewStatus string

const (
	// ReviewStatusVerified means the automated extraction is accepted.
	ReviewStatusVerified ReviewStatus = "verified"
	// ReviewStatusNeedsReview means a human should double-check the extracted fields.
	ReviewStatusNeedsReview ReviewStatus = "needs_review"
)

// ExtractedData is the structured payload produced from a document.
type ExtractedData struct {
	// Type is the classified document category.
	Type DocumentType `json:"type"`
	// Fields holds the extracted values keyed by field name (e.g. "number", "ifsc").
	Fields map[string]string `json:"fields"`
	// Confidence is the extraction confidence as a percentage in [0, 100].
	Confidence int `json:"confidence"`
}

// Document is an uploaded identity or financial document together with the
// data extracted from it. Documents are immutable once created.
type Document struct {
	// ID is the unique identifier of the document.
	ID DocumentID `json:"id"`
	// UserID is the user who uploaded the document.
	UserID UserID `json:"userId"`

	// Filename is the original client-side file name.
	Filename string `json:"originalName"`
	// MimeType is the declared media type of the upload.
	MimeType string `json:"mimeType"`
	// Size is the payload size in bytes.
	Size int64 `json:"size"`

	// Extracted holds the classification result and extracted fields.
	Extracted ExtractedData `json:"extractedData"`
	// Review is the review status of the extraction.
	Review ReviewStatus `json:"status"`

	// CreatedAt is when the document was extracted and stored.
	CreatedAt time.Time `json:"uploadedAt"`
}
