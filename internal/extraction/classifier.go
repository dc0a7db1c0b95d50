package extraction

import (
	"context"
	"fmt"
	"lending/pkg/domain"
	"strings"
)

// Upload is an accepted file as seen by a Classifier. Text is the plain
// text of a PDF upload; it is empty for images and unreadable PDFs.
type Upload struct {
	Data     []byte
	Filename string
	MimeType string
	Text     string
}

// Classifier assigns a document type to an upload.
type Classifier interface {
	Classify(ctx context.Context, upload Upload) (domain.DocumentType, error)
}

// FilenameClassifier classifies by name only: "aadhar"/"aadhaar" is an
// identity card, "pan" a tax card, anything else a bank statement.
type FilenameClassifier struct{}

var _ Classifier = FilenameClassifier{}

// Classify implements Classifier. It never fails.
func (FilenameClassifier) Classify(_ context.Context, upload Upload) (domain.DocumentType, error) {
	return classifyFilename(upload.Filename), nil
}

func classifyFilename(filename string) domain.DocumentType {
	name := strings.ToLower(filename)
	switch {
	case strings.Contains(name, "aadhar"), strings.Contains(name, "aadhaar"):
		return domain.DocumentTypeAadhaar
	case strings.Contains(name, "pan"):
		return domain.DocumentTypePAN
	default:
		return domain.DocumentTypeBankStatement
	}
}

// keywords are checked in order; the first type with a hit wins.
var keywords = []struct { //nolint: gochecknoglobals
	docType domain.DocumentType
	words   []string
}{
	{domain.DocumentTypeAadhaar, []string{"aadhaar", "aadhar", "uidai", "unique identification"}},
	{domain.DocumentTypePAN, []string{"permanent account number", "income tax department"}},
	{domain.DocumentTypeBankStatement, []string{"statement of account", "account statement", "ifsc", "closing balance"}},
}

func classifyText(text string) (domain.DocumentType, bool) {
	text = strings.ToLower(text)
	for _, k := range keywords {
		for _, w := range k.words {
			if strings.Contains(text, w) {
				return k.docType, true
			}
		}
	}

	return "", false
}

// PDFTextClassifier looks for type keywords in the text of PDF uploads and
// falls back to the filename for images, unreadable PDFs and PDFs without
// keywords.
type PDFTextClassifier struct{}

var _ Classifier = PDFTextClassifier{}

// Classify implements Classifier. It never fails.
func (PDFTextClassifier) Classify(_ context.Context, upload Upload) (domain.DocumentType, error) {
	if upload.MimeType == MimeTypePDF {
		if t, ok := classifyText(upload.Text); ok {
			return t, nil
		}
	}

	return classifyFilename(upload.Filename), nil
}

// NewClassifier returns the classifier registered under name: "filename" or "pdf".
func NewClassifier(name string) (Classifier, error) {
	switch name {
	case "", "filename":
		return FilenameClassifier{}, nil
	case "pdf":
		return PDFTextClassifier{}, nil
	default:
		return nil, fmt.Errorf("unknown classifier %q", name)
	}
}
