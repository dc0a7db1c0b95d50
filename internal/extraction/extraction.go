// Package extraction accepts uploaded identity and financial documents,
// classifies them and extracts their structured fields.
package extraction

import (
	"context"
	"fmt"
	"lending/internal/config"
	"lending/pkg/domain"
	"lending/pkg/logger"
	"lending/pkg/metrics"
	"lending/pkg/serrors"
	"lending/pkg/storage"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Accepted media types.
const (
	MimeTypeJPEG = "image/jpeg"
	MimeTypePNG  = "image/png"
	MimeTypePDF  = "application/pdf"
)

// DefaultMaxBytes is the default upload size limit (5 MiB).
const DefaultMaxBytes = 5 << 20

// DefaultReviewProbability is the default share of extractions flagged for review.
const DefaultReviewProbability = 0.1

// Rand is the random source used for confidences, review flags and stand-in
// values. *rand.Rand from math/rand/v2 implements it but is not safe for
// concurrent use.
type Rand interface {
	IntN(n int) int
	Float64() float64
}

type globalRand struct{}

func (globalRand) IntN(n int) int    { return rand.IntN(n) }
func (globalRand) Float64() float64 { return rand.Float64() }

//go:generate mockgen -package mockextraction -source=extraction.go -destination=mock/mockextraction.go *
type Extractor interface {
	// Extract validates, classifies and persists an upload for userID.
	Extract(ctx context.Context,
		userID domain.UserID,
		data []byte,
		filename, mimeType string) (*domain.Document, error)
}

// Options configure which uploads are accepted and how often an
// extraction is flagged for review.
type Options struct {
	// AllowedMimeTypes lists the accepted media types.
	AllowedMimeTypes []string
	// MaxBytes is the largest accepted upload.
	MaxBytes int64
	// ReviewProbability is the chance in [0, 1] that an extraction is flagged needs_review.
	ReviewProbability float64
	// Rand overrides the random source. Optional.
	Rand Rand
	// ReadText overrides the PDF text reader. Defaults to ReadPDFText.
	ReadText func(ctx context.Context, data []byte) (string, error)
}

// NewOptions constructs an Options value from the provided application config.
func NewOptions(cfg *config.Config) Options {
	return Options{
		AllowedMimeTypes:  cfg.Extraction.AllowedMimeTypes,
		MaxBytes:          cfg.Extraction.MaxBytes,
		ReviewProbability: cfg.Extraction.ReviewProbability,
	}
}

type extractor struct {
	options    Options
	storage    storage.DocumentStorage
	classifier Classifier
	metrics    *metrics.Pipeline
}

// New creates an Extractor persisting documents to storage.
func New(storage storage.DocumentStorage,
	classifier Classifier,
	pipeline *metrics.Pipeline,
	options Options) Extractor {
	if len(options.AllowedMimeTypes) == 0 {
		options.AllowedMimeTypes = []string{MimeTypeJPEG, MimeTypePNG, MimeTypePDF}
	}
	if options.MaxBytes <= 0 {
		options.MaxBytes = DefaultMaxBytes
	}
	if options.Rand == nil {
		options.Rand = globalRand{}
	}
	if options.ReadText == nil {
		options.ReadText = ReadPDFText
	}
	if classifier == nil {
		classifier = FilenameClassifier{}
	}
	if pipeline == nil {
		pipeline = metrics.Noop()
	}

	return &extractor{
		options:    options,
		storage:    storage,
		classifier: classifier,
		metrics:    pipeline,
	}
}

// Extract implements Extractor. Once an upload is accepted it always yields
// a document; classification and text failures only lower the review status.
// The same bytes uploaded twice produce two documents.
func (e *extractor) Extract(ctx context.Context,
	userID domain.UserID,
	data []byte,
	filename, mimeType string) (*domain.Document, error) {
	ctx, span := otel.Tracer("extraction").Start(ctx, "Extract")
	defer span.End()

	if err := e.accept(data, mimeType); err != nil {
		return nil, err
	}

	degraded := false
	var text string
	if mimeType == MimeTypePDF {
		var err error
		if text, err = e.options.ReadText(ctx, data); err != nil {
			logger.Debug(ctx, "Could not read pdf text", zap.String("filename", filename), zap.Error(err))
			degraded = true
		}
	}

	docType, err := e.classifier.Classify(ctx, Upload{Data: data, Filename: filename, MimeType: mimeType, Text: text})
	if err != nil {
		logger.Warn(ctx, "Classification failed, flagging for review",
			zap.String("filename", filename), zap.Error(err))
		degraded = true
	}
	if docType == "" {
		docType = classifyFilename(filename)
	}

	review := domain.ReviewStatusVerified
	if degraded || e.options.Rand.Float64() < e.options.ReviewProbability {
		review = domain.ReviewStatusNeedsReview
	}

	doc, err := e.storage.StoreDocument(ctx, domain.Document{
		ID:       domain.DocumentID(uuid.New()),
		UserID:   userID,
		Filename: filename,
		MimeType: mimeType,
		Size:     int64(len(data)),
		Extracted: domain.ExtractedData{
			Type:       docType,
			Fields:     standInFields(docType, text, e.options.Rand),
			Confidence: confidenceFor(docType, e.options.Rand),
		},
		Review:    review,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("could not store document: %w", err)
	}

	span.SetAttributes(attribute.String("document.type", string(docType)))
	e.metrics.DocumentExtracted(ctx, string(docType), string(review))
	logger.Info(ctx, "Document extracted",
		zap.Stringer("documentID", doc.ID),
		zap.String("type", string(docType)),
		zap.String("status", string(review)))

	return doc, nil
}

func (e *extractor) accept(data []byte, mimeType string) error {
	if !slices.Contains(e.options.AllowedMimeTypes, mimeType) {
		return serrors.With(serrors.ErrRejectedInput, "file type %q is not allowed", mimeType)
	}
	if len(data) == 0 {
		return serrors.With(serrors.ErrRejectedInput, "file is empty")
	}
	if int64(len(data)) > e.options.MaxBytes {
		return serrors.With(serrors.ErrRejectedInput, "file exceeds %d bytes", e.options.MaxBytes)
	}

	return nil
}
