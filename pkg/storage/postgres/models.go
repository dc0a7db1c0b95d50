package postgres

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"lending/pkg/domain"
	"time"

	"github.com/google/uuid"
)

// jsonb is a raw JSON column value. An empty value is stored as NULL.
type jsonb []byte

func (j jsonb) Value() (driver.Value, error) {
	if len(j) == 0 {
		return nil, nil
	}

	return string(j), nil
}

func (j *jsonb) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*j = nil
	case []byte:
		*j = append(jsonb(nil), v...)
	case string:
		*j = jsonb(v)
	default:
		return fmt.Errorf("could not scan %T into jsonb", src)
	}

	return nil
}

type PgDocument struct {
	ID     uuid.UUID `db:"id"`
	UserID uuid.UUID `db:"user_id"`

	Filename string `db:"filename"`
	MimeType string `db:"mime_type"`
	Size     int64  `db:"size"`

	DocumentType string `db:"document_type"`
	Fields       jsonb  `db:"fields"`
	Confidence   int    `db:"confidence"`
	Review       string `db:"review"`

	CreatedAt time.Time `db:"created_at"`
}

func (p *PgDocument) ToDomain() (*domain.Document, error) {
	var fields map[string]string
	if err := json.Unmarshal(p.Fields, &fields); err != nil {
		return nil, fmt.Errorf("could not unmarshal document fields: %w", err)
	}

	return &domain.Document{
		ID:       domain.DocumentID(p.ID),
		UserID:   domain.UserID(p.UserID),
		Filename: p.Filename,
		MimeType: p.MimeType,
		Size:     p.Size,
		Extracted: domain.ExtractedData{
			Type:       domain.DocumentType(p.DocumentType),
			Fields:     fields,
			Confidence: p.Confidence,
		},
		Review:    domain.ReviewStatus(p.Review),
		CreatedAt: p.CreatedAt,
	}, nil
}

func (p *PgDocument) FromDomain(doc domain.Document) error {
	fields := doc.Extracted.Fields
	if fields == nil {
		fields = map[string]string{}
	}
	b, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("could not marshal document fields: %w", err)
	}

	*p = PgDocument{
		ID:           uuid.UUID(doc.ID),
		UserID:       uuid.UUID(doc.UserID),
		Filename:     doc.Filename,
		MimeType:     doc.MimeType,
		Size:         doc.Size,
		DocumentType: string(doc.Extracted.Type),
		Fields:       b,
		Confidence:   doc.Extracted.Confidence,
		Review:       string(doc.Review),
		CreatedAt:    doc.CreatedAt,
	}

	return nil
}

type PgApplication struct {
	ID     uuid.UUID `db:"id"      goqu:"skipupdate"`
	UserID uuid.UUID `db:"user_id" goqu:"skipupdate"`

	PersonalInfo jsonb `db:"personal_info"`
	LoanDetails  jsonb `db:"loan_details"`
	DocumentIDs  jsonb `db:"document_ids"`

	State          string          `db:"state"`
	Result         jsonb           `db:"result"`
	ApprovedAmount sql.NullFloat64 `db:"approved_amount"`
	InterestRate   sql.NullFloat64 `db:"interest_rate"`
	FailureReason  sql.NullString  `db:"failure_reason"`

	SubmittedAt time.Time `db:"submitted_at" goqu:"skipupdate"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (p *PgApplication) ToDomain() (*domain.Application, error) {
	app := domain.Application{
		ID:            domain.ApplicationID(p.ID),
		UserID:        domain.UserID(p.UserID),
		State:         domain.ApplicationState(p.State),
		FailureReason: p.FailureReason.String,
		SubmittedAt:   p.SubmittedAt,
		UpdatedAt:     p.UpdatedAt,
	}
	if err := json.Unmarshal(p.PersonalInfo, &app.PersonalInfo); err != nil {
		return nil, fmt.Errorf("could not unmarshal personal info: %w", err)
	}
	if err := json.Unmarshal(p.LoanDetails, &app.LoanDetails); err != nil {
		return nil, fmt.Errorf("could not unmarshal loan details: %w", err)
	}
	if len(p.DocumentIDs) > 0 {
		if err := json.Unmarshal(p.DocumentIDs, &app.DocumentIDs); err != nil {
			return nil, fmt.Errorf("could not unmarshal document ids: %w", err)
		}
	}
	if len(p.Result) > 0 && string(p.Result) != "null" {
		app.Result = &domain.UnderwritingResult{}
		if err := json.Unmarshal(p.Result, app.Result); err != nil {
			return nil, fmt.Errorf("could not unmarshal underwriting result: %w", err)
		}
	}
	if p.ApprovedAmount.Valid {
		app.ApprovedAmount = &p.ApprovedAmount.Float64
	}
	if p.InterestRate.Valid {
		app.InterestRate = &p.InterestRate.Float64
	}

	return &app, nil
}

func (p *PgApplication) FromDomain(app domain.Application) error {
	info, err := json.Marshal(app.PersonalInfo)
	if err != nil {
		return fmt.Errorf("could not marshal personal info: %w", err)
	}
	loan, err := json.Marshal(app.LoanDetails)
	if err != nil {
		return fmt.Errorf("could not marshal loan details: %w", err)
	}
	ids := app.DocumentIDs
	if ids == nil {
		ids = []domain.DocumentID{}
	}
	documentIDs, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("could not marshal document ids: %w", err)
	}
	var result jsonb
	if app.Result != nil {
		if result, err = json.Marshal(app.Result); err != nil {
			return fmt.Errorf("could not marshal underwriting result: %w", err)
		}
	}

	*p = PgApplication{
		ID:           uuid.UUID(app.ID),
		UserID:       uuid.UUID(app.UserID),
		PersonalInfo: info,
		LoanDetails:  loan,
		DocumentIDs:  documentIDs,
		State:        string(app.State),
		Result:       result,
		FailureReason: sql.NullString{
			String: app.FailureReason,
			Valid:  app.FailureReason != "",
		},
		SubmittedAt: app.SubmittedAt,
		UpdatedAt:   app.UpdatedAt,
	}
	if app.ApprovedAmount != nil {
		p.ApprovedAmount = sql.NullFloat64{Float64: *app.ApprovedAmount, Valid: true}
	}
	if app.InterestRate != nil {
		p.InterestRate = sql.NullFloat64{Float64: *app.InterestRate, Valid: true}
	}

	return nil
}

type PgCreditScore struct {
	ID            int64     `db:"id"             goqu:"skipinsert"`
	UserID        uuid.UUID `db:"user_id"`
	ApplicationID uuid.UUID `db:"application_id"`
	Score         int       `db:"score"`
	ScoredAt      time.Time `db:"scored_at"`
}

func (p *PgCreditScore) ToDomain() domain.CreditScoreRecord {
	return domain.CreditScoreRecord{
		UserID:        domain.UserID(p.UserID),
		ApplicationID: domain.ApplicationID(p.ApplicationID),
		Score:         p.Score,
		Timestamp:     p.ScoredAt,
	}
}

func (p *PgCreditScore) FromDomain(record domain.CreditScoreRecord) {
	*p = PgCreditScore{
		UserID:        uuid.UUID(record.UserID),
		ApplicationID: uuid.UUID(record.ApplicationID),
		Score:         record.Score,
		ScoredAt:      record.Timestamp,
	}
}

func pgDocumentsToDomain(docs []PgDocument) ([]domain.Document, error) {
	out := make([]domain.Document, 0, len(docs))
	for _, doc := range docs {
		d, err := doc.ToDomain()
		if err != nil {
			return nil, err
		}

		out = append(out, *d)
	}

	return out, nil
}

func pgApplicationsToDomain(apps []PgApplication) ([]domain.Application, error) {
	out := make([]domain.Application, 0, len(apps))
	for _, app := range apps {
		d, err := app.ToDomain()
		if err != nil {
			return nil, err
		}

		out = append(out, *d)
	}

	return out, nil
}
