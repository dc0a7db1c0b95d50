package postgres

import (
	"context"
	"fmt"
	"lending/pkg/domain"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
)

const (
	creditScoresTable = "credit_scores"
)

func (p *PgSQL) AppendCreditScore(ctx context.Context, record domain.CreditScoreRecord) error {
	var row PgCreditScore
	row.FromDomain(record)

	if _, err := p.Builder.Insert(creditScoresTable).
		Rows(row).
		Executor().ExecContext(ctx); err != nil {
		return fmt.Errorf("could not append credit score into pg: %w", err)
	}

	return nil
}

// CreditScoreHistory returns up to limit records ordered by scored_at DESC,
// id DESC. A zero limit returns every record.
func (p *PgSQL) CreditScoreHistory(ctx context.Context,
	userID domain.UserID,
	limit uint) ([]domain.CreditScoreRecord, error) {
	ds := p.Builder.From(creditScoresTable).
		Where(goqu.I("user_id").Eq(uuid.UUID(userID))).
		Order(goqu.I("scored_at").Desc(), goqu.I("id").Desc())
	if limit > 0 {
		ds = ds.Limit(limit)
	}

	var rows []PgCreditScore
	if err := ds.Executor().ScanStructsContext(ctx, &rows); err != nil {
		return nil, fmt.Errorf("could not fetch credit score history from pg: %w", err)
	}

	out := make([]domain.CreditScoreRecord, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}

	return out, nil
}
