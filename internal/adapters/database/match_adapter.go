package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/google/uuid"
	"github.com/zatekoja/carematch/internal/domain/entities"
	"github.com/zatekoja/carematch/internal/domain/repositories"
	"github.com/zatekoja/carematch/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/carematch/pkg/errors"
)

// MatchAdapter implements the MatchRepository interface
type MatchAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewMatchAdapter creates a new match adapter
func NewMatchAdapter(client *postgres.Client) repositories.MatchRepository {
	return &MatchAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Upsert inserts or overwrites the match row for (patient_id, agency_id).
// The unique constraint on the pair is the concurrency-control mechanism:
// concurrent runs for the same patient converge on one row per agency.
func (a *MatchAdapter) Upsert(ctx context.Context, match *entities.Match) (*entities.Match, error) {
	if match == nil {
		return nil, apperrors.NewValidationError("match is required")
	}
	if match.PatientID == "" || match.AgencyID == "" {
		return nil, apperrors.NewValidationError("match requires patient and agency IDs")
	}
	if match.ID == "" {
		match.ID = uuid.New().String()
	}

	now := time.Now()
	if match.CreatedAt.IsZero() {
		match.CreatedAt = now
	}
	match.UpdatedAt = now

	breakdownBytes, err := json.Marshal(match.Breakdown)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to marshal breakdown", err)
	}
	tags := match.Tags
	if tags == nil {
		tags = []string{}
	}
	tagBytes, err := json.Marshal(tags)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to marshal tags", err)
	}

	query := `
		INSERT INTO matches
			(id, patient_id, agency_id, score, breakdown, tags, created_at, updated_at)
		VALUES
			($1, $2, $3, $4, $5::jsonb, $6::jsonb, $7, $8)
		ON CONFLICT (patient_id, agency_id)
		DO UPDATE SET
			score = EXCLUDED.score,
			breakdown = EXCLUDED.breakdown,
			tags = EXCLUDED.tags,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at
	`

	err = a.client.DB().QueryRowContext(
		ctx,
		query,
		match.ID,
		match.PatientID,
		match.AgencyID,
		match.Score,
		string(breakdownBytes),
		string(tagBytes),
		match.CreatedAt,
		match.UpdatedAt,
	).Scan(&match.ID, &match.CreatedAt)

	if err != nil {
		return nil, apperrors.NewInternalError("failed to upsert match", err)
	}

	return match, nil
}

// ListByPatient retrieves the patient's matches, best score first. Ties are
// broken by agency ID ascending so repeated reads return a stable order.
func (a *MatchAdapter) ListByPatient(ctx context.Context, patientID string) ([]*entities.Match, error) {
	query, args, err := a.db.Select(
		"id", "patient_id", "agency_id", "score", "breakdown", "tags",
		"channel_id", "created_at", "updated_at",
	).From("matches").
		Where(goqu.Ex{"patient_id": patientID}).
		Order(goqu.I("score").Desc(), goqu.I("agency_id").Asc()).
		ToSQL()

	if err != nil {
		return nil, apperrors.NewInternalError("failed to build match list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list matches", err)
	}
	defer rows.Close()

	matches := []*entities.Match{}
	for rows.Next() {
		match := &entities.Match{}
		var breakdownRaw, tagsRaw []byte
		var channelID sql.NullString

		err := rows.Scan(
			&match.ID,
			&match.PatientID,
			&match.AgencyID,
			&match.Score,
			&breakdownRaw,
			&tagsRaw,
			&channelID,
			&match.CreatedAt,
			&match.UpdatedAt,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan match", err)
		}

		if len(breakdownRaw) > 0 {
			_ = json.Unmarshal(breakdownRaw, &match.Breakdown)
		}
		if len(tagsRaw) > 0 {
			_ = json.Unmarshal(tagsRaw, &match.Tags)
		}
		if channelID.Valid {
			match.ChannelID = &channelID.String
		}

		matches = append(matches, match)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating matches", err)
	}

	return matches, nil
}

// ListAgencyIDsByPatient returns the IDs of agencies already matched to the patient
func (a *MatchAdapter) ListAgencyIDsByPatient(ctx context.Context, patientID string) ([]string, error) {
	query, args, err := a.db.Select("agency_id").
		From("matches").
		Where(goqu.Ex{"patient_id": patientID}).
		Order(goqu.I("agency_id").Asc()).
		ToSQL()

	if err != nil {
		return nil, apperrors.NewInternalError("failed to build agency id query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list matched agency ids", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, apperrors.NewInternalError("failed to scan agency id", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating agency ids", err)
	}

	return ids, nil
}

// CountByPatient returns the number of persisted matches for the patient
func (a *MatchAdapter) CountByPatient(ctx context.Context, patientID string) (int, error) {
	query, args, err := a.db.Select(goqu.COUNT("*")).
		From("matches").
		Where(goqu.Ex{"patient_id": patientID}).
		ToSQL()

	if err != nil {
		return 0, apperrors.NewInternalError("failed to build match count query", err)
	}

	var count int
	if err := a.client.DB().QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, apperrors.NewInternalError("failed to count matches", err)
	}

	return count, nil
}

// SetChannelID records the provisioned conversation channel on a match
func (a *MatchAdapter) SetChannelID(ctx context.Context, matchID, channelID string) error {
	query, args, err := a.db.Update("matches").
		Set(goqu.Record{
			"channel_id": channelID,
			"updated_at": time.Now(),
		}).
		Where(goqu.Ex{"id": matchID}).
		ToSQL()

	if err != nil {
		return apperrors.NewInternalError("failed to build channel update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to set channel id", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("match with id %s not found", matchID))
	}

	return nil
}
