package repositories

import (
	"context"

	"github.com/zatekoja/carematch/internal/domain/entities"
)

// MatchRepository defines persistence for match records. The orchestrator
// owns the full lifecycle: records are created or overwritten per
// (patient, agency) pair and never deleted by this subsystem.
type MatchRepository interface {
	// Upsert inserts the match or, when a row for (patient_id, agency_id)
	// already exists, overwrites its score, breakdown, tags and update
	// timestamp. Returns the persisted match with its row ID.
	Upsert(ctx context.Context, match *entities.Match) (*entities.Match, error)

	// ListByPatient retrieves the patient's matches ordered by score
	// descending, agency ID ascending on ties
	ListByPatient(ctx context.Context, patientID string) ([]*entities.Match, error)

	// ListAgencyIDsByPatient returns the IDs of agencies already matched to
	// the patient, used as the exclusion set for subsequent runs
	ListAgencyIDsByPatient(ctx context.Context, patientID string) ([]string, error)

	// CountByPatient returns the number of persisted matches for the patient
	CountByPatient(ctx context.Context, patientID string) (int, error)

	// SetChannelID records the provisioned conversation channel on a match
	SetChannelID(ctx context.Context, matchID, channelID string) error
}
