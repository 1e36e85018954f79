package providers

import "context"

// ChannelProvisioner is the consumed contract of the messaging system. It
// creates, or returns the existing, conversation channel between the matched
// agency and the patient's family.
//
// EnsureChannel is idempotent per matchID: calling it again for a match that
// already has a channel is a no-op returning the existing channel ID.
// Provisioning failures must never invalidate an already-persisted match.
type ChannelProvisioner interface {
	EnsureChannel(ctx context.Context, matchID, agencyID, familyUserID, familyName string) (string, error)
}
