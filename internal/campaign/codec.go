package campaign

import (
	"encoding/json"
	"fmt"

	apperrors "github.com/louisbranch/milestonefund/internal/platform/errors"
)

// recordVersion is bumped whenever the persisted layout changes.
const recordVersion = 1

type record struct {
	Version  int  `json:"version"`
	Campaign Data `json:"campaign"`
}

// Marshal encodes the aggregate for the persistence boundary.
func Marshal(data Data) ([]byte, error) {
	payload, err := json.Marshal(record{Version: recordVersion, Campaign: data})
	if err != nil {
		return nil, fmt.Errorf("marshal campaign: %w", err)
	}
	return payload, nil
}

// Unmarshal decodes a persisted aggregate and re-checks its invariants.
// Unreadable or invariant-breaking payloads are reported as corrupt state.
func Unmarshal(payload []byte) (Data, error) {
	var decoded record
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return Data{}, apperrors.Wrap(apperrors.CodeStateCorrupt, "unmarshal campaign", err)
	}
	if decoded.Version != recordVersion {
		return Data{}, apperrors.New(apperrors.CodeStateCorrupt, fmt.Sprintf("unsupported campaign record version %d", decoded.Version))
	}
	if err := decoded.Campaign.Validate(); err != nil {
		return Data{}, apperrors.New(apperrors.CodeStateCorrupt, "campaign record violates invariants: "+err.Error())
	}
	return decoded.Campaign, nil
}
