package extract

import (
	"encoding/json"

	"github.com/x360-io/x360/pkg/protocol"
)

// BriefingObject extracts and validates a briefing reply. The reply must
// parse as JSON (fenced or bare) and carry both "summary" and "items" at
// the top level; anything else returns a tagged *Error for the caller's
// fallback boundary to absorb.
func BriefingObject(raw string) (*protocol.Briefing, error) {
	obj, err := FencedJSON(raw)
	if err != nil {
		return nil, err
	}
	if err := RequireKeys(obj, "summary", "items"); err != nil {
		return nil, err
	}

	// Re-encode the validated object into the typed shape. Individual items
	// that don't match the schema decode to zero values rather than failing
	// the whole briefing.
	buf, err := json.Marshal(obj)
	if err != nil {
		return nil, &Error{Kind: KindMalformedOutput, Msg: "re-encode briefing", Err: err}
	}
	var briefing protocol.Briefing
	if err := json.Unmarshal(buf, &briefing); err != nil {
		return nil, &Error{Kind: KindMalformedOutput, Msg: "briefing shape mismatch", Err: err}
	}
	if briefing.Items == nil {
		briefing.Items = []protocol.BriefingItem{}
	}
	return &briefing, nil
}
