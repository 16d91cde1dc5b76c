package marketplace

import (
	"encoding/json"
	"time"
)

// The marketplace API returns transactions in a JSON:API-like envelope:
// a primary resource plus an "included" array holding the requested
// relations, which are matched up by (type, id).

type envelope struct {
	Data     resource   `json:"data"`
	Included []resource `json:"included"`
}

type resource struct {
	ID            resourceID              `json:"id"`
	Type          string                  `json:"type"`
	Attributes    attributes              `json:"attributes"`
	Relationships map[string]relationship `json:"relationships"`
}

type relationship struct {
	Data *resourceRef `json:"data"`
}

type resourceRef struct {
	ID   resourceID `json:"id"`
	Type string     `json:"type"`
}

// resourceID accepts both the plain string form and the {"uuid": "..."}
// object form the marketplace SDKs emit.
type resourceID struct {
	UUID string
}

func (r *resourceID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		r.UUID = s
		return nil
	}
	var obj struct {
		UUID string `json:"uuid"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	r.UUID = obj.UUID
	return nil
}

func (r resourceID) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.UUID)
}

// attributes is the union of the attribute shapes we read across resource
// types; irrelevant fields stay zero.
type attributes struct {
	// transaction
	Metadata map[string]any `json:"metadata"`

	// listing
	PublicData publicData `json:"publicData"`

	// booking
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`

	// user
	Profile profile `json:"profile"`
}

type publicData struct {
	LockID string `json:"lockId"`
}

type profile struct {
	DisplayName string `json:"displayName"`
}
