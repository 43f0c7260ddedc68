package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/codenexus/codenexus-engine/pkg/smells"
)

// Detection is the raw output of one static-analysis run. The payload is
// stored verbatim and interpreted by the smells package on read.
type Detection struct {
	ID        uuid.UUID       `json:"id"`
	ScanID    uuid.UUID       `json:"scan_id"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// DecodePayload parses the stored payload. Malformed payloads decode empty.
func (d *Detection) DecodePayload() smells.Payload {
	return smells.Decode(d.Payload)
}

// DecodePayloads parses the payloads of several detections.
func DecodePayloads(detections []*Detection) []smells.Payload {
	payloads := make([]smells.Payload, 0, len(detections))
	for _, d := range detections {
		payloads = append(payloads, d.DecodePayload())
	}
	return payloads
}
