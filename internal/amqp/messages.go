package amqp

import (
	"encoding/json"
	"time"
)

// IngestionCompletedMessage announces that a year's salary records were
// replaced. Consumers re-query the database; the message carries only the
// year and record count.
type IngestionCompletedMessage struct {
	Year      int       `json:"year"`
	Records   int       `json:"records"`
	Timestamp time.Time `json:"timestamp"`
}

func NewIngestionCompletedMessage(year, records int) *IngestionCompletedMessage {
	return &IngestionCompletedMessage{
		Year:      year,
		Records:   records,
		Timestamp: time.Now(),
	}
}

func (m *IngestionCompletedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func IngestionCompletedMessageFromJSON(data []byte) (*IngestionCompletedMessage, error) {
	var msg IngestionCompletedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// ReclassifyRequestMessage asks the worker to re-run title classification,
// typically after the keyword taxonomy changed.
type ReclassifyRequestMessage struct {
	TaxonomyVersion string    `json:"taxonomy_version"`
	Timestamp       time.Time `json:"timestamp"`
}

func NewReclassifyRequestMessage(taxonomyVersion string) *ReclassifyRequestMessage {
	return &ReclassifyRequestMessage{
		TaxonomyVersion: taxonomyVersion,
		Timestamp:       time.Now(),
	}
}

func (m *ReclassifyRequestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ReclassifyRequestMessageFromJSON(data []byte) (*ReclassifyRequestMessage, error) {
	var msg ReclassifyRequestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
