package model

import (
	"encoding/json"
)

// TransferRecord is the normalized representation of one executed custody
// transfer for the audit sink.
type TransferRecord struct {
	Op         string `json:"op"`
	Pool       string `json:"pool"`
	Mint       string `json:"mint"`
	From       string `json:"from"`
	To         string `json:"to"`
	Amount     uint64 `json:"amount"`
	Native     bool   `json:"native"`
	Authorized bool   `json:"authorized"`
	ExecutedAt string `json:"executed_at"`
}

// MarshalJSON ensures TransferRecord is encoded with stable field names.
func (tr TransferRecord) MarshalJSON() ([]byte, error) {
	type Alias TransferRecord
	return json.Marshal(Alias(tr))
}

// UnmarshalJSON decodes a TransferRecord from JSON.
func (tr *TransferRecord) UnmarshalJSON(data []byte) error {
	type Alias TransferRecord
	var a Alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*tr = TransferRecord(a)
	return nil
}
