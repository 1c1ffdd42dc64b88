package model

// PoolRow is the string-keyed form of a pool record as stored in Postgres.
type PoolRow struct {
	QuoteMint    string `json:"quote_mint"`
	BaseMint     string `json:"base_mint"`
	Rate         int64  `json:"rate"`
	QuoteCustody string `json:"quote_custody"`
	Bump         int16  `json:"bump"`
}
