package models

// UsagePoint is one hour of the bikes-used-24h series
type UsagePoint struct {
	Hour  string `json:"hour"`
	Count int    `json:"count"`
}

// UsageResponse represents the raw JSON record for one hour of usage
type UsageResponse struct {
	Hour  FlexString `json:"hour"`
	Count FlexString `json:"count"`
}
