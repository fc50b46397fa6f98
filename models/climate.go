package models

// ClimateRecord is one daily observation from the climate-daily collection.
// Every field is optional; nil means the API returned null or omitted it.
type ClimateRecord struct {
	LocalDate          *string  `json:"LOCAL_DATE"`
	MaxTemperature     *float64 `json:"MAX_TEMPERATURE"`
	MinTemperature     *float64 `json:"MIN_TEMPERATURE"`
	MeanTemperature    *float64 `json:"MEAN_TEMPERATURE"`
	TotalPrecipitation *float64 `json:"TOTAL_PRECIPITATION"`
	TotalRain          *float64 `json:"TOTAL_RAIN"`
	TotalSnow          *float64 `json:"TOTAL_SNOW"`
}

// IsEmpty reports whether none of the recognized fields are present
func (r ClimateRecord) IsEmpty() bool {
	return r.LocalDate == nil &&
		r.MaxTemperature == nil &&
		r.MinTemperature == nil &&
		r.MeanTemperature == nil &&
		r.TotalPrecipitation == nil &&
		r.TotalRain == nil &&
		r.TotalSnow == nil
}

// ClimateResponse is the items response of the climate-daily collection
type ClimateResponse struct {
	Features []struct {
		Properties ClimateRecord `json:"properties"`
	} `json:"features"`
}

// Records returns the feature properties in response order
func (r ClimateResponse) Records() []ClimateRecord {
	records := make([]ClimateRecord, 0, len(r.Features))
	for _, f := range r.Features {
		records = append(records, f.Properties)
	}
	return records
}
