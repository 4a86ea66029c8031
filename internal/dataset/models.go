package dataset

// Coordinates is a geographic position.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Place is a record of places.json. Records are read verbatim and never modified.
type Place struct {
	Name       string       `json:"name"`
	Address    string       `json:"address"`
	Category   string       `json:"category,omitempty"`
	Rating     *float64     `json:"rating,omitempty"`
	Types      []string     `json:"types,omitempty"`
	TimesOfDay []string     `json:"timesOfDay,omitempty"`
	Location   *Coordinates `json:"location,omitempty"`
}

// Event is a record of events.json. Date is an ISO date (2006-01-02), Time an
// optional 24h start time (15:04).
type Event struct {
	Name        string `json:"name"`
	Date        string `json:"date"`
	Time        string `json:"time,omitempty"`
	Location    string `json:"location"`
	Category    string `json:"category,omitempty"`
	Description string `json:"description,omitempty"`
}

// Time of day buckets used for filtering.
const (
	Morning   = "morning"
	Afternoon = "afternoon"
	Evening   = "evening"
)
