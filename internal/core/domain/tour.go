package domain

// Tour is the subset of a tour document the client reads to seed vote state.
type Tour struct {
	ID             string  `json:"_id"`
	Name           string  `json:"name"`
	Slug           string  `json:"slug"`
	Duration       int     `json:"duration"`
	Difficulty     string  `json:"difficulty"`
	Summary        string  `json:"summary,omitempty"`
	Price          float64 `json:"price"`
	RatingsAverage float64 `json:"ratingsAverage"`
	Upvotes        int     `json:"upvotes"`
}
