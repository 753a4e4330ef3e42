package store

import "github.com/trekkers/tour-client/internal/core/domain"

// SeedTours loads a small fixed catalogue.
func (m *Memory) SeedTours() {
	for _, t := range []domain.Tour{
		{ID: "5c88fa8cf4afda39709c2951", Name: "The Forest Hiker", Slug: "the-forest-hiker", Duration: 5, Difficulty: "easy", Price: 397, RatingsAverage: 4.7, Summary: "Breathtaking hike through the Canadian Banff National Park"},
		{ID: "5c88fa8cf4afda39709c2955", Name: "The Sea Explorer", Slug: "the-sea-explorer", Duration: 7, Difficulty: "medium", Price: 497, RatingsAverage: 4.8, Summary: "Exploring the jaw-dropping US east coast by foot and by boat"},
		{ID: "5c88fa8cf4afda39709c295a", Name: "The Snow Adventurer", Slug: "the-snow-adventurer", Duration: 4, Difficulty: "difficult", Price: 997, RatingsAverage: 4.5, Summary: "Exciting adventure in the snow with snowboarding and skiing"},
		{ID: "5c88fa8cf4afda39709c2961", Name: "The Park Camper", Slug: "the-park-camper", Duration: 10, Difficulty: "medium", Price: 1497, RatingsAverage: 4.9, Summary: "Breathing in Nature in America's most spectacular National Parks"},
	} {
		m.PutTour(t)
	}
}
