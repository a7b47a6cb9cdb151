package schedule

import "time"

// NicheProfile captures when a given industry is most likely to pick
// up the phone. BestDays are advisory; they inform reporting but do
// not exclude other working days from scheduling.
type NicheProfile struct {
	BestHours []int
	BestDays  []time.Weekday
}

// genericProfile is the fallback for unknown niches.
var genericProfile = NicheProfile{
	BestHours: []int{10, 11, 14, 15, 16},
	BestDays:  []time.Weekday{time.Tuesday, time.Wednesday, time.Thursday},
}

// nicheProfiles is the static per-niche optimal-hour table.
var nicheProfiles = map[string]NicheProfile{
	"dental": {
		BestHours: []int{10, 11, 14, 15},
		BestDays:  []time.Weekday{time.Tuesday, time.Wednesday, time.Thursday},
	},
	"hvac": {
		BestHours: []int{9, 10, 15, 16},
		BestDays:  []time.Weekday{time.Monday, time.Tuesday, time.Wednesday},
	},
	"real_estate": {
		BestHours: []int{10, 11, 16, 17},
		BestDays:  []time.Weekday{time.Tuesday, time.Wednesday, time.Thursday},
	},
	"restaurants": {
		BestHours: []int{14, 15, 16},
		BestDays:  []time.Weekday{time.Tuesday, time.Wednesday},
	},
	"law_firms": {
		BestHours: []int{10, 11, 14},
		BestDays:  []time.Weekday{time.Tuesday, time.Wednesday, time.Thursday},
	},
	"fitness": {
		BestHours: []int{10, 11, 13, 14},
		BestDays:  []time.Weekday{time.Monday, time.Tuesday, time.Wednesday},
	},
	"auto_repair": {
		BestHours: []int{9, 10, 14, 15},
		BestDays:  []time.Weekday{time.Tuesday, time.Wednesday, time.Thursday},
	},
	"med_spa": {
		BestHours: []int{10, 11, 14, 15, 16},
		BestDays:  []time.Weekday{time.Tuesday, time.Wednesday, time.Thursday},
	},
}

// profileFor returns the optimal-hour profile for a niche, or the
// generic one when the niche is unknown.
func profileFor(niche string) NicheProfile {
	if p, ok := nicheProfiles[niche]; ok {
		return p
	}
	return genericProfile
}

// KnownNiche reports whether the table has a dedicated entry.
func KnownNiche(niche string) bool {
	_, ok := nicheProfiles[niche]
	return ok
}
