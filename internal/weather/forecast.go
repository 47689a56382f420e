package weather

import "time"

// DailyBucket summarizes one calendar day of forecast samples.
type DailyBucket struct {
	Date      string    `json:"date"` // local calendar date, YYYY-MM-DD
	Time      time.Time `json:"time"` // first sample's timestamp
	Condition Condition `json:"condition"`
	TempMin   float64   `json:"temp_min"`
	TempMax   float64   `json:"temp_max"`
}

// BucketByDay groups samples by local calendar date in loc. The first
// sample of a date seeds the bucket's representative condition; min and
// max are running reductions over that date's samples. Buckets appear in
// first-appearance order, one per distinct date.
func BucketByDay(samples []Sample, loc *time.Location) []DailyBucket {
	if loc == nil {
		loc = time.Local
	}

	var order []string
	buckets := make(map[string]*DailyBucket)

	for _, s := range samples {
		date := s.Time.In(loc).Format("2006-01-02")
		b, ok := buckets[date]
		if !ok {
			b = &DailyBucket{
				Date:      date,
				Time:      s.Time,
				Condition: s.Condition,
				TempMin:   s.TempMin,
				TempMax:   s.TempMax,
			}
			buckets[date] = b
			order = append(order, date)
			continue
		}
		if s.TempMin < b.TempMin {
			b.TempMin = s.TempMin
		}
		if s.TempMax > b.TempMax {
			b.TempMax = s.TempMax
		}
	}

	out := make([]DailyBucket, 0, len(order))
	for _, date := range order {
		out = append(out, *buckets[date])
	}
	return out
}

// DayParts holds today's temperature at four fixed local-time windows:
// morning [6,12), afternoon [12,18), evening [18,21), night [21,24) and [0,6).
// A nil part means no sample fell into that window.
type DayParts struct {
	Morning   *Sample `json:"morning,omitempty"`
	Afternoon *Sample `json:"afternoon,omitempty"`
	Evening   *Sample `json:"evening,omitempty"`
	Night     *Sample `json:"night,omitempty"`
}

// BucketByDayPart picks the first sample in sequence order for each day
// part, considering only samples whose local date matches ref's. When no
// sample matches that date (a forecast starting after midnight), the first
// 8 raw samples are used instead, unbucketed by date.
func BucketByDayPart(samples []Sample, ref time.Time, loc *time.Location) DayParts {
	if loc == nil {
		loc = time.Local
	}

	refDate := ref.In(loc).Format("2006-01-02")
	var window []Sample
	for _, s := range samples {
		if s.Time.In(loc).Format("2006-01-02") == refDate {
			window = append(window, s)
		}
	}
	if len(window) == 0 {
		window = samples
		if len(window) > 8 {
			window = window[:8]
		}
	}

	var parts DayParts
	for i := range window {
		s := &window[i]
		hour := s.Time.In(loc).Hour()
		switch {
		case hour >= 6 && hour < 12:
			if parts.Morning == nil {
				parts.Morning = s
			}
		case hour >= 12 && hour < 18:
			if parts.Afternoon == nil {
				parts.Afternoon = s
			}
		case hour >= 18 && hour < 21:
			if parts.Evening == nil {
				parts.Evening = s
			}
		default:
			if parts.Night == nil {
				parts.Night = s
			}
		}
	}
	return parts
}
