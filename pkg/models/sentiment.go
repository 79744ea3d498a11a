package models

import "math"

const (
	MinRating = 1
	MaxRating = 5
)

// SentimentResult is a star rating (1 very negative, 5 very positive) with confidence
type SentimentResult struct {
	Rating     int     `json:"rating"`
	Confidence float64 `json:"confidence"`
}

// NeutralSentiment is returned when no usable analysis exists
var NeutralSentiment = SentimentResult{Rating: 3, Confidence: 0.5}

// ClampSentiment rounds the rating to the nearest integer and clamps both
// values into range. NaN or infinite inputs fall back to the neutral value.
func ClampSentiment(rating, confidence float64) SentimentResult {
	result := NeutralSentiment

	if !math.IsNaN(rating) && !math.IsInf(rating, 0) {
		r := math.Round(rating)
		if r < MinRating {
			r = MinRating
		}
		if r > MaxRating {
			r = MaxRating
		}
		result.Rating = int(r)
	}

	if !math.IsNaN(confidence) && !math.IsInf(confidence, 0) {
		result.Confidence = math.Max(0, math.Min(1, confidence))
	}

	return result
}

// Stars renders the rating as filled/empty stars
func (s SentimentResult) Stars() string {
	out := make([]rune, 0, MaxRating)
	for i := 1; i <= MaxRating; i++ {
		if i <= s.Rating {
			out = append(out, '★')
		} else {
			out = append(out, '☆')
		}
	}
	return string(out)
}
