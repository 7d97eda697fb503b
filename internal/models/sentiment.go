package models

// Sentiment is a message classification produced by the AI engine and
// consumed by sentiment rule conditions.
type Sentiment struct {
	Sentiment string   `json:"sentiment"`
	Score     float64  `json:"score"`
	Keywords  []string `json:"keywords"`
}
