// Package review defines the review model and the aggregated per-book summary.
package review

import "time"

// Review is one user's rating and write-up for a book. A user submits at most
// one review per ISBN.
type Review struct {
	ID        string    `json:"id"`
	ISBN      string    `json:"isbn"`
	UserID    string    `json:"user_id"`
	Rating    int       `json:"rating"`
	Text      string    `json:"review"`
	CreatedAt time.Time `json:"created_at"`
}

// Summary is the aggregate served by the JSON endpoint. AverageScore is kept
// as a two-decimal string so the wire format matches the database rendering.
type Summary struct {
	Title        string `json:"title"`
	Author       string `json:"author"`
	Year         int    `json:"year"`
	ISBN         string `json:"isbn"`
	ReviewCount  int    `json:"review_count"`
	AverageScore string `json:"average_score"`
}
