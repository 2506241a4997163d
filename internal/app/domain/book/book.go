// Package book defines the catalog model.
package book

// Book is one catalog entry, keyed by ISBN.
type Book struct {
	ISBN   string `json:"isbn"`
	Title  string `json:"title"`
	Author string `json:"author"`
	Year   int    `json:"year"`
}
