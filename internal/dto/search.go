package dto

import "github.com/noah-isme/biblioteca-api/internal/models"

// SearchRequest binds the query parameters of GET /search.
type SearchRequest struct {
	Query    string `form:"q"`
	Category string `form:"category"`
	Captcha  string `form:"captcha" binding:"omitempty,len=4,numeric"`
}

// SearchResult is the payload for a successful search.
type SearchResult struct {
	Books []models.BookRow `json:"books"`
	Count int              `json:"count"`
}

// BooksRequest binds the query parameters of GET /api/books.
type BooksRequest struct {
	Category string `form:"category"`
}

// CategoriesResult lists the configured sheet tabs.
type CategoriesResult struct {
	Categories []string `json:"categories"`
}
