package dto

// CreateNewsRequest is the admin payload for publishing news.
type CreateNewsRequest struct {
	Title         string `json:"title" validate:"required"`
	Content       string `json:"content" validate:"required"`
	Type          string `json:"type" validate:"required,oneof=news announcement"`
	PublishedDate string `json:"published_date" validate:"required,datetime=2006-01-02"`
}
