package models

import "time"

// NewsType distinguishes plain news from announcements.
type NewsType string

const (
	NewsTypeNews         NewsType = "news"
	NewsTypeAnnouncement NewsType = "announcement"
)

// News represents a persisted news or announcement row.
type News struct {
	ID            string    `db:"id" json:"id"`
	Title         string    `db:"title" json:"title"`
	Content       string    `db:"content" json:"content"`
	Type          NewsType  `db:"type" json:"type"`
	PublishedDate time.Time `db:"published_date" json:"published_date"`
	AuthorID      string    `db:"author_id" json:"author_id"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// NewsFilter allows listing news by type.
type NewsFilter struct {
	Type NewsType
}
