package domain

import "time"

// PostStatus enumerates moderation states for community posts.
type PostStatus string

const (
	PostStatusPending  PostStatus = "pending"
	PostStatusApproved PostStatus = "approved"
	PostStatusRejected PostStatus = "rejected"
)

// Post is a community post awaiting or past moderation.
type Post struct {
	ID         string     `json:"id"`
	AuthorID   string     `json:"authorId"`
	AuthorName string     `json:"authorName"`
	Content    string     `json:"content"`
	Status     PostStatus `json:"status"`
	Likes      int        `json:"likes"`
	Comments   int        `json:"comments"`
	Timestamp  time.Time  `json:"timestamp"`
}

func (p Post) EntityKind() Kind   { return KindPosts }
func (p Post) Key() string        { return p.ID }
func (p Post) Version() time.Time { return p.Timestamp }
