package models

import "time"

type Post struct {
	ID        string
	UserID    string
	Username  string // author, denormalized
	Caption   string
	Img       string
	Likes     []string // usernames in like order
	CreatedAt time.Time
	UpdatedAt time.Time
}

// LikedBy reports whether username has liked the post.
func (p *Post) LikedBy(username string) bool {
	for _, l := range p.Likes {
		if l == username {
			return true
		}
	}
	return false
}
