package models

import "time"

// DefaultProfileImg is assigned to users who never uploaded a picture.
const DefaultProfileImg = "https://cdn-icons-png.flaticon.com/512/149/149071.png"

// User is the full credential record. Followers and Following hold
// usernames; Posts holds post IDs owned by the user.
type User struct {
	ID           string
	Email        string
	Username     string
	PasswordHash string `json:"-"`
	Followers    []string
	Following    []string
	Posts        []string
	ProfileImg   string
	IsAdmin      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity returns the session-safe view of the user.
func (u *User) Identity() *Identity {
	return &Identity{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		ProfileImg: u.ProfileImg,
		IsAdmin:    u.IsAdmin,
	}
}

// IsFollowedBy reports whether username appears in the follower list.
func (u *User) IsFollowedBy(username string) bool {
	for _, f := range u.Followers {
		if f == username {
			return true
		}
	}
	return false
}

// Identity is the authenticated principal bound to a session. It never
// carries the password hash.
type Identity struct {
	ID         string
	Username   string
	Email      string
	ProfileImg string
	IsAdmin    bool
}
