package domain

import "time"

const (
	RoleUser   = "user"
	RoleSeller = "seller"
	RoleAdmin  = "admin"
)

// User mirrors an identity-provider account locally. FirebaseUID is the
// verified token subject and never changes once set.
type User struct {
	ID              string    `db:"id" json:"_id"`
	FirebaseUID     string    `db:"firebase_uid" json:"firebaseUid"`
	Username        string    `db:"username" json:"username"`
	Email           string    `db:"email" json:"email"`
	Role            string    `db:"role" json:"role"`
	PhotoURL        string    `db:"photo_url" json:"photoURL"`
	IsActive        bool      `db:"is_active" json:"isActive"`
	SellerRequested bool      `db:"seller_requested" json:"sellerRequested"`
	CreatedAt       time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time `db:"updated_at" json:"updatedAt"`
}

func ValidRole(r string) bool {
	switch r {
	case RoleUser, RoleSeller, RoleAdmin:
		return true
	}
	return false
}

// UserRef is the trimmed user shape embedded in listings.
type UserRef struct {
	ID       string `json:"_id"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email"`
}

func (u *User) Ref() *UserRef {
	if u == nil {
		return nil
	}
	return &UserRef{ID: u.ID, Username: u.Username, Email: u.Email}
}
