package models

import "time"

type User struct {
	ID        int64
	Username  string
	Email     string
	FirstName string
	LastName  string
	PhotoURL  string
	UserType  string
	Status    string
	PassHash  []byte
}

// NewUser carries the enrollment fields passed to the user creation
// procedure. The password arrives already hashed.
type NewUser struct {
	FirstName string
	LastName  string
	Username  string
	Email     string
	Phone     string
	PassHash  []byte
	BirthDate string
	DocNumber string
	DocType   string
	Gender    string
}

// Session is the server-side record backing a refresh token. The jti
// embedded in the token is the handle used for revocation lookups.
type Session struct {
	UserID    int64
	JTI       string
	Revoked   bool
	ExpiresAt time.Time
}

type EmailMessage struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

type Recipient struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}
