package domain

import "time"

// Role gates the admin and manager areas.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleClient  Role = "client"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleManager || r == RoleClient
}

// User documents are keyed by email, not by auth uid.
type User struct {
	ID        string    `json:"email" firestore:"-"`
	Role      Role      `json:"role" firestore:"role"`
	Name      string    `json:"name" firestore:"name"`
	AvatarURL string    `json:"avatarUrl" firestore:"avatarUrl"`
	Phone     string    `json:"phone" firestore:"phone"`
	CreatedAt time.Time `json:"createdAt" firestore:"createdAt"`
}

func (u *User) GetID() string   { return u.ID }
func (u *User) SetID(id string) { u.ID = id }

// Post is a community wall message.
type Post struct {
	ID          string    `json:"id" firestore:"-"`
	AuthorName  string    `json:"authorName" firestore:"authorName"`
	AuthorEmail string    `json:"authorEmail" firestore:"authorEmail"`
	Content     string    `json:"content" firestore:"content" validate:"required,max=2000"`
	ImageURL    string    `json:"imageUrl,omitempty" firestore:"imageUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt" firestore:"createdAt"`
}

func (p *Post) GetID() string   { return p.ID }
func (p *Post) SetID(id string) { p.ID = id }

type Promotion struct {
	ID          string `json:"id" firestore:"-"`
	Title       string `json:"title" firestore:"title" validate:"required"`
	Description string `json:"description" firestore:"description"`
	ImageURL    string `json:"imageUrl" firestore:"imageUrl"`
	Link        string `json:"link" firestore:"link"`
	Enabled     bool   `json:"enabled" firestore:"enabled"`
}

func (p *Promotion) GetID() string   { return p.ID }
func (p *Promotion) SetID(id string) { p.ID = id }
func (p *Promotion) IsEnabled() bool { return p.Enabled }

type Announcement struct {
	ID      string `json:"id" firestore:"-"`
	Message string `json:"message" firestore:"message" validate:"required"`
	Link    string `json:"link,omitempty" firestore:"link,omitempty"`
	Enabled bool   `json:"enabled" firestore:"enabled"`
}

func (a *Announcement) GetID() string   { return a.ID }
func (a *Announcement) SetID(id string) { a.ID = id }
func (a *Announcement) IsEnabled() bool { return a.Enabled }

// SiteInfoID is the document id of the single settings document.
const SiteInfoID = "siteInfo"

// SiteInfo is the shop contact block shown in the footer.
type SiteInfo struct {
	ID              string `json:"-" firestore:"-"`
	Name            string `json:"name" firestore:"name"`
	Email           string `json:"email" firestore:"email" validate:"omitempty,email"`
	Phone           string `json:"phone" firestore:"phone"`
	Address         string `json:"address" firestore:"address"`
	Facebook        string `json:"facebook" firestore:"facebook"`
	Instagram       string `json:"instagram" firestore:"instagram"`
	Whatsapp        string `json:"whatsapp" firestore:"whatsapp"`
	FacebookPixelID string `json:"facebookPixelId" firestore:"facebookPixelId"`
}

func (s *SiteInfo) GetID() string   { return s.ID }
func (s *SiteInfo) SetID(id string) { s.ID = id }
