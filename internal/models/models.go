package models

import "time"

// Item types.
const (
	ItemTypeCode   = "code"
	ItemTypePrompt = "prompt"
	ItemTypeFile   = "file"
)

// Project statuses.
const (
	ProjectStatusPlanning  = "planning"
	ProjectStatusActive    = "active"
	ProjectStatusOnHold    = "on_hold"
	ProjectStatusCompleted = "completed"
)

// Project priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Team member roles. Viewers are read-only.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
	RoleViewer = "viewer"
)

// Project update types.
const (
	UpdateTypeComment   = "comment"
	UpdateTypeProgress  = "progress"
	UpdateTypeStatus    = "status"
	UpdateTypeMilestone = "milestone"
)

// User is the authentication record. Everything else references users
// through UserID fields holding User.ID.
type User struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"not null;unique" json:"email"`
	Password  string    `gorm:"not null" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// Profile holds display data for a user. At most one per user.
type Profile struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"not null;uniqueIndex" json:"user_id"`
	Username  string    `gorm:"not null;unique" json:"username"`
	FullName  string    `json:"full_name"`
	AvatarURL string    `json:"avatar_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Item is a stored snippet, prompt or file reference. TeamID is nil for
// personal items; a nil TeamID is the only representation of "no team".
type Item struct {
	ID         string    `gorm:"primaryKey" json:"id"`
	UserID     string    `gorm:"not null;index" json:"user_id"`
	TeamID     *string   `gorm:"index" json:"team_id,omitempty"`
	Type       string    `gorm:"not null" json:"type"`
	Title      string    `gorm:"not null" json:"title"`
	Content    string    `gorm:"type:text" json:"content,omitempty"`
	Language   string    `json:"language,omitempty"`
	FileURL    string    `json:"file_url,omitempty"`
	FileName   string    `json:"file_name,omitempty"`
	FileSize   int64     `json:"file_size,omitempty"`
	IsFavorite bool      `gorm:"not null;default:false" json:"is_favorite"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Tag belongs to exactly one of a user or a team.
type Tag struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	UserID    *string   `gorm:"index" json:"user_id,omitempty"`
	TeamID    *string   `gorm:"index" json:"team_id,omitempty"`
	Name      string    `gorm:"not null" json:"name"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
}

// ItemTag joins items and tags. Both referenced ids must exist when the
// row is created; the purge cascade removes joins before items.
type ItemTag struct {
	ID     string `gorm:"primaryKey" json:"id"`
	ItemID string `gorm:"not null;index" json:"item_id"`
	TagID  string `gorm:"not null;index" json:"tag_id"`
}

// Project is a Kanban-style project. Progress stays within [0,100].
type Project struct {
	ID         string    `gorm:"primaryKey" json:"id"`
	UserID     string    `gorm:"not null;index" json:"user_id"`
	TeamID     *string   `gorm:"index" json:"team_id,omitempty"`
	Name       string    `gorm:"not null" json:"name"`
	Status     string    `gorm:"not null;default:planning" json:"status"`
	Progress   int       `gorm:"not null;default:0" json:"progress"`
	Priority   string    `gorm:"not null;default:medium" json:"priority"`
	Color      string    `json:"color"`
	Notes      string    `gorm:"type:text" json:"notes,omitempty"`
	IsArchived bool      `gorm:"not null;default:false" json:"is_archived"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ProjectUpdate is an activity entry on a project.
type ProjectUpdate struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	ProjectID string    `gorm:"not null;index" json:"project_id"`
	TeamID    *string   `gorm:"index" json:"team_id,omitempty"`
	AuthorID  string    `gorm:"not null;index" json:"author_id"`
	Type      string    `gorm:"not null;default:comment" json:"type"`
	Summary   string    `gorm:"type:text;not null" json:"summary"`
	CreatedAt time.Time `json:"created_at"`
}

// Team groups users. Each user gets exactly one personal team at
// registration; personal teams never show up in team pickers.
type Team struct {
	ID         string    `gorm:"primaryKey" json:"id"`
	Name       string    `gorm:"not null" json:"name"`
	CreatedBy  string    `gorm:"not null;index" json:"created_by"`
	IsPersonal bool      `gorm:"not null;default:false" json:"is_personal"`
	CreatedAt  time.Time `json:"created_at"`
}

type TeamMember struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	TeamID    string    `gorm:"not null;index" json:"team_id"`
	UserID    string    `gorm:"not null;index" json:"user_id"`
	Role      string    `gorm:"not null;default:member" json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type TeamInvite struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	TeamID    string    `gorm:"not null;index" json:"team_id"`
	Email     string    `gorm:"not null" json:"email"`
	Role      string    `gorm:"not null;default:member" json:"role"`
	InvitedBy string    `gorm:"not null;index" json:"invited_by"`
	Token     string    `gorm:"not null;unique" json:"token"`
	CreatedAt time.Time `json:"created_at"`
}

// BoardShare is a public, tokenized, revocable read-only view of a
// user's or team's projects. At most one share per scope: per teamId,
// or per user for the personal (nil TeamID) board. Expiry is derived
// at read time from ExpiresAt, never stored as a state transition.
type BoardShare struct {
	ID        string     `gorm:"primaryKey" json:"id"`
	UserID    string     `gorm:"not null;index" json:"user_id"`
	TeamID    *string    `gorm:"index" json:"team_id,omitempty"`
	Token     string     `gorm:"not null;unique" json:"token"`
	Enabled   bool       `gorm:"not null;default:true" json:"enabled"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// PublicShare exposes a single item through a token.
type PublicShare struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	ItemID    string    `gorm:"not null;index" json:"item_id"`
	CreatedBy string    `gorm:"not null;index" json:"created_by"`
	Token     string    `gorm:"not null;unique" json:"token"`
	CreatedAt time.Time `json:"created_at"`
}

// AccessLog records one anonymous fetch of a PublicShare. Logs must not
// outlive their share.
type AccessLog struct {
	ID         string    `gorm:"primaryKey" json:"id"`
	ShareID    string    `gorm:"not null;index" json:"share_id"`
	UserAgent  string    `json:"user_agent"`
	IPAddress  string    `json:"ip_address"`
	AccessedAt time.Time `json:"accessed_at"`
}

// Conversation is a direct or group chat. Participants live in
// ConversationParticipant rows; a conversation with zero participants
// is deleted.
type Conversation struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	TeamID    *string   `gorm:"index" json:"team_id,omitempty"`
	Name      string    `json:"name"`
	IsGroup   bool      `gorm:"not null;default:false" json:"is_group"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ConversationParticipant carries per-user membership and unread count.
type ConversationParticipant struct {
	ID             string `gorm:"primaryKey" json:"id"`
	ConversationID string `gorm:"not null;index" json:"conversation_id"`
	UserID         string `gorm:"not null;index" json:"user_id"`
	UnreadCount    int    `gorm:"not null;default:0" json:"unread_count"`
}

// Message belongs to a conversation. Soft-deleted messages keep their
// row with the text cleared and DeletedAt set.
type Message struct {
	ID             string     `gorm:"primaryKey" json:"id"`
	ConversationID string     `gorm:"not null;index" json:"conversation_id"`
	SenderID       string     `gorm:"not null" json:"sender_id"`
	Text           string     `gorm:"type:text" json:"text"`
	Attachments    string     `gorm:"type:jsonb" json:"attachments,omitempty"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

type Notification struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"not null;index" json:"user_id"`
	Type      string    `gorm:"not null" json:"type"`
	Title     string    `gorm:"not null" json:"title"`
	Body      string    `json:"body"`
	Read      bool      `gorm:"not null;default:false" json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

type Referral struct {
	ID             string    `gorm:"primaryKey" json:"id"`
	ReferrerUserID string    `gorm:"not null;index" json:"referrer_user_id"`
	ReferredUserID string    `gorm:"not null;index" json:"referred_user_id"`
	CreatedAt      time.Time `json:"created_at"`
}

// All returns every model for migration, ordered parents before
// children.
func All() []any {
	return []any{
		&User{}, &Profile{}, &Team{}, &TeamMember{}, &TeamInvite{},
		&Item{}, &Tag{}, &ItemTag{},
		&Project{}, &ProjectUpdate{},
		&BoardShare{}, &PublicShare{}, &AccessLog{},
		&Conversation{}, &ConversationParticipant{}, &Message{},
		&Notification{}, &Referral{},
	}
}
