// Package domain defines the persistence models for users, groups,
// memberships, streak checkins, ingested messages, and the scoring reference
// tables. These types are mapped with GORM and form the core data layer of
// the engagement backend.
package domain

import "time"

// Message types accepted by the ingestion endpoint. Types without a row in
// the message_type_points table score with the configured default base.
const (
	MessageTypeText      = "text"
	MessageTypeVoice     = "voice"
	MessageTypePhoto     = "photo"
	MessageTypeVideo     = "video"
	MessageTypeSticker   = "sticker"
	MessageTypeDocument  = "document"
	MessageTypeAudio     = "audio"
	MessageTypeVideoNote = "video_note"
	MessageTypeForward   = "forward"
	MessageTypeOther     = "other"
)

// ValidMessageType reports whether t is one of the known message types.
func ValidMessageType(t string) bool {
	switch t {
	case MessageTypeText, MessageTypeVoice, MessageTypePhoto, MessageTypeVideo,
		MessageTypeSticker, MessageTypeDocument, MessageTypeAudio,
		MessageTypeVideoNote, MessageTypeForward, MessageTypeOther:
		return true
	}
	return false
}

// User represents a chat platform account observed through ingested events.
// Identity fields refresh on every event (last write wins).
//
// Fields:
//   - ID: autoincrement primary key.
//   - TelegramID: external platform identifier, unique.
//   - FirstName / LastName / Username: latest observed identity fields.
//   - IsActive: soft activity flag.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
type User struct {
	ID         uint      `json:"id"          gorm:"primaryKey"`
	TelegramID int64     `json:"telegram_id" gorm:"not null;uniqueIndex:ux_users_telegram_id"`
	FirstName  string    `json:"first_name"  gorm:"type:varchar(255);not null;default:''"`
	LastName   string    `json:"last_name"   gorm:"type:varchar(255);not null;default:''"`
	Username   string    `json:"username"    gorm:"type:varchar(255);not null;default:''"`
	IsActive   bool      `json:"is_active"   gorm:"not null;default:true"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Group represents a chat group that messages are ingested from.
//
// Fields:
//   - ID: autoincrement primary key.
//   - TelegramID: external group identifier, unique.
//   - Title: latest observed group title.
//   - IsActive: soft activity flag.
type Group struct {
	ID         uint      `json:"id"          gorm:"primaryKey"`
	TelegramID int64     `json:"telegram_id" gorm:"not null;uniqueIndex:ux_groups_telegram_id"`
	Title      string    `json:"title"       gorm:"type:varchar(255);not null;default:''"`
	IsActive   bool      `json:"is_active"   gorm:"not null;default:true"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName returns the database table name for Group.
func (Group) TableName() string { return "groups" }

// Rank is a named tier in the rating ladder. A membership holds the rank
// with the highest RequiredRating that does not exceed its rating; when two
// rows share a threshold the one scanned last (higher sort order) wins.
//
// Fields:
//   - ID: autoincrement primary key.
//   - SortOrder: display/scan position within the ladder.
//   - Name: human-readable rank title.
//   - RequiredRating: minimum rating needed to hold this rank.
type Rank struct {
	ID             uint   `json:"id"              gorm:"primaryKey"`
	SortOrder      int    `json:"sort_order"      gorm:"not null;default:0"`
	Name           string `json:"name"            gorm:"type:varchar(100);not null"`
	RequiredRating int    `json:"required_rating" gorm:"not null;index"`
}

// TableName returns the database table name for Rank.
func (Rank) TableName() string { return "ranks" }

// MessageTypePoints maps a message type to its base point value. Rows are
// reference data seeded at startup; types without a row fall back to the
// configured default.
type MessageTypePoints struct {
	ID          uint   `json:"id"           gorm:"primaryKey"`
	MessageType string `json:"message_type" gorm:"type:varchar(20);not null;uniqueIndex:ux_message_type_points_type"`
	Points      int    `json:"points"       gorm:"not null"`
	Description string `json:"description"  gorm:"type:varchar(255);not null;default:''"`
}

// TableName returns the database table name for MessageTypePoints.
func (MessageTypePoints) TableName() string { return "message_type_points" }

// Membership is the per-(user, group) engagement state: accumulated rating,
// message count, current streak coefficient, and the held rank. The pair is
// unique; all scoring updates target exactly one membership row.
//
// Fields:
//   - UserID / GroupID: composite unique key.
//   - Rating: monotonically non-decreasing accumulated points.
//   - MessageCount: number of scored (non-duplicate) messages.
//   - Coefficient: streak multiplier persisted after the last scored message.
//   - RankID: currently held rank, nil until the first rank qualifies.
//   - LastActivity: timestamp of the last scored message.
type Membership struct {
	ID           uint      `json:"id"            gorm:"primaryKey"`
	UserID       uint      `json:"user_id"       gorm:"not null;uniqueIndex:ux_memberships_user_group,priority:1"`
	GroupID      uint      `json:"group_id"      gorm:"not null;uniqueIndex:ux_memberships_user_group,priority:2;index"`
	Rating       int       `json:"rating"        gorm:"not null;default:0"`
	MessageCount int       `json:"message_count" gorm:"not null;default:0"`
	Coefficient  float64   `json:"coefficient"   gorm:"not null;default:0.5"`
	RankID       *uint     `json:"rank_id"       gorm:"index"`
	IsActive     bool      `json:"is_active"     gorm:"not null;default:true"`
	JoinedAt     time.Time `json:"joined_at"`
	LastActivity time.Time `json:"last_activity"`
	UpdatedAt    time.Time `json:"updated_at"`

	User  User  `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Group Group `json:"-" gorm:"foreignKey:GroupID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Rank  *Rank `json:"-" gorm:"foreignKey:RankID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
}

// TableName returns the database table name for Membership.
func (Membership) TableName() string { return "memberships" }

// Checkin tracks the daily activity streak for one membership. LastCheckin
// only moves forward; events that land on the same reference-timezone day
// leave the row untouched.
//
// Fields:
//   - UserID / GroupID: composite unique key, one streak row per membership.
//   - ConsecutiveDays: 0 until the first next-day message, then the streak length.
//   - LastCheckin: instant of the last message that advanced or reset the streak.
type Checkin struct {
	ID              uint      `json:"id"               gorm:"primaryKey"`
	UserID          uint      `json:"user_id"          gorm:"not null;uniqueIndex:ux_checkins_user_group,priority:1"`
	GroupID         uint      `json:"group_id"         gorm:"not null;uniqueIndex:ux_checkins_user_group,priority:2"`
	ConsecutiveDays int       `json:"consecutive_days" gorm:"not null;default:0"`
	LastCheckin     time.Time `json:"last_checkin"     gorm:"not null"`
	UpdatedAt       time.Time `json:"updated_at"`

	User  User  `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Group Group `json:"-" gorm:"foreignKey:GroupID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Checkin.
func (Checkin) TableName() string { return "checkins" }

// MessageRecord is the durable idempotency fence for ingested events. The
// (TelegramID, GroupID) pair is unique, so re-delivered events hit the
// constraint instead of being scored twice. Content fields are mutable and
// refresh when a duplicate carries changed text or type.
//
// Fields:
//   - TelegramID: external message identifier, unique per group.
//   - GroupID / UserID: owning group and author.
//   - Date: event timestamp as reported by the source.
//   - MessageType / Text: classified type and optional content.
//   - RelatedTelegramID: external id of a replied-to or forwarded message.
type MessageRecord struct {
	ID                uint      `json:"id"                  gorm:"primaryKey"`
	TelegramID        int64     `json:"telegram_id"         gorm:"not null;uniqueIndex:ux_message_records_msg_group,priority:1"`
	GroupID           uint      `json:"group_id"            gorm:"not null;uniqueIndex:ux_message_records_msg_group,priority:2;index"`
	UserID            uint      `json:"user_id"             gorm:"not null;index"`
	Date              time.Time `json:"date"                gorm:"not null;index"`
	MessageType       string    `json:"message_type"        gorm:"type:varchar(20);not null;default:'text'"`
	Text              string    `json:"text"                gorm:"type:text;not null;default:''"`
	RelatedTelegramID *int64    `json:"related_telegram_id"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`

	User  User  `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Group Group `json:"-" gorm:"foreignKey:GroupID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for MessageRecord.
func (MessageRecord) TableName() string { return "message_records" }
