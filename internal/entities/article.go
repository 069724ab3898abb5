package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ParseStatus string

const (
	ParseStatusSuccess ParseStatus = "success"
	ParseStatusPartial ParseStatus = "partial"
	ParseStatusFailed  ParseStatus = "failed"
)

type Article struct {
	ID          string      `gorm:"primaryKey;size:36" json:"id"`
	URL         string      `gorm:"index;size:2048" json:"url"`
	Title       string      `gorm:"size:1024" json:"title"`
	ContentHTML string      `gorm:"type:text" json:"content_html"`
	ContentText string      `gorm:"type:text" json:"content_text"`
	ParseStatus ParseStatus `gorm:"size:20" json:"parse_status"`
	IsArchived  bool        `gorm:"index;not null;default:false" json:"is_archived"`
	IsRead      bool        `gorm:"not null;default:false" json:"is_read"`
	SavedAt     time.Time   `gorm:"index" json:"saved_at"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
	Tags        []Tag       `gorm:"-" json:"tags,omitempty"`
}

func (Article) TableName() string {
	return "articles"
}

func (a *Article) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// Tag names are compared byte-for-byte after trimming; "Design" and "design"
// are different tags.
type Tag struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:100;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func (Tag) TableName() string {
	return "tags"
}

func (t *Tag) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

type ArticleTag struct {
	ID        string `gorm:"primaryKey;size:36" json:"id"`
	ArticleID string `gorm:"size:36;not null;uniqueIndex:idx_article_tag;index" json:"article_id"`
	TagID     string `gorm:"size:36;not null;uniqueIndex:idx_article_tag;index" json:"tag_id"`
}

func (ArticleTag) TableName() string {
	return "article_tags"
}

func (at *ArticleTag) BeforeCreate(tx *gorm.DB) error {
	if at.ID == "" {
		at.ID = uuid.NewString()
	}
	return nil
}

type Asset struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	ArticleID   string    `gorm:"size:36;index;not null" json:"article_id"`
	URL         string    `gorm:"size:2048" json:"url"`
	ContentType string    `gorm:"size:255" json:"content_type"`
	Blob        []byte    `gorm:"type:blob" json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Asset) TableName() string {
	return "assets"
}

func (a *Asset) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
