package domain

import "time"

// MediaType selects how a post is rendered on the bulletin board.
type MediaType string

const (
	MediaBulletin MediaType = "bulletin"
	MediaGallery  MediaType = "gallery"
	MediaPoll     MediaType = "poll"
	MediaLineup   MediaType = "lineup"
)

// MediaStatus drives the approval workflow: pending -> published.
type MediaStatus string

const (
	MediaPending   MediaStatus = "pending"
	MediaPublished MediaStatus = "published"
)

// MediaPost is a bulletin, gallery, poll or lineup waiting for or past approval.
type MediaPost struct {
	Meta        `bson:",inline"`
	Type        MediaType   `bson:"type" json:"type" validate:"oneof=bulletin gallery poll lineup"`
	Status      MediaStatus `bson:"status" json:"status" validate:"oneof=pending published"`
	Title       string      `bson:"title,omitempty" json:"title,omitempty"`
	Content     string      `bson:"content" json:"content"`
	ImageURLs   []string    `bson:"imageUrls,omitempty" json:"imageUrls,omitempty"`
	ObjectKeys  []string    `bson:"objectKeys,omitempty" json:"objectKeys,omitempty"`
	PublishedAt *time.Time  `bson:"publishedAt,omitempty" json:"publishedAt,omitempty"`
}
