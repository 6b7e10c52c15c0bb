// internal/domain/models/lesson.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Lesson is one unit of the bilingual curriculum. Catalog order follows
// OrderIndex across all categories.
type Lesson struct {
	ID              primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	CategoryID      *primitive.ObjectID `bson:"category_id,omitempty" json:"category_id,omitempty"`
	Title           string              `bson:"title" json:"title"`
	TitleFR         string              `bson:"title_fr,omitempty" json:"title_fr,omitempty"`
	Description     string              `bson:"description,omitempty" json:"description,omitempty"`
	DescriptionFR   string              `bson:"description_fr,omitempty" json:"description_fr,omitempty"`
	VideoID         string              `bson:"video_id,omitempty" json:"video_id,omitempty"`
	DurationMinutes int                 `bson:"duration_minutes,omitempty" json:"duration_minutes,omitempty"`
	OrderIndex      int                 `bson:"order_index" json:"order_index"`
	CreatedAt       time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time           `bson:"updated_at" json:"updated_at"`
}

// LessonCategory is a curriculum module grouping lessons.
type LessonCategory struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name   string             `bson:"name" json:"name"`
	NameFR string             `bson:"name_fr,omitempty" json:"name_fr,omitempty"`
}

// LessonProgress marks a lesson completed by a learner. The unique index on
// (profile_id, lesson_id) keeps it to one row per pair.
type LessonProgress struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ProfileID   primitive.ObjectID `bson:"profile_id" json:"profile_id"`
	LessonID    primitive.ObjectID `bson:"lesson_id" json:"lesson_id"`
	Completed   bool               `bson:"is_completed" json:"is_completed"`
	CompletedAt time.Time          `bson:"completed_at" json:"completed_at"`
}
