// internal/app/store/lessons/lessonstore.go

// Package lessonstore holds the lesson catalog and per-learner completion
// marks. Reads join the viewer's progress onto the catalog so handlers never
// see a bare lesson without its completion state.
package lessonstore

import (
	"context"
	"time"

	"github.com/dalemusser/linguahub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	lessons    *mongo.Collection
	categories *mongo.Collection
	progress   *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		lessons:    db.Collection("lessons"),
		categories: db.Collection("lesson_categories"),
		progress:   db.Collection("lesson_progress"),
	}
}

// LessonItem is a catalog lesson with the viewer's completion flag.
type LessonItem struct {
	models.Lesson `bson:",inline"`
	Completed     bool `json:"completed"`
}

// Module groups a category's lessons in catalog order.
type Module struct {
	Name    string       `json:"name"`
	NameFR  string       `json:"name_fr,omitempty"`
	Lessons []LessonItem `json:"lessons"`
}

// ProgressSummary is the viewer's headline completion count.
type ProgressSummary struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
}

func (s *Store) CreateCategory(ctx context.Context, name, nameFR string) (models.LessonCategory, error) {
	c := models.LessonCategory{
		ID:     primitive.NewObjectID(),
		Name:   name,
		NameFR: nameFR,
	}
	if _, err := s.categories.InsertOne(ctx, c); err != nil {
		return models.LessonCategory{}, err
	}
	return c, nil
}

func (s *Store) Create(ctx context.Context, l models.Lesson) (models.Lesson, error) {
	if l.ID.IsZero() {
		l.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	if l.CreatedAt.IsZero() {
		l.CreatedAt = now
	}
	l.UpdatedAt = now
	if _, err := s.lessons.InsertOne(ctx, l); err != nil {
		return models.Lesson{}, err
	}
	return l, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Lesson, error) {
	var l models.Lesson
	if err := s.lessons.FindOne(ctx, bson.M{"_id": id}).Decode(&l); err != nil {
		return nil, err
	}
	return &l, nil
}

// Catalog returns the full curriculum grouped into modules, each lesson
// carrying the viewer's completion flag, plus the headline counts. Module
// order follows the first lesson of each category; lessons without a
// category land in "General".
func (s *Store) Catalog(ctx context.Context, profileID primitive.ObjectID) ([]Module, ProgressSummary, error) {
	cur, err := s.lessons.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "order_index", Value: 1}}),
	)
	if err != nil {
		return nil, ProgressSummary{}, err
	}
	defer cur.Close(ctx)
	var all []models.Lesson
	if err := cur.All(ctx, &all); err != nil {
		return nil, ProgressSummary{}, err
	}

	cats, err := s.categoriesByID(ctx)
	if err != nil {
		return nil, ProgressSummary{}, err
	}
	done, err := s.completedSet(ctx, profileID)
	if err != nil {
		return nil, ProgressSummary{}, err
	}

	var (
		modules []Module
		index   = map[string]int{}
		summary = ProgressSummary{Total: len(all)}
	)
	for _, l := range all {
		name, nameFR := "General", "Général"
		if l.CategoryID != nil {
			if c, ok := cats[*l.CategoryID]; ok {
				name, nameFR = c.Name, c.NameFR
			}
		}
		i, ok := index[name]
		if !ok {
			i = len(modules)
			index[name] = i
			modules = append(modules, Module{Name: name, NameFR: nameFR})
		}
		item := LessonItem{Lesson: l, Completed: done[l.ID]}
		if item.Completed {
			summary.Completed++
		}
		modules[i].Lessons = append(modules[i].Lessons, item)
	}
	return modules, summary, nil
}

// MarkComplete upserts the viewer's completion mark for a lesson. Marking
// twice is a no-op. Returns mongo.ErrNoDocuments for an unknown lesson.
func (s *Store) MarkComplete(ctx context.Context, profileID, lessonID primitive.ObjectID) error {
	n, err := s.lessons.CountDocuments(ctx, bson.M{"_id": lessonID})
	if err != nil {
		return err
	}
	if n == 0 {
		return mongo.ErrNoDocuments
	}

	_, err = s.progress.UpdateOne(ctx,
		bson.M{"profile_id": profileID, "lesson_id": lessonID},
		bson.M{"$set": bson.M{
			"is_completed": true,
			"completed_at": time.Now().UTC(),
		}},
		options.Update().SetUpsert(true),
	)
	return err
}

// Progress returns the viewer's headline counts without loading the catalog.
func (s *Store) Progress(ctx context.Context, profileID primitive.ObjectID) (ProgressSummary, error) {
	total, err := s.lessons.CountDocuments(ctx, bson.M{})
	if err != nil {
		return ProgressSummary{}, err
	}
	completed, err := s.progress.CountDocuments(ctx, bson.M{
		"profile_id":   profileID,
		"is_completed": true,
	})
	if err != nil {
		return ProgressSummary{}, err
	}
	return ProgressSummary{Total: int(total), Completed: int(completed)}, nil
}

// Completed reports whether the viewer finished one lesson.
func (s *Store) Completed(ctx context.Context, profileID, lessonID primitive.ObjectID) (bool, error) {
	n, err := s.progress.CountDocuments(ctx, bson.M{
		"profile_id":   profileID,
		"lesson_id":    lessonID,
		"is_completed": true,
	})
	return n > 0, err
}

func (s *Store) categoriesByID(ctx context.Context) (map[primitive.ObjectID]models.LessonCategory, error) {
	cur, err := s.categories.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := map[primitive.ObjectID]models.LessonCategory{}
	for cur.Next(ctx) {
		var c models.LessonCategory
		if err := cur.Decode(&c); err != nil {
			return nil, err
		}
		out[c.ID] = c
	}
	return out, cur.Err()
}

func (s *Store) completedSet(ctx context.Context, profileID primitive.ObjectID) (map[primitive.ObjectID]bool, error) {
	cur, err := s.progress.Find(ctx, bson.M{
		"profile_id":   profileID,
		"is_completed": true,
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := map[primitive.ObjectID]bool{}
	for cur.Next(ctx) {
		var p models.LessonProgress
		if err := cur.Decode(&p); err != nil {
			return nil, err
		}
		out[p.LessonID] = true
	}
	return out, cur.Err()
}
