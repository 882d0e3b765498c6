package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/movienight/backend/internal/models"
)

// ErrInvalidID is returned when an id is not a well-formed ObjectID hex
// string. Handlers map it to 400 on every path.
var ErrInvalidID = errors.New("invalid id")

// searchLimit caps text search results.
const searchLimit = 50

// MongoStore handles suggestion and watchlist CRUD in MongoDB.
type MongoStore struct {
	suggestions *mongo.Collection
	watchlist   *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		suggestions: db.Collection("suggestions"),
		watchlist:   db.Collection("watchlist"),
	}
}

// EnsureIndexes creates the watchlist text index used by search.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.watchlist.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "title", Value: "text"},
			{Key: "description", Value: "text"},
			{Key: "genre", Value: "text"},
		},
	})
	if err != nil {
		return fmt.Errorf("watchlist text index: %w", err)
	}
	return nil
}

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidID
	}
	return oid, nil
}

// updateDoc turns the set fields of a MovieUpdate into a $set document.
func updateDoc(upd *models.MovieUpdate) bson.M {
	set := bson.M{}
	if upd.Title != nil {
		set["title"] = *upd.Title
	}
	if upd.Description != nil {
		set["description"] = *upd.Description
	}
	if upd.Genre != nil {
		set["genre"] = *upd.Genre
	}
	if upd.Year != nil {
		set["year"] = *upd.Year
	}
	if upd.Runtime != nil {
		set["runtime"] = *upd.Runtime
	}
	if upd.Rating != nil {
		set["rating"] = *upd.Rating
	}
	if upd.Watched != nil {
		set["watched"] = *upd.Watched
	}
	return bson.M{"$set": set}
}

// ── Suggestions ──────────────────────────────────────────

func (s *MongoStore) InsertSuggestion(ctx context.Context, sug *models.Suggestion) (*models.Suggestion, error) {
	res, err := s.suggestions.InsertOne(ctx, sug)
	if err != nil {
		return nil, fmt.Errorf("insert suggestion: %w", err)
	}
	sug.ID = res.InsertedID.(primitive.ObjectID)
	return sug, nil
}

func (s *MongoStore) ListSuggestions(ctx context.Context) ([]models.Suggestion, error) {
	cur, err := s.suggestions.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var sugs []models.Suggestion
	if err := cur.All(ctx, &sugs); err != nil {
		return nil, err
	}
	return sugs, nil
}

// GetSuggestion returns (nil, nil) when no document matches.
func (s *MongoStore) GetSuggestion(ctx context.Context, id string) (*models.Suggestion, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	var sug models.Suggestion
	err = s.suggestions.FindOne(ctx, bson.M{"_id": oid}).Decode(&sug)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sug, nil
}

// UpdateSuggestion applies the set fields and returns the updated document,
// or (nil, nil) when no document matches.
func (s *MongoStore) UpdateSuggestion(ctx context.Context, id string, upd *models.MovieUpdate) (*models.Suggestion, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var sug models.Suggestion
	err = s.suggestions.FindOneAndUpdate(ctx, bson.M{"_id": oid}, updateDoc(upd), opts).Decode(&sug)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sug, nil
}

// DeleteSuggestion is idempotent: deleting an id that no longer exists is
// not an error.
func (s *MongoStore) DeleteSuggestion(ctx context.Context, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	_, err = s.suggestions.DeleteOne(ctx, bson.M{"_id": oid})
	return err
}

// ── Watchlist ────────────────────────────────────────────

func (s *MongoStore) InsertMovie(ctx context.Context, m *models.Movie) (*models.Movie, error) {
	res, err := s.watchlist.InsertOne(ctx, m)
	if err != nil {
		return nil, fmt.Errorf("insert movie: %w", err)
	}
	m.ID = res.InsertedID.(primitive.ObjectID)
	return m, nil
}

func (s *MongoStore) ListMovies(ctx context.Context) ([]models.Movie, error) {
	cur, err := s.watchlist.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var movies []models.Movie
	if err := cur.All(ctx, &movies); err != nil {
		return nil, err
	}
	return movies, nil
}

func (s *MongoStore) GetMovie(ctx context.Context, id string) (*models.Movie, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	var m models.Movie
	err = s.watchlist.FindOne(ctx, bson.M{"_id": oid}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *MongoStore) UpdateMovie(ctx context.Context, id string, upd *models.MovieUpdate) (*models.Movie, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var m models.Movie
	err = s.watchlist.FindOneAndUpdate(ctx, bson.M{"_id": oid}, updateDoc(upd), opts).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *MongoStore) DeleteMovie(ctx context.Context, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	_, err = s.watchlist.DeleteOne(ctx, bson.M{"_id": oid})
	return err
}

// SearchMovies runs a $text query over title/description/genre and returns
// up to 50 matches ordered by descending relevance.
func (s *MongoStore) SearchMovies(ctx context.Context, query string) ([]models.Movie, error) {
	opts := options.Find().
		SetProjection(bson.M{"score": bson.M{"$meta": "textScore"}}).
		SetSort(bson.D{{Key: "score", Value: bson.M{"$meta": "textScore"}}}).
		SetLimit(searchLimit)
	cur, err := s.watchlist.Find(ctx, bson.M{"$text": bson.M{"$search": query}}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var movies []models.Movie
	if err := cur.All(ctx, &movies); err != nil {
		return nil, err
	}
	return movies, nil
}
