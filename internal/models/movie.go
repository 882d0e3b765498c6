package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Suggestion is a candidate movie awaiting admin review, stored in the
// suggestions collection. OwnerID is the creating user's id; only the
// owner may edit a suggestion.
type Suggestion struct {
	ID          primitive.ObjectID `json:"id"          bson:"_id,omitempty"`
	Title       string             `json:"title"       bson:"title"`
	Description string             `json:"description" bson:"description"`
	Genre       string             `json:"genre,omitempty"   bson:"genre,omitempty"`
	Year        int                `json:"year"        bson:"year"`
	Runtime     int                `json:"runtime,omitempty" bson:"runtime,omitempty"`
	Rating      float64            `json:"rating,omitempty"  bson:"rating,omitempty"`
	Watched     bool               `json:"watched"     bson:"watched"`
	OwnerID     string             `json:"userId"      bson:"userId"`
}

// Movie is an approved entry in the watchlist collection. It carries no
// owner; the watchlist is shared. Score is populated only by text search.
type Movie struct {
	ID          primitive.ObjectID `json:"id"          bson:"_id,omitempty"`
	Title       string             `json:"title"       bson:"title"`
	Description string             `json:"description" bson:"description"`
	Genre       string             `json:"genre,omitempty"   bson:"genre,omitempty"`
	Year        int                `json:"year"        bson:"year"`
	Runtime     int                `json:"runtime,omitempty" bson:"runtime,omitempty"`
	Rating      float64            `json:"rating,omitempty"  bson:"rating,omitempty"`
	Watched     bool               `json:"watched"     bson:"watched"`
	Score       float64            `json:"score,omitempty"   bson:"score,omitempty"`
}

// MovieRequest is the JSON body for creating a suggestion or a watchlist
// entry. Title, description and year are mandatory for both kinds.
type MovieRequest struct {
	Title       string  `json:"title" validate:"required"`
	Description string  `json:"description" validate:"required"`
	Genre       string  `json:"genre"`
	Year        int     `json:"year" validate:"required"`
	Runtime     int     `json:"runtime"`
	Rating      float64 `json:"rating"`
	Watched     bool    `json:"watched"`
}

// MovieUpdate is the JSON body for PUT on either collection. Every field
// is optional; a body that sets none of them is rejected.
type MovieUpdate struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Genre       *string  `json:"genre"`
	Year        *int     `json:"year"`
	Runtime     *int     `json:"runtime"`
	Rating      *float64 `json:"rating"`
	Watched     *bool    `json:"watched"`
}

// Empty reports whether no field of the update is set.
func (u *MovieUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.Genre == nil &&
		u.Year == nil && u.Runtime == nil && u.Rating == nil && u.Watched == nil
}
