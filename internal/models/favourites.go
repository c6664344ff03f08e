package models

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const FavouriteColName = "favourites"

type FavouriteItem struct {
	VenueID string    `bson:"venue_id" json:"venue_id"`
	AddedAt time.Time `bson:"added_at" json:"added_at"`
}

// Favourite is one document per user; Items is keyed by venue id.
type Favourite struct {
	ID        primitive.ObjectID       `bson:"_id,omitempty" json:"id"`
	UserID    string                   `bson:"user_id" json:"user_id"`
	Items     map[string]FavouriteItem `bson:"items" json:"items"`
	CreatedAt time.Time                `bson:"created_at,omitempty" json:"created_at,omitempty"`
	UpdatedAt time.Time                `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}

// VenueIDs returns the saved venue ids, newest first.
func (f *Favourite) VenueIDs() []string {
	ids := make([]string, 0, len(f.Items))
	for id := range f.Items {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return f.Items[ids[i]].AddedAt.After(f.Items[ids[j]].AddedAt)
	})
	return ids
}

type FavouriteRepo interface {
	AddToFavourites(ctx context.Context, userId uuid.UUID, venueId uuid.UUID) (*Favourite, error)
	RemoveFromFavourites(ctx context.Context, userId uuid.UUID, venueId uuid.UUID) error
	GetFavouritesByUserID(ctx context.Context, userId uuid.UUID) (*Favourite, error)
}

func (mdb *MongodbRepo) AddToFavourites(ctx context.Context, userId uuid.UUID, venueId uuid.UUID) (*Favourite, error) {
	col, err := mdb.GetCollection(ctx, FavouriteColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}
	now := time.Now().UTC()
	filter := bson.M{"user_id": userId.String()}

	update := bson.M{
		"$set": bson.M{
			"updated_at": now,
			fmt.Sprintf("items.%s", venueId.String()): FavouriteItem{
				VenueID: venueId.String(),
				AddedAt: now,
			},
		},
		"$setOnInsert": bson.M{
			"user_id":    userId.String(),
			"created_at": now,
		},
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var result Favourite
	if err := col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&result); err != nil {
		return nil, fmt.Errorf("error upserting favourite: %w", err)
	}
	return &result, nil
}

func (mdb *MongodbRepo) RemoveFromFavourites(ctx context.Context, userId uuid.UUID, venueId uuid.UUID) error {
	col, err := mdb.GetCollection(ctx, FavouriteColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %w", err)
	}

	filter := bson.M{"user_id": userId.String()}
	update := bson.M{
		"$unset": bson.M{
			fmt.Sprintf("items.%s", venueId.String()): "",
		},
		"$set": bson.M{
			"updated_at": time.Now().UTC(),
		},
	}

	if _, err := col.UpdateOne(ctx, filter, update); err != nil {
		return fmt.Errorf("error removing favourite: %w", err)
	}
	return nil
}

// GetFavouritesByUserID returns an empty document when the user has none.
func (mdb *MongodbRepo) GetFavouritesByUserID(ctx context.Context, userId uuid.UUID) (*Favourite, error) {
	col, err := mdb.GetCollection(ctx, FavouriteColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}

	var fav Favourite
	err = col.FindOne(ctx, bson.M{"user_id": userId.String()}).Decode(&fav)
	if err == mongo.ErrNoDocuments {
		return &Favourite{UserID: userId.String(), Items: map[string]FavouriteItem{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error finding favourites: %w", err)
	}
	if fav.Items == nil {
		fav.Items = map[string]FavouriteItem{}
	}
	return &fav, nil
}
