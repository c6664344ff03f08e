package models

import (
	"context"
	"fmt"

	"github.com/supabase-community/supabase-go"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// SupabaseRepo talks to the hosted auth provider.
type SupabaseRepo struct {
	supabaseClient *supabase.Client
}

func SupabaseNewRepo(supabaseClient *supabase.Client) *SupabaseRepo {
	return &SupabaseRepo{
		supabaseClient: supabaseClient,
	}
}

// GormRepo owns every relational table: venues, lookups, bookings and profiles.
type GormRepo struct {
	db *gorm.DB
}

func GormNewRepo(db *gorm.DB) *GormRepo {
	return &GormRepo{db: db}
}

// DB exposes the handle for health checks and shutdown.
func (r *GormRepo) DB() *gorm.DB {
	return r.db
}

// AutoMigrate creates or updates the relational schema.
func AutoMigrate(db *gorm.DB) error {
	if err := db.SetupJoinTable(&Venue{}, "Categories", &VenueCategory{}); err != nil {
		return fmt.Errorf("failed to setup venue_categories join table: %w", err)
	}
	if err := db.SetupJoinTable(&Venue{}, "Facilities", &VenueFacility{}); err != nil {
		return fmt.Errorf("failed to setup venue_facilities join table: %w", err)
	}
	return db.AutoMigrate(
		&Profile{},
		&Category{},
		&Facility{},
		&Venue{},
		&VenueImage{},
		&VenueCategory{},
		&VenueFacility{},
		&Booking{},
	)
}

type MongodbRepo struct {
	mongodbClient *mongo.Client
	dbName        string
}

func MongodbNewRepo(mongodbClient *mongo.Client, dbName string) *MongodbRepo {
	return &MongodbRepo{
		mongodbClient: mongodbClient,
		dbName:        dbName,
	}
}

func (mdb *MongodbRepo) GetCollection(ctx context.Context, colName string) (*mongo.Collection, error) {
	if mdb.mongodbClient == nil {
		return nil, fmt.Errorf("mongodb client is not initialized")
	}
	return mdb.mongodbClient.Database(mdb.dbName).Collection(colName), nil
}
