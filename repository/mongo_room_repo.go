package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"chat-relay/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoRoomRepo struct {
	coll *mongo.Collection
}

func NewMongoRoomRepo(db *mongo.Database) *MongoRoomRepo {
	return &MongoRoomRepo{coll: db.Collection("rooms")}
}

func (r *MongoRoomRepo) Create(ctx context.Context, room *models.Room) (*models.Room, error) {
	if err := r.coll.FindOne(ctx, bson.M{"name": room.Name}).Err(); err == nil {
		return nil, ErrDuplicate
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("check existing room: %w", err)
	}

	cp := *room
	if cp.ID.IsZero() {
		cp.ID = primitive.NewObjectID()
	}
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	if cp.Members == nil {
		cp.Members = []primitive.ObjectID{}
	}
	if _, err := r.coll.InsertOne(ctx, &cp); err != nil {
		return nil, fmt.Errorf("insert room: %w", err)
	}
	return &cp, nil
}

func (r *MongoRoomRepo) FindByName(ctx context.Context, name string) (*models.Room, error) {
	var room models.Room
	err := r.coll.FindOne(ctx, bson.M{"name": name}).Decode(&room)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find room: %w", err)
	}
	return &room, nil
}

func (r *MongoRoomRepo) ListVisible(ctx context.Context, userID primitive.ObjectID) ([]models.Room, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"isPrivate": false},
		bson.M{"members": userID},
	}}
	cur, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find rooms: %w", err)
	}
	var rooms []models.Room
	if err := cur.All(ctx, &rooms); err != nil {
		return nil, fmt.Errorf("decode rooms: %w", err)
	}
	if rooms == nil {
		rooms = []models.Room{}
	}
	return rooms, nil
}

func (r *MongoRoomRepo) TouchActivity(ctx context.Context, name string) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"name": name},
		bson.M{"$set": bson.M{"lastActivity": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("touch room activity: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
