// Package database holds the MongoDB store. The handle is explicit and
// injected into the components that need it; there is no package-level
// connection state.
package database

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/petomi/doodle-mail-server/config"
	"github.com/petomi/doodle-mail-server/models"
	"github.com/petomi/doodle-mail-server/room"
)

const connectTimeout = 8 * time.Second

type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect opens the MongoDB connection and pings it. The returned Store must
// be closed at shutdown with Close.
func Connect(ctx context.Context, cfg *config.Config) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	logrus.WithField("database", cfg.MongoDatabase).Info("Connected to MongoDB")
	return &Store{client: client, db: client.Database(cfg.MongoDatabase)}, nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// EnsureIndexes creates the unique index on rooms.entry_code. This is what
// makes entry codes unique under concurrent creators: the insert, not a
// prior read, is the uniqueness check.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.rooms().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "entry_code", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}
	_, err = s.messages().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "room_id", Value: 1}},
	})
	return err
}

func (s *Store) rooms() *mongo.Collection    { return s.db.Collection("rooms") }
func (s *Store) messages() *mongo.Collection { return s.db.Collection("messages") }
func (s *Store) users() *mongo.Collection    { return s.db.Collection("users") }

// identityFilter matches a stored participant equal to p, per-variant: user
// refs by user_id, bare names by display_name with no user_id present.
func identityFilter(p models.Participant) bson.M {
	if p.UserID != nil {
		return bson.M{"user_id": *p.UserID}
	}
	return bson.M{"user_id": bson.M{"$exists": false}, "display_name": p.DisplayName}
}

func (s *Store) InsertRoom(ctx context.Context, r *models.Room) error {
	res, err := s.rooms().InsertOne(ctx, r)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return room.ErrCodeTaken
		}
		return err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		r.ID = id
	}
	return nil
}

func (s *Store) FindRoomByCode(ctx context.Context, entryCode string) (*models.Room, error) {
	var r models.Room
	err := s.rooms().FindOne(ctx, bson.M{"entry_code": entryCode}).Decode(&r)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) FindRoomByID(ctx context.Context, id primitive.ObjectID) (*models.Room, error) {
	var r models.Room
	err := s.rooms().FindOne(ctx, bson.M{"_id": id}).Decode(&r)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) AddParticipant(ctx context.Context, roomID primitive.ObjectID, p models.Participant) (bool, error) {
	// Only match the room when no equal identity is already in the set, so
	// duplicate detection and the push are a single atomic update.
	filter := bson.M{
		"_id":          roomID,
		"participants": bson.M{"$not": bson.M{"$elemMatch": identityFilter(p)}},
	}
	res, err := s.rooms().UpdateOne(ctx, filter, bson.M{"$push": bson.M{"participants": p}})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

func (s *Store) RemoveParticipant(ctx context.Context, roomID primitive.ObjectID, p models.Participant) (*models.Room, error) {
	after := options.After
	opts := options.FindOneAndUpdate().SetReturnDocument(after)
	update := bson.M{"$pull": bson.M{"participants": identityFilter(p)}}

	var r models.Room
	err := s.rooms().FindOneAndUpdate(ctx, bson.M{"_id": roomID}, update, opts).Decode(&r)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) DeleteRoomIfEmpty(ctx context.Context, roomID primitive.ObjectID) (bool, error) {
	filter := bson.M{"_id": roomID, "participants": bson.M{"$size": 0}}
	res, err := s.rooms().DeleteOne(ctx, filter)
	if err != nil {
		return false, err
	}
	if res.DeletedCount == 0 {
		return false, nil
	}
	// Cascade: a deleted room's messages go with it, otherwise they would
	// leak into whichever room is issued this code next.
	if _, err := s.messages().DeleteMany(ctx, bson.M{"room_id": roomID}); err != nil {
		return true, err
	}
	return true, nil
}

func (s *Store) InsertMessages(ctx context.Context, msgs []models.Message) error {
	docs := make([]interface{}, len(msgs))
	for i := range msgs {
		docs[i] = msgs[i]
	}
	_, err := s.messages().InsertMany(ctx, docs)
	return err
}

func (s *Store) MessagesByRoom(ctx context.Context, roomID primitive.ObjectID) ([]models.Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}})
	cursor, err := s.messages().Find(ctx, bson.M{"room_id": roomID}, opts)
	if err != nil {
		return nil, err
	}
	msgs := []models.Message{}
	if err := cursor.All(ctx, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

func (s *Store) DeleteMessage(ctx context.Context, id primitive.ObjectID) (bool, error) {
	res, err := s.messages().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	return res.DeletedCount == 1, nil
}

// Users (auth collaborator).

func (s *Store) InsertUser(ctx context.Context, u *models.User) error {
	res, err := s.users().InsertOne(ctx, u)
	if err != nil {
		return err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		u.ID = id
	}
	return nil
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.users().FindOne(ctx, bson.M{"email": email}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) FindUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	err := s.users().FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
