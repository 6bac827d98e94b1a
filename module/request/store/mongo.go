package store

import (
	"context"

	"HealthSeva/data/database"
	"HealthSeva/module/request/model"
	"HealthSeva/tools/ids"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoStore struct {
	db database.DBProvider
}

var (
	_ Store   = (*MongoStore)(nil)
	_ Watcher = (*MongoStore)(nil)
)

func NewMongoStore(db database.DBProvider) *MongoStore {
	return &MongoStore{db: db}
}

func (s *MongoStore) coll() (*mongo.Collection, error) {
	return database.Collection(s.db, (*model.Request)(nil))
}

// EnsureIndexes backs the list sort and the per-user view.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	c, err := s.coll()
	if err != nil {
		return err
	}
	_, err = c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
	})
	return database.MapErr(err)
}

// Create takes createdAt from the database clock via $currentDate, so
// ordering does not depend on the clocks of the app instances.
func (s *MongoStore) Create(ctx context.Context, r *model.Request) (*model.Request, error) {
	c, err := s.coll()
	if err != nil {
		return nil, err
	}
	id := ids.GenerateString()
	doc := bson.M{
		"type":        r.Type,
		"itemName":    r.ItemName,
		"urgency":     r.Urgency,
		"status":      model.StatusPending,
		"userId":      r.UserID,
		"userName":    r.UserName,
		"userContact": r.UserContact,
		"userAddress": r.UserAddress,
		"responses":   []model.Response{},
	}
	if r.Description != "" {
		doc["description"] = r.Description
	}

	after := options.After
	res := c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$setOnInsert": doc, "$currentDate": bson.M{"createdAt": true}},
		&options.FindOneAndUpdateOptions{Upsert: ptr(true), ReturnDocument: &after},
	)
	var out model.Request
	if err := res.Decode(&out); err != nil {
		return nil, database.MapErr(err, "op", "create")
	}
	return &out, nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (*model.Request, error) {
	c, err := s.coll()
	if err != nil {
		return nil, err
	}
	var out model.Request
	if err := c.FindOne(ctx, bson.M{"_id": id}).Decode(&out); err != nil {
		return nil, database.MapErr(err, "id", id)
	}
	return &out, nil
}

func (s *MongoStore) List(ctx context.Context) ([]*model.Request, error) {
	c, err := s.coll()
	if err != nil {
		return nil, err
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, database.MapErr(err, "op", "list")
	}
	defer cur.Close(ctx)

	out := make([]*model.Request, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, database.MapErr(err, "op", "list")
	}
	return out, nil
}

func (s *MongoStore) Respond(ctx context.Context, id string, resp model.Response) error {
	return s.updateOne(ctx, id, bson.M{
		"$push": bson.M{"responses": resp},
		"$set":  bson.M{"status": model.StatusAccepted},
	})
}

func (s *MongoStore) UpdateStatus(ctx context.Context, id string, status model.Status) error {
	return s.updateOne(ctx, id, bson.M{"$set": bson.M{"status": status}})
}

func (s *MongoStore) Edit(ctx context.Context, id string, patch model.Patch) error {
	fields := patch.Fields()
	if len(fields) == 0 {
		// nothing to set, but a missing id is still reported
		_, err := s.Get(ctx, id)
		return err
	}
	return s.updateOne(ctx, id, bson.M{"$set": fields})
}

func (s *MongoStore) updateOne(ctx context.Context, id string, update bson.M) error {
	c, err := s.coll()
	if err != nil {
		return err
	}
	res, err := c.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return database.MapErr(err, "id", id)
	}
	if res.MatchedCount == 0 {
		return database.MapErr(mongo.ErrNoDocuments, "id", id)
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	c, err := s.coll()
	if err != nil {
		return err
	}
	res, err := c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return database.MapErr(err, "id", id)
	}
	if res.DeletedCount == 0 {
		return database.MapErr(mongo.ErrNoDocuments, "id", id)
	}
	return nil
}

// Watch calls changed for every insert, update, replace or delete on the
// collection until ctx is done. Change streams need a replica set.
func (s *MongoStore) Watch(ctx context.Context, changed func()) error {
	c, err := s.coll()
	if err != nil {
		return err
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"operationType": bson.M{"$in": bson.A{"insert", "update", "replace", "delete"}}}}},
		{{Key: "$project", Value: bson.M{"operationType": 1}}},
	}
	cs, err := c.Watch(ctx, pipeline)
	if err != nil {
		return database.MapErr(err, "op", "watch")
	}
	defer cs.Close(context.Background())

	for cs.Next(ctx) {
		changed()
	}
	if ctx.Err() != nil {
		return nil
	}
	return database.MapErr(cs.Err(), "op", "watch")
}

func ptr[T any](v T) *T { return &v }
