package store

import (
	"context"

	"HealthSeva/data/database"
	"HealthSeva/module/hospital/model"
	"HealthSeva/tools/ids"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoStore struct {
	db database.DBProvider
}

var _ Store = (*MongoStore)(nil)

func NewMongoStore(db database.DBProvider) *MongoStore {
	return &MongoStore{db: db}
}

func (s *MongoStore) coll() (*mongo.Collection, error) {
	return database.Collection(s.db, (*model.Hospital)(nil))
}

func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	c, err := s.coll()
	if err != nil {
		return err
	}
	_, err = c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}},
	})
	return database.MapErr(err)
}

func (s *MongoStore) Create(ctx context.Context, h *model.Hospital) (*model.Hospital, error) {
	c, err := s.coll()
	if err != nil {
		return nil, err
	}
	doc := bson.M{
		"name":       h.Name,
		"address":    h.Address,
		"contact":    h.Contact,
		"providerId": h.ProviderID,
	}
	if h.Description != "" {
		doc["description"] = h.Description
	}
	if h.Location != nil {
		doc["location"] = h.Location
	}
	after := options.After
	upsert := true
	var out model.Hospital
	err = c.FindOneAndUpdate(ctx,
		bson.M{"_id": ids.GenerateString()},
		bson.M{"$setOnInsert": doc, "$currentDate": bson.M{"createdAt": true}},
		&options.FindOneAndUpdateOptions{Upsert: &upsert, ReturnDocument: &after},
	).Decode(&out)
	if err != nil {
		return nil, database.MapErr(err, "op", "create hospital")
	}
	return &out, nil
}

func (s *MongoStore) List(ctx context.Context) ([]*model.Hospital, error) {
	c, err := s.coll()
	if err != nil {
		return nil, err
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, database.MapErr(err, "op", "list hospitals")
	}
	defer cur.Close(ctx)
	out := make([]*model.Hospital, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, database.MapErr(err, "op", "list hospitals")
	}
	return out, nil
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
