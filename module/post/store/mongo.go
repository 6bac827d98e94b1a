package store

import (
	"context"

	"HealthSeva/data/database"
	"HealthSeva/module/post/model"
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
	return database.Collection(s.db, (*model.Post)(nil))
}

func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	c, err := s.coll()
	if err != nil {
		return err
	}
	_, err = c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}},
	})
	return database.MapErr(err)
}

func (s *MongoStore) Create(ctx context.Context, p *model.Post) (*model.Post, error) {
	c, err := s.coll()
	if err != nil {
		return nil, err
	}
	doc := bson.M{
		"content":  p.Content,
		"author":   p.Author,
		"authorId": p.AuthorID,
		"role":     p.Role,
		"likes":    0,
		"type":     p.Type,
	}
	after := options.After
	upsert := true
	res := c.FindOneAndUpdate(ctx,
		bson.M{"_id": ids.GenerateString()},
		bson.M{"$setOnInsert": doc, "$currentDate": bson.M{"timestamp": true}},
		&options.FindOneAndUpdateOptions{Upsert: &upsert, ReturnDocument: &after},
	)
	var out model.Post
	if err := res.Decode(&out); err != nil {
		return nil, database.MapErr(err, "op", "create post")
	}
	return &out, nil
}

func (s *MongoStore) List(ctx context.Context) ([]*model.Post, error) {
	c, err := s.coll()
	if err != nil {
		return nil, err
	}
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, database.MapErr(err, "op", "list posts")
	}
	defer cur.Close(ctx)
	out := make([]*model.Post, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, database.MapErr(err, "op", "list posts")
	}
	return out, nil
}

func (s *MongoStore) Like(ctx context.Context, id string) (int64, error) {
	c, err := s.coll()
	if err != nil {
		return 0, err
	}
	after := options.After
	var out model.Post
	err = c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"likes": 1}},
		&options.FindOneAndUpdateOptions{ReturnDocument: &after},
	).Decode(&out)
	if err != nil {
		return 0, database.MapErr(err, "id", id)
	}
	return out.Likes, nil
}

func (s *MongoStore) EditContent(ctx context.Context, id, content string) error {
	c, err := s.coll()
	if err != nil {
		return err
	}
	res, err := c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"content": content}})
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
