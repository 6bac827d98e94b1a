package store

import (
	"context"
	"time"

	"HealthSeva/data/database"
	"HealthSeva/module/user/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoProfiles struct {
	db database.DBProvider
}

var _ ProfileStore = (*MongoProfiles)(nil)

func NewMongoProfiles(db database.DBProvider) *MongoProfiles {
	return &MongoProfiles{db: db}
}

func (s *MongoProfiles) coll() (*mongo.Collection, error) {
	return database.Collection(s.db, (*model.Profile)(nil))
}

func (s *MongoProfiles) EnsureIndexes(ctx context.Context) error {
	c, err := s.coll()
	if err != nil {
		return err
	}
	_, err = c.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "email", Value: 1}}})
	return database.MapErr(err)
}

func (s *MongoProfiles) Get(ctx context.Context, id string) (*model.Profile, error) {
	c, err := s.coll()
	if err != nil {
		return nil, err
	}
	var out model.Profile
	if err := c.FindOne(ctx, bson.M{"_id": id}).Decode(&out); err != nil {
		return nil, database.MapErr(err, "profile", id)
	}
	return &out, nil
}

func (s *MongoProfiles) SignIn(ctx context.Context, p *model.Profile) (*model.Profile, error) {
	c, err := s.coll()
	if err != nil {
		return nil, err
	}
	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	after := options.After
	upsert := true
	res := c.FindOneAndUpdate(ctx,
		bson.M{"_id": p.ID},
		bson.M{
			"$set": bson.M{"role": p.Role},
			"$setOnInsert": bson.M{
				"email":                   p.Email,
				"name":                    p.Name,
				"bloodType":               p.BloodType,
				"allergies":               p.Allergies,
				"emergencyContact":        p.EmergencyContact,
				"notificationPreferences": p.Notifications,
				"createdAt":               createdAt,
			},
		},
		&options.FindOneAndUpdateOptions{Upsert: &upsert, ReturnDocument: &after},
	)
	var out model.Profile
	if err := res.Decode(&out); err != nil {
		return nil, database.MapErr(err, "profile", p.ID)
	}
	return &out, nil
}

func (s *MongoProfiles) Update(ctx context.Context, id string, u model.ProfileUpdate) (*model.Profile, error) {
	fields := u.Fields()
	if len(fields) == 0 {
		return s.Get(ctx, id)
	}
	c, err := s.coll()
	if err != nil {
		return nil, err
	}
	after := options.After
	res := c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": fields},
		&options.FindOneAndUpdateOptions{ReturnDocument: &after})
	var out model.Profile
	if err := res.Decode(&out); err != nil {
		return nil, database.MapErr(err, "profile", id)
	}
	return &out, nil
}

func (s *MongoProfiles) Count(ctx context.Context) (int64, error) {
	c, err := s.coll()
	if err != nil {
		return 0, err
	}
	n, err := c.CountDocuments(ctx, bson.M{})
	return n, database.MapErr(err, "op", "count")
}

// MongoSessionLog appends to the sign-in history collection.
type MongoSessionLog struct {
	db database.DBProvider
}

var _ SessionLog = (*MongoSessionLog)(nil)

func NewMongoSessionLog(db database.DBProvider) *MongoSessionLog {
	return &MongoSessionLog{db: db}
}

// EnsureIndexes expires history a month after the token did.
func (l *MongoSessionLog) EnsureIndexes(ctx context.Context) error {
	c, err := database.Collection(l.db, (*model.UserSession)(nil))
	if err != nil {
		return err
	}
	_, err = c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "login_time", Value: -1}}},
		{Keys: bson.D{{Key: "expire_at", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(30 * 24 * 3600)},
	})
	return database.MapErr(err)
}

func (l *MongoSessionLog) Append(ctx context.Context, s *model.UserSession) error {
	c, err := database.Collection(l.db, s)
	if err != nil {
		return err
	}
	_, err = c.InsertOne(ctx, s)
	return database.MapErr(err, "session", s.SessionID)
}
