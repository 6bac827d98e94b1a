package database

import (
	"context"
	"errors"

	"HealthSeva/tools/errs"

	"go.mongodb.org/mongo-driver/mongo"
)

type Table interface {
	GetTableName() string
}

// DBProvider yields the current database, false while it is not connected.
// service/mgo.TryGetDB satisfies it.
type DBProvider func() (*mongo.Database, bool)

// Static wraps a fixed database, for tests and tools.
func Static(db *mongo.Database) DBProvider {
	return func() (*mongo.Database, bool) { return db, db != nil }
}

// Collection resolves t against p; an unconnected database is a transport
// failure.
func Collection(p DBProvider, t Table) (*mongo.Collection, error) {
	if p == nil {
		return nil, errs.ErrTransport.WrapMsg("mongo not configured")
	}
	db, ok := p()
	if !ok {
		return nil, errs.ErrTransport.WrapMsg("mongo not ready", "collection", t.GetTableName())
	}
	return db.Collection(t.GetTableName()), nil
}

// MapErr turns driver errors into coded ones: no documents becomes
// ErrRecordNotFound, duplicate keys ErrDuplicateKey, everything else
// ErrTransport.
func MapErr(err error, kv ...any) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return errs.ErrRecordNotFound.WrapMsg("", kv...)
	case mongo.IsDuplicateKeyError(err):
		return errs.ErrDuplicateKey.WrapMsg(err.Error(), kv...)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return errs.Wrap(err)
	default:
		return errs.ErrTransport.WrapMsg(err.Error(), kv...)
	}
}
