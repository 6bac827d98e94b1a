package model

import (
	"time"

	usermodel "HealthSeva/module/user/model"
)

const DefaultType = "feedback"

// Post is one entry of the community feed.
type Post struct {
	ID        string         `bson:"_id" json:"id"`
	Content   string         `bson:"content" json:"content"`
	Author    string         `bson:"author" json:"author"`
	AuthorID  string         `bson:"authorId" json:"authorId"`
	Role      usermodel.Role `bson:"role" json:"role"`
	Likes     int64          `bson:"likes" json:"likes"`
	Type      string         `bson:"type" json:"type"`
	Timestamp time.Time      `bson:"timestamp" json:"timestamp"`
}

func (p *Post) GetTableName() string {
	return "posts"
}

func (p *Post) Clone() *Post {
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}
