package model

import "time"

const (
	SessionOnline  = "online"
	SessionOffline = "offline"
	SessionExpired = "expired"
)

// UserSession is one issued access token. Only the token hash is kept.
type UserSession struct {
	SessionID       string     `bson:"session_id" json:"session_id"`
	UserID          string     `bson:"user_id" json:"user_id"`
	Email           string     `bson:"email" json:"email"`
	Name            string     `bson:"name" json:"name"`
	Role            Role       `bson:"role" json:"role"`
	AccessTokenHash string     `bson:"access_token_hash" json:"access_token_hash"`
	IP              string     `bson:"ip,omitempty" json:"ip,omitempty"`
	UserAgent       string     `bson:"user_agent,omitempty" json:"user_agent,omitempty"`
	LoginTime       time.Time  `bson:"login_time" json:"login_time"`
	ExpireAt        time.Time  `bson:"expire_at" json:"expire_at"`
	LogoutTime      *time.Time `bson:"logout_time,omitempty" json:"logout_time,omitempty"`
	Status          string     `bson:"status" json:"status"`
	Reason          string     `bson:"reason,omitempty" json:"reason,omitempty"`
}

// GetTableName is the sign-in history collection.
func (s *UserSession) GetTableName() string {
	return "user_session_log"
}

// Stats summarises one identity's activity on the request board.
type Stats struct {
	RequestsMade      int `json:"requestsMade"`
	ResponsesGiven    int `json:"responsesGiven"`
	RequestsFulfilled int `json:"requestsFulfilled"`
}
