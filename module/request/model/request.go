package model

import (
	"strings"
	"time"
)

const CollectionName = "requests"

type Type string

const (
	TypeMedic Type = "MEDIC"
	TypeBlood Type = "BLOOD"
)

type Urgency string

const (
	UrgencyLow    Urgency = "LOW"
	UrgencyMedium Urgency = "MEDIUM"
	UrgencyHigh   Urgency = "HIGH"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusAccepted  Status = "ACCEPTED"
	StatusRejected  Status = "REJECTED"
	StatusFulfilled Status = "FULFILLED"
	StatusClosed    Status = "CLOSED"
)

func (t Type) Valid() bool { return t == TypeMedic || t == TypeBlood }

func (u Urgency) Valid() bool {
	switch u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh:
		return true
	}
	return false
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected, StatusFulfilled, StatusClosed:
		return true
	}
	return false
}

// ParseStatus accepts any letter case.
func ParseStatus(s string) (Status, bool) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	return st, st.Valid()
}

// Response is one provider's answer, embedded in the request in arrival order.
type Response struct {
	ProviderID string    `bson:"providerId" json:"providerId"`
	Name       string    `bson:"name" json:"name"`
	Contact    string    `bson:"contact" json:"contact"`
	Address    string    `bson:"address" json:"address"`
	Timestamp  time.Time `bson:"timestamp" json:"timestamp"`
}

// Request is a help request. The requester fields are a snapshot taken at
// creation; later profile edits do not reach them.
type Request struct {
	ID          string     `bson:"_id" json:"id"`
	Type        Type       `bson:"type" json:"type"`
	ItemName    string     `bson:"itemName" json:"itemName"` // blood group for BLOOD requests
	Description string     `bson:"description,omitempty" json:"description,omitempty"`
	Urgency     Urgency    `bson:"urgency" json:"urgency"`
	Status      Status     `bson:"status" json:"status"`
	UserID      string     `bson:"userId" json:"userId"`
	UserName    string     `bson:"userName" json:"userName"`
	UserContact string     `bson:"userContact" json:"userContact"`
	UserAddress string     `bson:"userAddress" json:"userAddress"`
	Responses   []Response `bson:"responses" json:"responses"`
	CreatedAt   time.Time  `bson:"createdAt" json:"createdAt"`
}

// Clone deep-copies the responses so snapshots can be shared between readers.
// Responses stays non-nil so it encodes as [].
func (r *Request) Clone() *Request {
	c := *r
	c.Responses = append(make([]Response, 0, len(r.Responses)), r.Responses...)
	return &c
}

// RespondedBy reports whether providerID answered at least once.
func (r *Request) RespondedBy(providerID string) bool {
	for _, resp := range r.Responses {
		if resp.ProviderID == providerID {
			return true
		}
	}
	return false
}

// Patch is the admin edit: nil fields are left untouched. Type, status and
// responses cannot be edited through it.
type Patch struct {
	ItemName    *string  `json:"itemName,omitempty"`
	Description *string  `json:"description,omitempty"`
	Urgency     *Urgency `json:"urgency,omitempty"`
	UserName    *string  `json:"userName,omitempty"`
	UserContact *string  `json:"userContact,omitempty"`
	UserAddress *string  `json:"userAddress,omitempty"`
}

func (p Patch) Empty() bool {
	return p.ItemName == nil && p.Description == nil && p.Urgency == nil &&
		p.UserName == nil && p.UserContact == nil && p.UserAddress == nil
}

// Fields returns the bson names and values to $set.
func (p Patch) Fields() map[string]any {
	m := map[string]any{}
	if p.ItemName != nil {
		m["itemName"] = *p.ItemName
	}
	if p.Description != nil {
		m["description"] = *p.Description
	}
	if p.Urgency != nil {
		m["urgency"] = *p.Urgency
	}
	if p.UserName != nil {
		m["userName"] = *p.UserName
	}
	if p.UserContact != nil {
		m["userContact"] = *p.UserContact
	}
	if p.UserAddress != nil {
		m["userAddress"] = *p.UserAddress
	}
	return m
}

// Apply is the in-memory counterpart of Fields.
func (p Patch) Apply(r *Request) {
	if p.ItemName != nil {
		r.ItemName = *p.ItemName
	}
	if p.Description != nil {
		r.Description = *p.Description
	}
	if p.Urgency != nil {
		r.Urgency = *p.Urgency
	}
	if p.UserName != nil {
		r.UserName = *p.UserName
	}
	if p.UserContact != nil {
		r.UserContact = *p.UserContact
	}
	if p.UserAddress != nil {
		r.UserAddress = *p.UserAddress
	}
}

func (*Request) GetTableName() string { return CollectionName }
