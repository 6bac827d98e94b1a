package model

import "time"

type Location struct {
	Lat float64 `bson:"lat" json:"lat"`
	Lng float64 `bson:"lng" json:"lng"`
}

// Hospital is a directory entry for a hospital, pharmacy or blood bank.
type Hospital struct {
	ID          string    `bson:"_id" json:"id"`
	Name        string    `bson:"name" json:"name"`
	Address     string    `bson:"address" json:"address"`
	Contact     string    `bson:"contact" json:"contact"`
	Description string    `bson:"description,omitempty" json:"description,omitempty"`
	Location    *Location `bson:"location,omitempty" json:"location,omitempty"`
	ProviderID  string    `bson:"providerId" json:"providerId"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
}

func (h *Hospital) GetTableName() string {
	return "hospitals"
}

func (h *Hospital) Clone() *Hospital {
	if h == nil {
		return nil
	}
	cp := *h
	if h.Location != nil {
		loc := *h.Location
		cp.Location = &loc
	}
	return &cp
}
