package model

import (
	"strings"
	"time"
)

type Role string

const (
	RoleUser     Role = "USER"
	RoleProvider Role = "PROVIDER"
)

func (r Role) Valid() bool { return r == RoleUser || r == RoleProvider }

// ParseRole is case-insensitive; anything unknown is USER.
func ParseRole(s string) Role {
	if r := Role(strings.ToUpper(strings.TrimSpace(s))); r.Valid() {
		return r
	}
	return RoleUser
}

type NotificationPreferences struct {
	BloodRequests      bool `bson:"bloodRequests" json:"bloodRequests"`
	MedicineRequests   bool `bson:"medicineRequests" json:"medicineRequests"`
	EmailNotifications bool `bson:"emailNotifications" json:"emailNotifications"`
}

func DefaultNotifications() NotificationPreferences {
	return NotificationPreferences{BloodRequests: true, MedicineRequests: true, EmailNotifications: true}
}

// Profile is the persisted record of one identity, keyed by identity id.
type Profile struct {
	ID               string                  `bson:"_id" json:"id"`
	Email            string                  `bson:"email" json:"email"`
	Name             string                  `bson:"name" json:"name"`
	Role             Role                    `bson:"role" json:"role"`
	BloodType        string                  `bson:"bloodType" json:"bloodType"`
	Allergies        string                  `bson:"allergies" json:"allergies"`
	EmergencyContact string                  `bson:"emergencyContact" json:"emergencyContact"`
	Notifications    NotificationPreferences `bson:"notificationPreferences" json:"notificationPreferences"`
	CreatedAt        time.Time               `bson:"createdAt" json:"createdAt"`
}

func (p *Profile) GetTableName() string {
	return "users"
}

func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}

// ProfileUpdate carries the editable medical fields; nil means unchanged.
type ProfileUpdate struct {
	Name             *string                  `json:"name"`
	BloodType        *string                  `json:"bloodType"`
	Allergies        *string                  `json:"allergies"`
	EmergencyContact *string                  `json:"emergencyContact"`
	Notifications    *NotificationPreferences `json:"notificationPreferences"`
}

func (u ProfileUpdate) Fields() map[string]any {
	m := map[string]any{}
	if u.Name != nil {
		m["name"] = *u.Name
	}
	if u.BloodType != nil {
		m["bloodType"] = *u.BloodType
	}
	if u.Allergies != nil {
		m["allergies"] = *u.Allergies
	}
	if u.EmergencyContact != nil {
		m["emergencyContact"] = *u.EmergencyContact
	}
	if u.Notifications != nil {
		m["notificationPreferences"] = *u.Notifications
	}
	return m
}

func (u ProfileUpdate) Apply(p *Profile) {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.BloodType != nil {
		p.BloodType = *u.BloodType
	}
	if u.Allergies != nil {
		p.Allergies = *u.Allergies
	}
	if u.EmergencyContact != nil {
		p.EmergencyContact = *u.EmergencyContact
	}
	if u.Notifications != nil {
		p.Notifications = *u.Notifications
	}
}
