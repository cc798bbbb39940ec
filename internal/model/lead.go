package model

import "time"

// Lead is an enquiry submitted through the contact form.
type Lead struct {
	ID         string    `json:"id" bson:"_id" csv:"id"`
	Name       string    `json:"name" bson:"name" csv:"name" validate:"required,max=200"`
	Email      string    `json:"email" bson:"email" csv:"email" validate:"required,email,max=254"`
	Phone      string    `json:"phone,omitempty" bson:"phone,omitempty" csv:"phone" validate:"max=50"`
	Message    string    `json:"message" bson:"message" csv:"message" validate:"max=5000"`
	PropertyID string    `json:"propertyId,omitempty" bson:"propertyId,omitempty" csv:"property_id" validate:"omitempty,uuid"`
	Source     string    `json:"source" bson:"source" csv:"source" validate:"max=50"`
	Status     string    `json:"status" bson:"status" csv:"status" validate:"required,oneof=new contacted closed"`
	CreatedAt  time.Time `json:"createdAt" bson:"createdAt" csv:"created_at"`
}

// Lead statuses.
const (
	LeadNew       = "new"
	LeadContacted = "contacted"
	LeadClosed    = "closed"
)

// DefaultLeadSource is recorded when the submitter names none.
const DefaultLeadSource = "contact-form"
