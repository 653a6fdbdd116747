package models

import "time"

// InquiryStatus is the agent-managed lifecycle of an inquiry. No transition
// rules are enforced; agents assign statuses freely.
type InquiryStatus string

const (
	InquiryStatusNew       InquiryStatus = "new"
	InquiryStatusContacted InquiryStatus = "contacted"
	InquiryStatusQualified InquiryStatus = "qualified"
	InquiryStatusClosed    InquiryStatus = "closed"
)

// Inquiry is a buyer's contact request against one listing. AgentID is a
// denormalized snapshot of the listing's owner captured at creation time;
// it is never re-derived. Inquiries are immutable once created.
type Inquiry struct {
	ID            int64         `bson:"_id" json:"id"`
	PropertyID    int64         `bson:"property_id" json:"property_id"`
	AgentID       string        `bson:"agent_id" json:"agent_id"`
	InquirerName  string        `bson:"inquirer_name" json:"inquirer_name"`
	InquirerEmail string        `bson:"inquirer_email" json:"inquirer_email"`
	InquirerPhone string        `bson:"inquirer_phone,omitempty" json:"inquirer_phone,omitempty"`
	Message       string        `bson:"message,omitempty" json:"message,omitempty"`
	Status        InquiryStatus `bson:"status" json:"status"`
	CreatedAt     time.Time     `bson:"created_at" json:"created_at"`
}
