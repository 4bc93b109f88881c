package models

import "time"

// ReviewStatus is the moderation state of a review.
type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "pending"
	ReviewApproved ReviewStatus = "approved"
	ReviewRejected ReviewStatus = "rejected"
)

// Review is a user testimonial shown publicly once approved.
type Review struct {
	ID          string       `json:"id" firestore:"-"`
	UserID      string       `json:"userId" firestore:"userId"`
	UserName    string       `json:"userName" firestore:"userName"`
	ReviewText  string       `json:"reviewText" firestore:"reviewText"`
	Rating      int          `json:"rating" firestore:"rating"`
	Status      ReviewStatus `json:"status" firestore:"status"`
	SubmittedAt time.Time    `json:"submittedAt" firestore:"submittedAt"`
}

// MessageStatus is the triage state of a contact message.
type MessageStatus string

const (
	MessageNew  MessageStatus = "new"
	MessageRead MessageStatus = "read"
)

// ContactMessage is submitted through the public contact form.
type ContactMessage struct {
	ID          string        `json:"id" firestore:"-"`
	Name        string        `json:"name" firestore:"name"`
	Email       string        `json:"email" firestore:"email"`
	Message     string        `json:"message" firestore:"message"`
	Status      MessageStatus `json:"status" firestore:"status"`
	SubmittedAt time.Time     `json:"submittedAt" firestore:"submittedAt"`
	UserID      string        `json:"userId,omitempty" firestore:"userId,omitempty"` // set when sent by a signed-in user
}
