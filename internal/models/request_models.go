package models

// RegisterRequest represents the request body for creating an account.
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// EmailRequest carries a single address for password reset or verification resend.
type EmailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// UpgradeSubmission is the payment proof a free user submits.
type UpgradeSubmission struct {
	NameOnPayment string `json:"nameOnPayment" binding:"required"`
	UTRNumber     string `json:"utrNumber" binding:"required"`
}

// ReviewSubmission represents the request body for posting a review.
type ReviewSubmission struct {
	ReviewText string `json:"reviewText" binding:"required"`
	Rating     int    `json:"rating" binding:"required,min=1,max=5"`
}

// ContactSubmission represents the public contact form.
type ContactSubmission struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required,email"`
	Message string `json:"message" binding:"required"`
}

// HealthGoalUpdate represents the request body for changing the dietary objective.
type HealthGoalUpdate struct {
	HealthGoal string `json:"healthGoal" binding:"required"`
}

// StatusUpdate is used by the moderation console to move a review or message forward.
type StatusUpdate struct {
	Status string `json:"status" binding:"required"`
}
