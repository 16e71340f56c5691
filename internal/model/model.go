package model

import "time"

// UserToken represents the user's OAuth2 token stored in DynamoDB.
type UserToken struct {
	UserID                string    `json:"user_id" dynamodbav:"user_id"`
	EncryptedRefreshToken string    `json:"encrypted_refresh_token" dynamodbav:"encrypted_refresh_token"`
	OnboardingDismissed   bool      `json:"onboarding_dismissed" dynamodbav:"onboarding_dismissed"`
	UpdatedAt             time.Time `json:"updated_at" dynamodbav:"updated_at"`
}
