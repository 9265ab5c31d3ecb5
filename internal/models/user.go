package models

import (
	"context"
)

// UserSummary is the public view of a user embedded in chat payloads.
type UserSummary struct {
	ID              string `json:"id"`
	FullName        string `json:"fullname"`
	Email           string `json:"email"`
	AvatarURL       string `json:"avatar_url,omitempty"`
	ProfileComplete bool   `json:"profile_complete"`
}

// UserDirectory looks up user summaries. Unknown ids are absent from the result.
type UserDirectory interface {
	GetUserSummaries(ctx context.Context, ids []string) (map[string]*UserSummary, error)
}
