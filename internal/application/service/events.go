package service

import (
	"context"
	"time"

	"github.com/khoahotran/internmatch-client/internal/domain/asset"
	"github.com/khoahotran/internmatch-client/internal/domain/profile"
)

type ProfileEventType string

const (
	ProfileCreated ProfileEventType = "created"
	ProfileUpdated ProfileEventType = "updated"
	ProfileDeleted ProfileEventType = "deleted"
)

type ProfileEvent struct {
	Type      ProfileEventType `json:"event_type"`
	ProfileID profile.ID       `json:"profile_id"`
	Subject   string           `json:"subject,omitempty"`
	Assets    []asset.Slot     `json:"assets,omitempty"`
	At        time.Time        `json:"at"`
}

// EventPublisher announces completed profile writes. Publishing is best
// effort: a write that succeeded is not undone by a publish failure.
type EventPublisher interface {
	PublishProfileEvent(ctx context.Context, event ProfileEvent) error
}
