package asset

import (
	"context"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/khoahotran/internmatch-client/pkg/apperror"
)

// Slot names double as multipart part names on the wire.
type Slot string

const (
	SlotCV             Slot = "cv"
	SlotLetter         Slot = "letter"
	SlotProfilePicture Slot = "profilePicture"
	SlotCoverPhoto     Slot = "coverPhoto"
)

var Slots = []Slot{SlotCV, SlotLetter, SlotProfilePicture, SlotCoverPhoto}

func ParseSlot(s string) (Slot, error) {
	for _, slot := range Slots {
		if string(slot) == s {
			return slot, nil
		}
	}
	return "", apperror.NewValidation(fmt.Sprintf("unknown asset slot %q", s), nil)
}

func (s Slot) IsImage() bool {
	return s == SlotProfilePicture || s == SlotCoverPhoto
}

// Fetchable reports whether the backend exposes a read endpoint for the slot.
func (s Slot) Fetchable() bool {
	return s.IsImage()
}

type State int

const (
	StateUnset State = iota
	StateRemote
	StatePendingLocal
)

func (s State) String() string {
	switch s {
	case StateRemote:
		return "remote"
	case StatePendingLocal:
		return "pending"
	default:
		return "unset"
	}
}

// Payload is the binary content of an asset.
type Payload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// NewPayload builds a payload and detects its content type from the bytes.
func NewPayload(filename string, data []byte) Payload {
	return Payload{
		Filename:    filename,
		ContentType: mimetype.Detect(data).String(),
		Data:        data,
	}
}

func (p Payload) Size() int {
	return len(p.Data)
}

func (p Payload) withContentType() Payload {
	if p.ContentType == "" {
		p.ContentType = mimetype.Detect(p.Data).String()
	}
	return p
}

func (p Payload) isImage() bool {
	return strings.HasPrefix(p.ContentType, "image/")
}

// Previewer hands out local preview references for payloads that have not
// been submitted yet. Every reference it creates must eventually be released.
type Previewer interface {
	Create(ctx context.Context, slot Slot, payload Payload) (string, error)
	Release(ctx context.Context, ref string) error
}

// Fetcher reads the current remote content of a slot.
type Fetcher func(ctx context.Context, slot Slot) (Payload, error)
