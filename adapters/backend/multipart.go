package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/textproto"

	"github.com/gabriel-vasile/mimetype"

	"github.com/khoahotran/internmatch-client/internal/application/service"
	"github.com/khoahotran/internmatch-client/internal/domain/asset"
	"github.com/khoahotran/internmatch-client/pkg/apperror"
)

// ProfilePart is the multipart field holding the profile JSON.
const ProfilePart = "profile"

// encodeSubmission writes the profile as the "profile" field followed by one
// file part per pending asset, named after its slot. Slots without a part are
// left unchanged by the backend.
func encodeSubmission(sub service.Submission) (*bytes.Buffer, string, error) {
	doc, err := json.Marshal(sub.Profile)
	if err != nil {
		return nil, "", apperror.NewInternal("encode profile", err)
	}

	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	if err := w.WriteField(ProfilePart, string(doc)); err != nil {
		return nil, "", apperror.NewInternal("write profile part", err)
	}

	for _, slot := range asset.Slots {
		payload, ok := sub.Assets[slot]
		if !ok {
			continue
		}
		if err := writeFilePart(w, slot, payload); err != nil {
			return nil, "", apperror.NewInternal(fmt.Sprintf("write %s part", slot), err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", apperror.NewInternal("close multipart body", err)
	}
	return buf, w.FormDataContentType(), nil
}

func writeFilePart(w *multipart.Writer, slot asset.Slot, payload asset.Payload) error {
	filename := payload.Filename
	if filename == "" {
		filename = string(slot) + mimetype.Detect(payload.Data).Extension()
	}
	contentType := payload.ContentType
	if contentType == "" {
		contentType = mimetype.Detect(payload.Data).String()
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, string(slot), filename))
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = part.Write(payload.Data)
	return err
}
