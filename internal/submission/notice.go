package submission

import (
	"errors"
	"time"
)

// NoticeKind identifies which user action produced a notice.
type NoticeKind int

const (
	NoticeSubmit NoticeKind = iota
	NoticeDraft
)

// Notice is a dismissible banner shown above the form.
type Notice struct {
	Variant      string        `json:"variant"`
	Message      string        `json:"message"`
	DismissAfter time.Duration `json:"dismissAfter"`
}

const (
	submitErrorDelay  = 8 * time.Second
	draftErrorDelay   = 5 * time.Second
	draftSavedDelay   = 3 * time.Second
	draftSavedMessage = "Draft saved successfully!"
)

// NoticeFor returns the banner for the outcome err of action kind.
// A successful submit navigates away and has no banner.
func NoticeFor(kind NoticeKind, err error) (Notice, bool) {
	switch kind {
	case NoticeSubmit:
		if err == nil {
			return Notice{}, false
		}
		return Notice{Variant: "danger", Message: "Error: " + errorMessage(err), DismissAfter: submitErrorDelay}, true
	case NoticeDraft:
		if err == nil {
			return Notice{Variant: "success", Message: draftSavedMessage, DismissAfter: draftSavedDelay}, true
		}
		return Notice{Variant: "danger", Message: "Error: " + errorMessage(err), DismissAfter: draftErrorDelay}, true
	}
	return Notice{}, false
}

func errorMessage(err error) string {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Message
	}
	var serr *ServerError
	if errors.As(err, &serr) {
		if serr.Cause != nil {
			return serr.Cause.Error()
		}
		return serr.Message
	}
	return err.Error()
}
