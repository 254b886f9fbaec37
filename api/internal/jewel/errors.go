package jewel

import (
	"errors"
	"strings"
)

var (
	ErrResourceLoad = errors.New("default image unavailable")
	ErrValidation   = errors.New("invalid upload")
	ErrRead         = errors.New("image read failed")
	ErrAnalysis     = errors.New("analysis failed")
)

// User-facing messages. One of these ends up in the session error cell.
const (
	MsgDefaultImage   = "Failed to load default image"
	MsgInvalidType    = "Please upload a valid image file"
	MsgTooLarge       = "Image size should be less than 20MB"
	MsgReadFailed     = "Failed to read the image file. Please try again."
	MsgAnalyzeDefault = "Failed to analyze image. Please try again."
)

// Error carries the message shown to the user next to the wrapped cause.
type Error struct {
	Kind error
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Kind.Error() + ": " + e.Err.Error()
	}
	return e.Kind.Error() + ": " + e.Msg
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func ResourceLoadError(cause error) error {
	return &Error{Kind: ErrResourceLoad, Msg: MsgDefaultImage, Err: cause}
}

func ValidationError(msg string) error {
	return &Error{Kind: ErrValidation, Msg: msg}
}

func ReadError(cause error) error {
	return &Error{Kind: ErrRead, Msg: MsgReadFailed, Err: cause}
}

// AnalysisError surfaces the engine's own message when it has one.
func AnalysisError(cause error) error {
	msg := MsgAnalyzeDefault
	if cause != nil {
		if s := strings.TrimSpace(cause.Error()); s != "" {
			msg = s
		}
	}
	return &Error{Kind: ErrAnalysis, Msg: msg, Err: cause}
}

// UserMessage returns the single line shown for err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var je *Error
	if errors.As(err, &je) {
		return je.Msg
	}
	return err.Error()
}
