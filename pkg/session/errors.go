package session

import "errors"

// Error kinds. A *Error matches its kind with errors.Is.
var (
	// ErrRequestRejected is a non-2xx response to the chat request.
	ErrRequestRejected = errors.New("request rejected")

	// ErrStreamUnavailable is a successful response without a readable body.
	ErrStreamUnavailable = errors.New("stream unavailable")

	// ErrTransport is a network or read failure, before or during streaming.
	ErrTransport = errors.New("transport error")

	// ErrServerReported is an error frame sent by the server mid-stream.
	ErrServerReported = errors.New("server reported error")

	// ErrCanceled is an exchange aborted through Cancel or the caller's
	// context.
	ErrCanceled = errors.New("canceled")
)

// Guards returned directly by SendMessage and Clear.
var (
	// ErrEmptyMessage is returned for content that is blank after trimming.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrBusy is returned while an exchange is still outstanding.
	ErrBusy = errors.New("a message is already being sent")
)

const (
	streamUnavailableMessage = "No response body"
	transportMessage         = "チャットでエラーが発生しました。"
	timeoutMessage           = "応答がタイムアウトしました。"
	canceledMessage          = "送信をキャンセルしました。"
)

// Error is the user-presentable failure of one exchange. Error returns the
// message meant for display; Kind classifies it and Cause keeps the
// underlying error for logs.
type Error struct {
	Kind    error
	Message string
	Cause   error
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches the error kind.
func (e *Error) Is(target error) bool {
	return e.Kind == target
}

func (e *Error) Unwrap() error {
	return e.Cause
}
