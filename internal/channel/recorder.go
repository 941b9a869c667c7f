package channel

import (
	"context"
	"slices"
	"sync"
)

// Op names a Recorder call.
type Op string

const (
	OpSendText Op = "send_text"
	OpEditText Op = "edit_text"
	OpDelete   Op = "delete"
	OpPhoto    Op = "photo"
	OpAudio    Op = "audio"
	OpVideo    Op = "video"
)

// Call is one recorded Channel call.
type Call struct {
	Op        Op
	ChatID    int64
	MessageID int
	Text      string
	Path      string
	Upload    Upload
}

// Recorder is an in-memory Channel for tests. Set an Err* field to make that call fail.
type Recorder struct {
	ErrSendText error
	ErrEditText error
	ErrDelete   error
	ErrPhoto    error
	ErrUpload   error

	// OnUpload, when set, runs before an upload is recorded, e.g. to inspect files on disk.
	OnUpload func(Upload)

	mu     sync.Mutex
	nextID int
	calls  []Call
}

func (r *Recorder) record(c Call) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls = append(r.calls, c)
}

// Calls returns a copy of the recorded calls.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()

	return slices.Clone(r.calls)
}

// Texts returns the text of every SendText call in order.
func (r *Recorder) Texts() []string {
	var out []string

	for _, c := range r.Calls() {
		if c.Op == OpSendText {
			out = append(out, c.Text)
		}
	}

	return out
}

// Count returns how many calls of op were recorded.
func (r *Recorder) Count(op Op) int {
	n := 0

	for _, c := range r.Calls() {
		if c.Op == op {
			n++
		}
	}

	return n
}

func (r *Recorder) SendText(_ context.Context, chatID int64, text string) (int, error) {
	if r.ErrSendText != nil {
		return 0, r.ErrSendText
	}

	r.mu.Lock()
	r.nextID++
	id := r.nextID
	r.mu.Unlock()

	r.record(Call{Op: OpSendText, ChatID: chatID, MessageID: id, Text: text})

	return id, nil
}

func (r *Recorder) EditText(_ context.Context, chatID int64, messageID int, text string) error {
	if r.ErrEditText != nil {
		return r.ErrEditText
	}

	r.record(Call{Op: OpEditText, ChatID: chatID, MessageID: messageID, Text: text})

	return nil
}

func (r *Recorder) DeleteMessage(_ context.Context, chatID int64, messageID int) error {
	if r.ErrDelete != nil {
		return r.ErrDelete
	}

	r.record(Call{Op: OpDelete, ChatID: chatID, MessageID: messageID})

	return nil
}

func (r *Recorder) SendPhoto(_ context.Context, chatID int64, path, caption string) error {
	if r.ErrPhoto != nil {
		return r.ErrPhoto
	}

	r.record(Call{Op: OpPhoto, ChatID: chatID, Path: path, Text: caption})

	return nil
}

func (r *Recorder) SendAudio(_ context.Context, chatID int64, upload AudioUpload) error {
	return r.upload(OpAudio, chatID, upload)
}

func (r *Recorder) SendVideo(_ context.Context, chatID int64, upload VideoUpload) error {
	return r.upload(OpVideo, chatID, upload)
}

func (r *Recorder) upload(op Op, chatID int64, upload Upload) error {
	if r.OnUpload != nil {
		r.OnUpload(upload)
	}

	if r.ErrUpload != nil {
		return r.ErrUpload
	}

	r.record(Call{Op: op, ChatID: chatID, Path: upload.File(), Upload: upload})

	return nil
}
