package listing

import (
	"sync"
	"time"
)

// NoticeLevel classifies a transient notice.
type NoticeLevel string

const (
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
)

const maxNotices = 20

// Notice is a transient, dismissible message for the operator.
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
	At      time.Time   `json:"at"`
}

// noticeQueue keeps the newest notices until drained.
type noticeQueue struct {
	mu    sync.Mutex
	items []Notice
}

func (q *noticeQueue) push(level NoticeLevel, message string, at time.Time) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.items = append(q.items, Notice{Level: level, Message: message, At: at})
	if over := len(q.items) - maxNotices; over > 0 {
		q.items = append([]Notice(nil), q.items[over:]...)
	}
}

func (q *noticeQueue) drain() []Notice {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := q.items
	q.items = nil
	if out == nil {
		return []Notice{}
	}
	return out
}
