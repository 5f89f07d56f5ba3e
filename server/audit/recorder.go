// Package audit appends session events to a JSON array file. The database
// core never reads it back.
package audit

import (
	"os"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/juju/errors"

	"github.com/zhukovaskychina/xflatdb/logger"
	"github.com/zhukovaskychina/xflatdb/util"
)

const (
	EventSessionOpen  = "SESSION_OPEN"
	EventSessionClose = "SESSION_CLOSE"
)

const timestampLayout = "2006-01-02T15:04:05.000"

// Entry is one audit record.
type Entry struct {
	Timestamp string `json:"timestamp"`
	UserID    string `json:"userId"`
	Event     string `json:"event"`
	IPAddress string `json:"ipAddress"`
}

// Recorder rewrites the audit file with each new entry appended.
type Recorder struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

func NewRecorder(path string) *Recorder {
	return &Recorder{path: path, now: time.Now}
}

// Record appends one event.
func (r *Recorder) Record(userID, event, ipAddress string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := r.load()
	if err != nil {
		return errors.Trace(err)
	}
	entries = append(entries, Entry{
		Timestamp: r.now().Format(timestampLayout),
		UserID:    userID,
		Event:     event,
		IPAddress: ipAddress,
	})
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return errors.Annotate(err, "encode audit log")
	}
	if err := util.WriteFileAtomic(r.path, data); err != nil {
		return errors.Annotatef(err, "write audit log %s", r.path)
	}
	logger.Debugf("audit %s for %s", event, userID)
	return nil
}

// Load returns every recorded entry. A missing or empty file has none.
func (r *Recorder) Load() ([]Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load()
}

func (r *Recorder) load() ([]Entry, error) {
	data, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return []Entry{}, nil
	}
	if err != nil {
		return nil, errors.Annotatef(err, "read audit log %s", r.path)
	}
	entries := []Entry{}
	if len(data) == 0 {
		return entries, nil
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, errors.Annotatef(err, "decode audit log %s", r.path)
	}
	return entries, nil
}
