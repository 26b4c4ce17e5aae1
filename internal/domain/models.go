package domain

import "time"

// Record is a single catalog entry as the quiz sees it.
type Record struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Sprite string `json:"sprite,omitempty"`
	// Placeholder marks a record synthesized after every fetch attempt failed.
	Placeholder bool `json:"placeholder,omitempty"`
}

// Region is a named, inclusive id range. Synthetic regions have zero bounds.
type Region struct {
	Key       string `json:"key"`
	Name      string `json:"name"`
	Start     int    `json:"start,omitempty"`
	End       int    `json:"end,omitempty"`
	Synthetic bool   `json:"synthetic,omitempty"`
}

// Size returns the number of ids in a contiguous region.
func (r Region) Size() int {
	if r.Synthetic || r.End < r.Start {
		return 0
	}
	return r.End - r.Start + 1
}

// Verdict is the outcome of judging a single guess.
type Verdict string

const (
	VerdictCleared   Verdict = "cleared"
	VerdictCorrect   Verdict = "correct"
	VerdictIncorrect Verdict = "incorrect"
)

// SessionState is the lifecycle position of a quiz session.
type SessionState string

const (
	StateIdle     SessionState = "idle"
	StateLoading  SessionState = "loading"
	StateReady    SessionState = "ready"
	StateComplete SessionState = "complete"
	StateError    SessionState = "error"
)

// Progress is the running score of a session.
type Progress struct {
	Score   int `json:"score"`
	Total   int `json:"total"`
	Percent int `json:"percent"`
}

// NewProgress computes the rounded percentage for score out of total.
func NewProgress(score, total int) Progress {
	p := Progress{Score: score, Total: total}
	if total > 0 {
		p.Percent = (score*100 + total/2) / total
	}
	return p
}

// SlotView is what the presentation layer may know about a slot.
// Name stays empty until the slot has been guessed.
type SlotView struct {
	Index   int    `json:"index"`
	ID      int    `json:"id"`
	Sprite  string `json:"sprite,omitempty"`
	Guessed bool   `json:"guessed"`
	Name    string `json:"name,omitempty"`
}

// Snapshot is a point-in-time copy of a session.
type Snapshot struct {
	SessionID  string       `json:"sessionId"`
	Region     string       `json:"region,omitempty"`
	RegionName string       `json:"regionName,omitempty"`
	State      SessionState `json:"state"`
	Slots      []SlotView   `json:"slots"`
	Progress   Progress     `json:"progress"`
	UpdatedAt  time.Time    `json:"updatedAt"`
}

// SessionStatus is the compact form of a snapshot kept by session stores.
type SessionStatus struct {
	Region   string       `json:"region"`
	State    SessionState `json:"state"`
	Progress Progress     `json:"progress"`
}

// GuessResult summarizes a guess submission.
type GuessResult struct {
	Slot     int      `json:"slot"`
	Verdict  Verdict  `json:"verdict"`
	Name     string   `json:"name,omitempty"`
	Progress Progress `json:"progress"`
	Complete bool     `json:"complete"`
}

// BatchProgress reports how far a region load has come.
type BatchProgress struct {
	Batch     int `json:"batch"`
	Batches   int `json:"batches"`
	Loaded    int `json:"loaded"`
	Requested int `json:"requested"`
}

// Completion is carried by the end-of-session notification.
type Completion struct {
	Region     string `json:"region"`
	RegionName string `json:"regionName"`
	Score      int    `json:"score"`
	Total      int    `json:"total"`
}

// EventType names a session event.
type EventType string

const (
	EventLoading  EventType = "loading"
	EventBatch    EventType = "batch"
	EventReady    EventType = "ready"
	EventScore    EventType = "score"
	EventComplete EventType = "complete"
	EventFailed   EventType = "error"
)

// Event is pushed to session subscribers on every state transition.
type Event struct {
	Type       EventType      `json:"type"`
	SessionID  string         `json:"sessionId"`
	Generation uint64         `json:"generation"`
	Snapshot   *Snapshot      `json:"snapshot,omitempty"`
	Batch      *BatchProgress `json:"batch,omitempty"`
	Progress   *Progress      `json:"progress,omitempty"`
	Completion *Completion    `json:"completion,omitempty"`
	Message    string         `json:"message,omitempty"`
}
