package metrics

import (
	"sync"
	"time"
)

// Metrics 记录访谈服务的累计计数，进程内有效。
type Metrics struct {
	mu                   sync.RWMutex
	sessionsCreated      int64
	interviewsStarted    int64
	interviewsCompleted  int64
	responsesSubmitted   int64
	exports              int64
	collaboratorFailures int64
	lastUpdate           time.Time
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	SessionsCreated      int64     `json:"sessionsCreated"`
	InterviewsStarted    int64     `json:"interviewsStarted"`
	InterviewsCompleted  int64     `json:"interviewsCompleted"`
	ResponsesSubmitted   int64     `json:"responsesSubmitted"`
	Exports              int64     `json:"exports"`
	CollaboratorFailures int64     `json:"collaboratorFailures"`
	LastUpdate           time.Time `json:"lastUpdate"`
}

func New() *Metrics {
	return &Metrics{lastUpdate: time.Now().UTC()}
}

func (m *Metrics) IncSessionsCreated() {
	m.inc(func(c *Metrics) *int64 { return &c.sessionsCreated })
}

func (m *Metrics) IncInterviewsStarted() {
	m.inc(func(c *Metrics) *int64 { return &c.interviewsStarted })
}

func (m *Metrics) IncInterviewsCompleted() {
	m.inc(func(c *Metrics) *int64 { return &c.interviewsCompleted })
}

func (m *Metrics) IncResponsesSubmitted() {
	m.inc(func(c *Metrics) *int64 { return &c.responsesSubmitted })
}

func (m *Metrics) IncExports() {
	m.inc(func(c *Metrics) *int64 { return &c.exports })
}

func (m *Metrics) IncCollaboratorFailures() {
	m.inc(func(c *Metrics) *int64 { return &c.collaboratorFailures })
}

// inc 在 nil 接收者上不做任何事，字段地址只在判空之后取。
func (m *Metrics) inc(counter func(*Metrics) *int64) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	*counter(m)++
	m.lastUpdate = time.Now().UTC()
}

// Snapshot 返回当前计数的副本。
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Snapshot{
		SessionsCreated:      m.sessionsCreated,
		InterviewsStarted:    m.interviewsStarted,
		InterviewsCompleted:  m.interviewsCompleted,
		ResponsesSubmitted:   m.responsesSubmitted,
		Exports:              m.exports,
		CollaboratorFailures: m.collaboratorFailures,
		LastUpdate:           m.lastUpdate,
	}
}
