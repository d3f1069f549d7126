// internal/assessment/notify/dispatcher.go
package notify

import (
	"context"
	"sync"
	"time"

	"print-advisor/internal/common/logger"
	"print-advisor/internal/common/metrics"
	"print-advisor/internal/models"
)

// Message is one completed submission handed to the notification pipeline.
type Message struct {
	SessionID   string                  `json:"sessionId"`
	SubmittedAt time.Time               `json:"submittedAt"`
	Draft       *models.AssessmentDraft `json:"draft"`
	Result      *models.AnalysisResult  `json:"result"`
}

// Sink is one best-effort delivery target. Failures are logged and counted,
// never retried here and never surfaced to the submitting user.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, msg *Message) error
}

// Notifier accepts submissions for asynchronous delivery.
type Notifier interface {
	Enqueue(msg *Message) bool
}

// Dispatcher fans each message out to all configured sinks from a single
// worker goroutine. Enqueue never blocks: when the queue is full the message
// is dropped and counted.
type Dispatcher struct {
	sinks          []Sink
	queue          chan *Message
	logger         logger.Logger
	deliverTimeout time.Duration

	startOnce sync.Once
	stopOnce  sync.Once
	done      chan struct{}
	wg        sync.WaitGroup
}

func NewDispatcher(queueSize int, sinks []Sink, log logger.Logger) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 64
	}
	return &Dispatcher{
		sinks:          sinks,
		queue:          make(chan *Message, queueSize),
		logger:         log.WithFields(map[string]interface{}{"component": "notify-dispatcher"}),
		deliverTimeout: 10 * time.Second,
		done:           make(chan struct{}),
	}
}

// Start launches the worker goroutine. Safe to call once.
func (d *Dispatcher) Start() {
	d.startOnce.Do(func() {
		d.wg.Add(1)
		go d.run()
	})
}

// Stop drains nothing: in-flight delivery finishes, queued messages are
// dropped. Notification is best-effort by contract.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		close(d.done)
		d.wg.Wait()
	})
}

// Enqueue hands a message to the worker. Returns false when the queue is full
// or the dispatcher is stopped; the caller must not treat that as an error.
func (d *Dispatcher) Enqueue(msg *Message) bool {
	if msg == nil {
		return false
	}
	select {
	case <-d.done:
		return false
	default:
	}
	select {
	case d.queue <- msg:
		return true
	default:
		metrics.NotificationsFailed.WithLabelValues("queue").Inc()
		d.logger.Warn("notification queue full, dropping message", map[string]interface{}{
			"sessionId": msg.SessionID,
		})
		return false
	}
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for {
		select {
		case <-d.done:
			return
		case msg := <-d.queue:
			d.dispatch(msg)
		}
	}
}

func (d *Dispatcher) dispatch(msg *Message) {
	ctx, cancel := context.WithTimeout(context.Background(), d.deliverTimeout)
	defer cancel()

	for _, sink := range d.sinks {
		if err := sink.Deliver(ctx, msg); err != nil {
			metrics.NotificationsFailed.WithLabelValues(sink.Name()).Inc()
			d.logger.Warn("notification sink failed", map[string]interface{}{
				"sink":      sink.Name(),
				"sessionId": msg.SessionID,
				"error":     err.Error(),
			})
			continue
		}
		d.logger.Debug("notification delivered", map[string]interface{}{
			"sink":      sink.Name(),
			"sessionId": msg.SessionID,
		})
	}
}
