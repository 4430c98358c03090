package queue

import (
	"fmt"
	"log"
	"sync"
)

// CampaignSendsQueue is the queue campaign send jobs travel on.
const CampaignSendsQueue = "campaign_sends"

// CampaignJob is the payload for one campaign send job.
type CampaignJob struct {
	CampaignID int `json:"campaign_id"`
}

// Queue interface
type Queue interface {
	Publish(topic string, payload any) error
	Subscribe(topic string, handler func(payload any) error) error
}

// InMemoryQueue backs tests and single-process deployments.
type InMemoryQueue struct {
	mu       sync.Mutex
	handlers map[string][]func(payload any) error
	wg       sync.WaitGroup
}

// NewInMemoryQueue creates a new queue
func NewInMemoryQueue() *InMemoryQueue {
	return &InMemoryQueue{
		handlers: make(map[string][]func(payload any) error),
	}
}

// Publish sends a message to all subscribers. Each handler runs once;
// like the AMQP consumer, a failed job is never replayed. Failed
// campaigns are retried explicitly through the retry-errors endpoint.
func (q *InMemoryQueue) Publish(topic string, payload any) error {
	q.mu.Lock()
	handlers := q.handlers[topic]
	q.mu.Unlock()

	if len(handlers) == 0 {
		return fmt.Errorf("no subscribers for topic %s", topic)
	}

	for _, handler := range handlers {
		q.wg.Add(1)
		go func(handler func(payload any) error) {
			defer q.wg.Done()
			if err := handler(payload); err != nil {
				log.Printf("job failed: %+v, error: %v\n", payload, err)
			}
		}(handler)
	}

	return nil
}

// Subscribe adds a handler for a topic
func (q *InMemoryQueue) Subscribe(topic string, handler func(payload any) error) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.handlers[topic] = append(q.handlers[topic], handler)
	return nil
}

// Wait blocks until all in-flight jobs finish. Used by tests and the
// single-process server on shutdown.
func (q *InMemoryQueue) Wait() {
	q.wg.Wait()
}
