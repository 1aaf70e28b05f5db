package queue

import (
	"context"
	"hash/fnv"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/phonely/marketplace/internal/api/metrics"
	"github.com/phonely/marketplace/internal/core/domain"
	"github.com/phonely/marketplace/pkg/socket"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Broadcaster delivers one event to every member of a conversation room.
// Implemented by the realtime hub.
type Broadcaster interface {
	BroadcastToRoom(conversationID, event string, payload any)
}

// broadcast is one queued fanout job.
type broadcast struct {
	conversationID string
	event          string
	payload        any
}

// Dispatcher routes chat fanout jobs to a fixed set of workers using
// consistent hashing on the conversation id, guaranteeing per-conversation
// delivery ordering. It implements the chat service's Notifier port.
type Dispatcher struct {
	workers []chan broadcast
	hub     Broadcaster
	log     zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, hub Broadcaster, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan broadcast, numWorkers),
		hub:     hub,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan broadcast, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// MessageCreated fans a freshly persisted message out to its room.
func (d *Dispatcher) MessageCreated(msg *domain.Message) {
	d.enqueue(broadcast{
		conversationID: msg.ConversationID,
		event:          socket.EventNewMessage,
		payload:        msg,
	})
}

// MessagesRead relays read receipts to the room.
func (d *Dispatcher) MessagesRead(conversationID, readerID string, messageIDs []string) {
	d.enqueue(broadcast{
		conversationID: conversationID,
		event:          socket.EventMessagesRead,
		payload: socket.MessagesReadPayload{
			ConversationID: conversationID,
			ReaderID:       readerID,
			MessageIDs:     messageIDs,
		},
	})
}

// enqueue sends a job to the worker responsible for its conversation.
// Non-blocking up to channelBuffer capacity; beyond that the job is dropped
// (realtime fanout is best-effort, history lives in the database).
func (d *Dispatcher) enqueue(b broadcast) {
	idx := d.shardIndex(b.conversationID)
	select {
	case d.workers[idx] <- b:
		metrics.BroadcastQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		d.log.Warn().Str("conversation_id", b.conversationID).Str("event", b.event).Msg("broadcast queue full, dropping")
		metrics.BroadcastDroppedTotal.WithLabelValues(b.event).Inc()
	}
}

// shardIndex maps a conversation id deterministically to a worker index.
func (d *Dispatcher) shardIndex(conversationID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(conversationID))
	return int(h.Sum32()) % len(d.workers)
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan broadcast) {
	for {
		select {
		case <-ctx.Done():
			return
		case b, ok := <-ch:
			if !ok {
				return
			}
			d.hub.BroadcastToRoom(b.conversationID, b.event, b.payload)
			metrics.BroadcastQueueDepth.WithLabelValues(strconv.Itoa(id)).Set(float64(len(ch)))
		}
	}
}
