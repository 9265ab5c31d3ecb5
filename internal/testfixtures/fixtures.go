package testfixtures

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/joshua-takyi/handyhub/internal/events"
	"github.com/joshua-takyi/handyhub/internal/models"
)

var userCounter uint64

var referenceTime = time.Date(2024, time.March, 4, 9, 30, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// Logger discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewUserID returns a unique user id.
func NewUserID() string {
	return fmt.Sprintf("user-%03d", atomic.AddUint64(&userCounter, 1))
}

// SeedProvider stores a provider profile owned by a fresh user and returns both.
func SeedProvider(store *Store, pricePerHour float64) (*models.ProviderProfile, string) {
	owner := NewUserID()
	store.AddUser(models.UserSummary{ID: owner, FullName: "Provider " + owner, Email: owner + "@example.com", ProfileComplete: true})
	p := store.AddProvider(models.ProviderProfile{UserID: owner, PricePerHour: pricePerHour})
	return p, owner
}

// SeedCustomer stores a user summary for a fresh customer id.
func SeedCustomer(store *Store) string {
	id := NewUserID()
	store.AddUser(models.UserSummary{ID: id, FullName: "Customer " + id, Email: id + "@example.com", ProfileComplete: true})
	return id
}

// Delivery is one recorded dispatch.
type Delivery struct {
	UserID  string
	Event   string
	Payload any
}

// RecordingDispatcher records dispatches instead of writing to sockets.
type RecordingDispatcher struct {
	mu         sync.Mutex
	deliveries []Delivery
	// Online lists users whose dispatch reports one delivered connection.
	Online map[string]bool
}

func NewRecordingDispatcher() *RecordingDispatcher {
	return &RecordingDispatcher{Online: map[string]bool{}}
}

func (d *RecordingDispatcher) DeliverToUser(userID, event string, payload any) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.deliveries = append(d.deliveries, Delivery{UserID: userID, Event: event, Payload: payload})
	if d.Online[userID] {
		return 1
	}
	return 0
}

func (d *RecordingDispatcher) Deliveries() []Delivery {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Delivery(nil), d.deliveries...)
}

// RecordingPublisher keeps published booking events in memory.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []events.BookingEvent
	// Err, when set, is returned by every publish.
	Err error
}

func (r *RecordingPublisher) PublishBookingEvent(ctx context.Context, event events.BookingEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.events = append(r.events, event)
	return nil
}

func (r *RecordingPublisher) Close() error { return nil }

func (r *RecordingPublisher) Events() []events.BookingEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.BookingEvent(nil), r.events...)
}
