package testfixtures

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/joshua-takyi/handyhub/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store is an in-memory stand-in for the Mongo repositories. Conditional updates are
// applied under a single lock so they behave like findOneAndUpdate.
type Store struct {
	mu            sync.Mutex
	seq           int64
	bookings      map[primitive.ObjectID]*models.Booking
	messages      []*storedMessage
	notifications []*storedNotification
	providers     map[primitive.ObjectID]*models.ProviderProfile
	users         map[string]*models.UserSummary

	// FailNotifications, when set, is returned by CreateNotification.
	FailNotifications error
	// FailUsers, when set, is returned by GetUserSummaries.
	FailUsers error
	// FailRatings, when set, is returned by AddProviderRating.
	FailRatings error
}

type storedMessage struct {
	seq int64
	msg models.Message
}

type storedNotification struct {
	seq int64
	n   models.Notification
}

func NewStore() *Store {
	return &Store{
		bookings:  map[primitive.ObjectID]*models.Booking{},
		providers: map[primitive.ObjectID]*models.ProviderProfile{},
		users:     map[string]*models.UserSummary{},
	}
}

func (s *Store) nextSeq() int64 {
	s.seq++
	return s.seq
}

// ----------------------------- providers & users -----------------------------

func (s *Store) AddProvider(p models.ProviderProfile) *models.ProviderProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	s.providers[p.ID] = &p
	cp := p
	return &cp
}

func (s *Store) AddUser(u models.UserSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = &u
}

func (s *Store) GetProviderByID(ctx context.Context, id primitive.ObjectID) (*models.ProviderProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.providers[id]
	if !ok {
		return nil, models.ErrProviderNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *Store) GetProviderByUserID(ctx context.Context, userID string) (*models.ProviderProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.providers {
		if p.UserID == userID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, models.ErrProviderNotFound
}

func (s *Store) AddProviderRating(ctx context.Context, id primitive.ObjectID, rating int) (*models.ProviderProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailRatings != nil {
		return nil, s.FailRatings
	}
	p, ok := s.providers[id]
	if !ok {
		return nil, models.ErrProviderNotFound
	}
	p.Rating = models.NextRating(p.Rating, p.RatingCount, rating)
	p.RatingCount++
	cp := *p
	return &cp, nil
}

func (s *Store) GetUserSummaries(ctx context.Context, ids []string) (map[string]*models.UserSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailUsers != nil {
		return nil, s.FailUsers
	}
	out := map[string]*models.UserSummary{}
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			cp := *u
			out[id] = &cp
		}
	}
	return out, nil
}

// ----------------------------- bookings -----------------------------

func (s *Store) CreateBooking(ctx context.Context, b *models.Booking) (*models.Booking, error) {
	if err := b.BeforeCreate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	// keep newest-first ordering stable when timestamps collide
	b.CreatedAt = b.CreatedAt.Add(time.Duration(s.nextSeq()))
	b.UpdatedAt = b.CreatedAt
	cp := *b
	s.bookings[b.ID] = &cp
	return b, nil
}

func (s *Store) GetBookingByID(ctx context.Context, id primitive.ObjectID) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, models.ErrBookingNotFound
	}
	return copyBooking(b), nil
}

func (s *Store) ListBookingsByCustomer(ctx context.Context, customerID string, page models.Pagination) ([]*models.Booking, int64, error) {
	return s.listBookings(func(b *models.Booking) bool { return b.CustomerID == customerID }, page)
}

func (s *Store) ListBookingsByProvider(ctx context.Context, providerID primitive.ObjectID, page models.Pagination) ([]*models.Booking, int64, error) {
	return s.listBookings(func(b *models.Booking) bool { return b.ProviderID == providerID }, page)
}

func (s *Store) listBookings(match func(*models.Booking) bool, page models.Pagination) ([]*models.Booking, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []*models.Booking
	for _, b := range s.bookings {
		if match(b) {
			all = append(all, copyBooking(b))
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return pageOf(all, page), int64(len(all)), nil
}

func (s *Store) TransitionBooking(ctx context.Context, id, providerID primitive.ObjectID, from []models.BookingStatus, to models.BookingStatus) (*models.Booking, error) {
	return s.updateBooking(id, func(b *models.Booking) bool {
		if b.ProviderID != providerID || !containsStatus(from, b.Status) {
			return false
		}
		b.Status = to
		return true
	})
}

func (s *Store) CancelBooking(ctx context.Context, id primitive.ObjectID, customerID string) (*models.Booking, error) {
	return s.updateBooking(id, func(b *models.Booking) bool {
		if b.CustomerID != customerID || b.Status != models.StatusPending {
			return false
		}
		b.Status = models.StatusCancelled
		return true
	})
}

func (s *Store) RateBooking(ctx context.Context, id primitive.ObjectID, customerID string, rating int) (*models.Booking, error) {
	return s.updateBooking(id, func(b *models.Booking) bool {
		if b.CustomerID != customerID || b.Status != models.StatusCompleted || b.Rating != nil {
			return false
		}
		r := rating
		b.Rating = &r
		return true
	})
}

func (s *Store) updateBooking(id primitive.ObjectID, apply func(*models.Booking) bool) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok || !apply(b) {
		return nil, nil
	}
	b.UpdatedAt = time.Now().UTC()
	return copyBooking(b), nil
}

func copyBooking(b *models.Booking) *models.Booking {
	cp := *b
	if b.Rating != nil {
		r := *b.Rating
		cp.Rating = &r
	}
	return &cp
}

func containsStatus(list []models.BookingStatus, s models.BookingStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// ----------------------------- messages -----------------------------

func (s *Store) CreateMessage(ctx context.Context, msg *models.Message) (*models.Message, error) {
	if err := msg.BeforeCreate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, &storedMessage{seq: s.nextSeq(), msg: *msg})
	return msg, nil
}

func (s *Store) ListMessagesByBooking(ctx context.Context, bookingID primitive.ObjectID, page models.Pagination) ([]*models.Message, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var newest []*models.Message
	for i := len(s.messages) - 1; i >= 0; i-- {
		if s.messages[i].msg.BookingID == bookingID {
			cp := s.messages[i].msg
			newest = append(newest, &cp)
		}
	}
	out := pageOf(newest, page)
	models.ReverseMessages(out)
	return out, int64(len(newest)), nil
}

func (s *Store) MarkMessagesRead(ctx context.Context, bookingID primitive.ObjectID, readerID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, m := range s.messages {
		if m.msg.BookingID == bookingID && m.msg.SenderID != readerID && !m.msg.IsRead {
			m.msg.IsRead = true
			n++
		}
	}
	return n, nil
}

func (s *Store) CountUnreadMessages(ctx context.Context, bookingID primitive.ObjectID, readerID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, m := range s.messages {
		if m.msg.BookingID == bookingID && m.msg.SenderID != readerID && !m.msg.IsRead {
			n++
		}
	}
	return n, nil
}

// Messages returns every stored message for a booking in insertion order.
func (s *Store) Messages(bookingID primitive.ObjectID) []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Message
	for _, m := range s.messages {
		if m.msg.BookingID == bookingID {
			out = append(out, m.msg)
		}
	}
	return out
}

// ----------------------------- notifications -----------------------------

func (s *Store) CreateNotification(ctx context.Context, n *models.Notification) (*models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailNotifications != nil {
		return nil, s.FailNotifications
	}
	if err := n.BeforeCreate(); err != nil {
		return nil, err
	}
	s.notifications = append(s.notifications, &storedNotification{seq: s.nextSeq(), n: *n})
	return n, nil
}

func (s *Store) ListNotificationsByRecipient(ctx context.Context, recipientID string, page models.Pagination) ([]*models.Notification, int64, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var newest []*models.Notification
	var unread int64
	for i := len(s.notifications) - 1; i >= 0; i-- {
		n := s.notifications[i].n
		if n.RecipientID != recipientID {
			continue
		}
		if !n.IsRead {
			unread++
		}
		newest = append(newest, &n)
	}
	return pageOf(newest, page), int64(len(newest)), unread, nil
}

func (s *Store) MarkAllNotificationsRead(ctx context.Context, recipientID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, sn := range s.notifications {
		if sn.n.RecipientID == recipientID && !sn.n.IsRead {
			sn.n.IsRead = true
			count++
		}
	}
	return count, nil
}

func (s *Store) MarkNotificationRead(ctx context.Context, id primitive.ObjectID, recipientID string) (*models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sn := range s.notifications {
		if sn.n.ID == id && sn.n.RecipientID == recipientID {
			sn.n.IsRead = true
			cp := sn.n
			return &cp, nil
		}
	}
	return nil, nil
}

// Notifications returns every stored notification for a recipient in insertion order.
func (s *Store) Notifications(recipientID string) []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Notification
	for _, sn := range s.notifications {
		if sn.n.RecipientID == recipientID {
			out = append(out, sn.n)
		}
	}
	return out
}

func pageOf[T any](items []T, page models.Pagination) []T {
	start := int(page.Skip())
	if start >= len(items) {
		return []T{}
	}
	end := start + page.Size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
