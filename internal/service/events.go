package service

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/iliyamo/event-planner/internal/model"
	"github.com/iliyamo/event-planner/internal/queue"
)

// EventInput is the raw creation form.  Numbers arrive as text so that a
// malformed value is reported against its field instead of failing decoding.
type EventInput struct {
	Name           string
	Location       string
	Date           string
	Time           string
	TicketQuantity string
	TicketPrice    string
	ImageRef       string
}

// EventUpdate carries the fields an owner wants to overwrite.  Nil fields are
// left alone.  The inventory fields exist only so an attempt to change them
// is rejected with a field error.
type EventUpdate struct {
	Name           *string
	Location       *string
	Date           *string
	Time           *string
	TicketPrice    *string
	ImageRef       *string
	TicketQuantity *string
	TicketsSold    *string
	TotalTickets   *string
}

// EventService implements the event store operations.
type EventService struct {
	store EventStore
	pub   Publisher
	log   *zap.Logger
}

func NewEventService(store EventStore, pub Publisher, log *zap.Logger) *EventService {
	if pub == nil {
		pub = NopPublisher{}
	}
	return &EventService{store: store, pub: pub, log: log.Named("events")}
}

// Create validates in and stores a new event owned by the session user.
// TotalTickets starts equal to the quantity and nothing is sold yet.
func (s *EventService) Create(ctx context.Context, sess Session, in EventInput) (*model.Event, error) {
	if err := sess.require(); err != nil {
		return nil, err
	}
	fe := fieldErrors{}
	name := required(fe, "name", in.Name)
	location := required(fe, "location", in.Location)
	date := required(fe, "date", in.Date)
	tm := required(fe, "time", in.Time)
	qty := positiveInt(fe, "ticketQuantity", in.TicketQuantity)
	price := positivePrice(fe, "ticketPrice", in.TicketPrice)
	if err := fe.err(); err != nil {
		return nil, err
	}

	e := &model.Event{
		OwnerID:          sess.UserID,
		Name:             name,
		Location:         location,
		Date:             date,
		Time:             tm,
		TicketQuantity:   qty,
		TicketsSold:      0,
		TotalTickets:     qty,
		TicketPriceCents: price,
	}
	if ref := strings.TrimSpace(in.ImageRef); ref != "" {
		e.ImageRef.String, e.ImageRef.Valid = ref, true
	}
	if err := s.store.Create(ctx, e); err != nil {
		return nil, classify("create event", err)
	}
	s.log.Info("event created", zap.String("event_id", e.ID), zap.Uint64("owner_id", e.OwnerID),
		zap.Int("total_tickets", e.TotalTickets))
	return e, nil
}

// Get returns one event.
func (s *EventService) Get(ctx context.Context, id string) (*model.Event, error) {
	e, err := s.store.GetByID(ctx, id)
	return e, classify("get event", err)
}

// List returns all events, or only those of ownerID when non-nil.
func (s *EventService) List(ctx context.Context, ownerID *uint64) ([]model.Event, error) {
	events, err := s.store.List(ctx, ownerID)
	if err != nil {
		return nil, classify("list events", err)
	}
	return events, nil
}

// Calendar lists events grouped by date.
func (s *EventService) Calendar(ctx context.Context, ownerID *uint64) ([]model.CalendarDay, error) {
	events, err := s.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return GroupByDate(events), nil
}

// Update overwrites the provided fields of an event the session owns.
// TotalTickets is never re-derived and the counters cannot be edited.
func (s *EventService) Update(ctx context.Context, sess Session, id string, in EventUpdate) (*model.Event, error) {
	if err := sess.require(); err != nil {
		return nil, err
	}
	fe := fieldErrors{}
	var p model.EventPatch
	p.Name = optionalRequired(fe, "name", in.Name)
	p.Location = optionalRequired(fe, "location", in.Location)
	p.Date = optionalRequired(fe, "date", in.Date)
	p.Time = optionalRequired(fe, "time", in.Time)
	if in.TicketPrice != nil {
		if c := positivePrice(fe, "ticketPrice", *in.TicketPrice); c > 0 {
			p.TicketPriceCents = &c
		}
	}
	if in.ImageRef != nil {
		ref := strings.TrimSpace(*in.ImageRef)
		p.ImageRef = &ref
	}
	for field, v := range map[string]*string{
		"ticketQuantity": in.TicketQuantity,
		"ticketsSold":    in.TicketsSold,
		"totalTickets":   in.TotalTickets,
	} {
		if v != nil {
			fe.add(field, "changes only through ticket purchases and attendee removal")
		}
	}
	if err := fe.err(); err != nil {
		return nil, err
	}
	if p.Empty() {
		return nil, &ValidationError{Fields: map[string]string{"body": "no fields to update"}}
	}
	e, err := s.store.UpdateByIDAndOwner(ctx, id, sess.UserID, p)
	if err != nil {
		return nil, classify("update event", err)
	}
	return e, nil
}

// SetImage stores the URL of an uploaded image on an event the session owns.
func (s *EventService) SetImage(ctx context.Context, sess Session, id, url string) (*model.Event, error) {
	if err := sess.require(); err != nil {
		return nil, err
	}
	e, err := s.store.UpdateByIDAndOwner(ctx, id, sess.UserID, model.EventPatch{ImageRef: &url})
	if err != nil {
		return nil, classify("set event image", err)
	}
	return e, nil
}

// Delete removes an event the session owns together with its ledger.
func (s *EventService) Delete(ctx context.Context, sess Session, id string) error {
	if err := sess.require(); err != nil {
		return err
	}
	e, err := s.store.GetByID(ctx, id)
	if err != nil {
		return classify("delete event", err)
	}
	dropped, err := s.store.DeleteByIDAndOwner(ctx, id, sess.UserID)
	if err != nil {
		return classify("delete event", err)
	}
	s.log.Info("event deleted", zap.String("event_id", id), zap.Int("attendees_dropped", dropped))
	s.publish(ctx, queue.EventDeletedQueue, queue.EventDeletedEvent{
		EventID:          id,
		EventName:        e.Name,
		OwnerID:          sess.UserID,
		AttendeesDropped: dropped,
		DeletedAt:        time.Now().UTC().Format(time.RFC3339),
	})
	return nil
}

func (s *EventService) publish(ctx context.Context, key string, payload any) {
	if err := s.pub.Publish(ctx, key, payload); err != nil {
		s.log.Warn("publish failed", zap.String("queue", key), zap.Error(err))
	}
}

func required(fe fieldErrors, field, v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		fe.add(field, "is required")
	}
	return v
}

func optionalRequired(fe fieldErrors, field string, v *string) *string {
	if v == nil {
		return nil
	}
	t := required(fe, field, *v)
	return &t
}

// Upper bounds for numeric input.  Ticket counts must fit the INT UNSIGNED
// columns; a price times the largest inventory must fit in int64 cents so
// revenue can never overflow.
const (
	MaxTickets    = math.MaxUint32
	MaxPriceCents = math.MaxInt64 / MaxTickets
)

func positiveInt(fe fieldErrors, field, v string) int {
	v = strings.TrimSpace(v)
	if v == "" {
		fe.add(field, "is required")
		return 0
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if (errors.Is(err, strconv.ErrRange) && n > 0) || (err == nil && n > MaxTickets) {
		fe.add(field, "must be at most "+strconv.FormatInt(MaxTickets, 10))
		return 0
	}
	if err != nil || n <= 0 {
		fe.add(field, "must be a positive whole number")
		return 0
	}
	return int(n)
}

// positivePrice parses a decimal amount and returns it in cents.
func positivePrice(fe fieldErrors, field, v string) int64 {
	v = strings.TrimSpace(v)
	if v == "" {
		fe.add(field, "is required")
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		fe.add(field, "must be a positive number")
		return 0
	}
	if math.Round(f*100) > MaxPriceCents {
		fe.add(field, "must be at most "+strconv.FormatFloat(float64(MaxPriceCents)/100, 'f', 2, 64))
		return 0
	}
	cents := int64(math.Round(f * 100))
	if cents <= 0 {
		fe.add(field, "must be at least 0.01")
		return 0
	}
	return cents
}
