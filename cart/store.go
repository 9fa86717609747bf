// Package cart holds the cart aggregate and renders checkout messages.
package cart

import (
	"strings"
	"time"

	"menu-service/models"
)

// Candidate is an item offered to the cart. ID may be left empty, in which
// case it is derived from Name and SelectedOption.
type Candidate struct {
	ID             string
	Name           string
	Price          float64
	Image          string
	SelectedOption *models.SelectedOption
	Notes          string
}

// EventKind names the mutation that triggered an Event.
type EventKind string

const (
	EventAdded      EventKind = "added"
	EventRemoved    EventKind = "removed"
	EventQuantity   EventKind = "quantity"
	EventNotes      EventKind = "notes"
	EventCleared    EventKind = "cleared"
	EventVisibility EventKind = "visibility"
)

type Event struct {
	Kind   EventKind
	LineID string
}

// Store is the cart aggregate: ordered lines plus a visibility flag.
// Totals are always derived from the lines. A Store is not safe for
// concurrent use.
type Store struct {
	lines     []models.CartItem
	open      bool
	observers map[int]func(Event)
	nextObs   int
}

func NewStore() *Store {
	return &Store{}
}

// LineID is the merge key for a cart line.
func LineID(name string, option *models.SelectedOption) string {
	if option != nil && option.Name != "" {
		return name + "-" + option.Name
	}
	return name
}

// AddItem increments the matching line, or appends a new line with
// quantity 1.
func (s *Store) AddItem(c Candidate) string {
	id := c.ID
	if id == "" {
		id = LineID(c.Name, c.SelectedOption)
	}

	if i := s.index(id); i >= 0 {
		s.SetQuantity(id, s.lines[i].Quantity+1)
		return id
	}

	line := models.CartItem{
		ID:       id,
		Name:     c.Name,
		Price:    c.Price,
		Image:    c.Image,
		Quantity: 1,
		Notes:    c.Notes,
	}
	if c.SelectedOption != nil {
		opt := *c.SelectedOption
		line.SelectedOption = &opt
	}
	s.lines = append(s.lines, line)
	s.emit(Event{Kind: EventAdded, LineID: id})
	return id
}

// RemoveItem deletes the matching line. Removing an absent line is a no-op.
func (s *Store) RemoveItem(id string) {
	i := s.index(id)
	if i < 0 {
		return
	}
	s.lines = append(s.lines[:i], s.lines[i+1:]...)
	s.emit(Event{Kind: EventRemoved, LineID: id})
}

// SetQuantity overwrites a line's quantity; zero or less removes the line.
func (s *Store) SetQuantity(id string, quantity int) {
	if quantity <= 0 {
		s.RemoveItem(id)
		return
	}
	i := s.index(id)
	if i < 0 {
		return
	}
	s.lines[i].Quantity = quantity
	s.emit(Event{Kind: EventQuantity, LineID: id})
}

func (s *Store) SetNotes(id, text string) {
	i := s.index(id)
	if i < 0 {
		return
	}
	s.lines[i].Notes = text
	s.emit(Event{Kind: EventNotes, LineID: id})
}

func (s *Store) Clear() {
	s.lines = nil
	s.emit(Event{Kind: EventCleared})
}

func (s *Store) TotalPrice() float64 {
	var total float64
	for _, l := range s.lines {
		total += l.Price * float64(l.Quantity)
	}
	return total
}

func (s *Store) TotalItemCount() int {
	var n int
	for _, l := range s.lines {
		n += l.Quantity
	}
	return n
}

func (s *Store) Open()  { s.setOpen(true) }
func (s *Store) Close() { s.setOpen(false) }

func (s *Store) Toggle() { s.setOpen(!s.open) }

func (s *Store) IsOpen() bool { return s.open }

func (s *Store) setOpen(open bool) {
	s.open = open
	s.emit(Event{Kind: EventVisibility})
}

// Items returns a copy of the lines in insertion order.
func (s *Store) Items() []models.CartItem {
	out := make([]models.CartItem, len(s.lines))
	for i, l := range s.lines {
		if l.SelectedOption != nil {
			opt := *l.SelectedOption
			l.SelectedOption = &opt
		}
		out[i] = l
	}
	return out
}

// Item returns a copy of one line.
func (s *Store) Item(id string) (models.CartItem, bool) {
	i := s.index(id)
	if i < 0 {
		return models.CartItem{}, false
	}
	return s.Items()[i], true
}

func (s *Store) Len() int { return len(s.lines) }

func (s *Store) IsEmpty() bool { return len(s.lines) == 0 }

// Snapshot captures the cart for persistence.
func (s *Store) Snapshot(sessionID string) models.Cart {
	return models.Cart{
		SessionID: sessionID,
		Items:     s.Items(),
		IsOpen:    s.open,
		UpdatedAt: time.Now(),
	}
}

// Restore rebuilds a Store from a snapshot. Lines with a non-positive
// quantity or no id are dropped.
func Restore(snapshot *models.Cart) *Store {
	s := NewStore()
	if snapshot == nil {
		return s
	}
	s.open = snapshot.IsOpen
	for _, l := range snapshot.Items {
		if l.Quantity <= 0 || strings.TrimSpace(l.ID) == "" {
			continue
		}
		if s.index(l.ID) >= 0 {
			continue
		}
		s.lines = append(s.lines, l)
	}
	return s
}

// Subscribe registers fn to run after every mutation. The returned func
// removes the subscription.
func (s *Store) Subscribe(fn func(Event)) (cancel func()) {
	if s.observers == nil {
		s.observers = make(map[int]func(Event))
	}
	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn
	return func() { delete(s.observers, id) }
}

func (s *Store) emit(e Event) {
	for _, fn := range s.observers {
		fn(e)
	}
}

func (s *Store) index(id string) int {
	for i := range s.lines {
		if s.lines[i].ID == id {
			return i
		}
	}
	return -1
}
