// Package cart implements the per-session cart ledger: one line per catalog
// item, kept in insertion order.
package cart

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/Veraticus/frappe-till/internal/model"
	"github.com/google/uuid"
)

// Cart errors. Each signals caller misuse, not an environmental failure.
var (
	ErrLineNotFound    = errors.New("item not in cart")
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrNoIdentity      = errors.New("item has no identity")
)

// EventKind describes a cart mutation.
type EventKind string

// Event kinds.
const (
	EventAdded   EventKind = "added"
	EventUpdated EventKind = "updated"
	EventRemoved EventKind = "removed"
	EventCleared EventKind = "cleared"
)

// Event is delivered to subscribers after every mutation.
type Event struct {
	Kind   EventKind
	ItemID string
}

// Cart is the ledger for one checkout session. It is safe for concurrent use.
type Cart struct {
	subscribers map[int]func(Event)
	lines       []model.CartLine
	id          uuid.UUID
	nextSub     int
	mu          sync.Mutex
}

// New creates an empty cart with a fresh session ID.
func New() *Cart {
	return &Cart{
		id:          uuid.New(),
		subscribers: make(map[int]func(Event)),
	}
}

// ID returns the cart's session identifier.
func (c *Cart) ID() uuid.UUID {
	return c.id
}

// Subscribe registers fn to be called after each mutation, outside the
// cart's lock. The returned func unsubscribes.
func (c *Cart) Subscribe(fn func(Event)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSub
	c.nextSub++
	c.subscribers[id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subscribers, id)
	}
}

// Add merges quantity of item into the cart at the item's default price.
func (c *Cart) Add(item model.CatalogItem, quantity float64) error {
	return c.add(item, quantity, item.DefaultPrice())
}

// AddPriced merges quantity of item into the cart. unitPrice applies only when
// a new line is created; an existing line keeps the price it was created with.
func (c *Cart) AddPriced(item model.CatalogItem, quantity, unitPrice float64) error {
	return c.add(item, quantity, unitPrice)
}

func (c *Cart) add(item model.CatalogItem, quantity, unitPrice float64) error {
	if item.ID == "" {
		return ErrNoIdentity
	}
	if quantity <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidQuantity, quantity)
	}

	c.mu.Lock()
	kind := EventUpdated
	if i := c.indexOf(item.ID); i >= 0 {
		c.lines[i].Quantity += quantity
	} else {
		kind = EventAdded
		c.lines = append(c.lines, model.CartLine{
			Item:      item,
			Quantity:  quantity,
			UnitPrice: unitPrice,
		})
	}
	subs := c.snapshotSubscribers()
	c.mu.Unlock()

	notify(subs, Event{Kind: kind, ItemID: item.ID})
	return nil
}

// SetQuantity replaces the quantity of an existing line. A quantity of zero
// or less removes the line.
func (c *Cart) SetQuantity(item model.CatalogItem, quantity float64) error {
	c.mu.Lock()
	i := c.indexOf(item.ID)
	if i < 0 {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrLineNotFound, item.ID)
	}
	kind := EventUpdated
	if quantity <= 0 {
		kind = EventRemoved
		c.removeAt(i)
	} else {
		c.lines[i].Quantity = quantity
	}
	subs := c.snapshotSubscribers()
	c.mu.Unlock()

	notify(subs, Event{Kind: kind, ItemID: item.ID})
	return nil
}

// Increment adds one unit to an existing line.
func (c *Cart) Increment(item model.CatalogItem) error {
	c.mu.Lock()
	i := c.indexOf(item.ID)
	if i < 0 {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrLineNotFound, item.ID)
	}
	c.lines[i].Quantity++
	subs := c.snapshotSubscribers()
	c.mu.Unlock()

	notify(subs, Event{Kind: EventUpdated, ItemID: item.ID})
	return nil
}

// Decrement removes one unit from an existing line. A line at one unit or
// less is removed instead of going to zero.
func (c *Cart) Decrement(item model.CatalogItem) error {
	c.mu.Lock()
	i := c.indexOf(item.ID)
	if i < 0 {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrLineNotFound, item.ID)
	}
	kind := EventUpdated
	if c.lines[i].Quantity <= 1 {
		kind = EventRemoved
		c.removeAt(i)
	} else {
		c.lines[i].Quantity--
	}
	subs := c.snapshotSubscribers()
	c.mu.Unlock()

	notify(subs, Event{Kind: kind, ItemID: item.ID})
	return nil
}

// Remove deletes the line for item. Removing an absent item is a no-op.
func (c *Cart) Remove(item model.CatalogItem) {
	c.mu.Lock()
	i := c.indexOf(item.ID)
	if i < 0 {
		c.mu.Unlock()
		return
	}
	c.removeAt(i)
	subs := c.snapshotSubscribers()
	c.mu.Unlock()

	notify(subs, Event{Kind: EventRemoved, ItemID: item.ID})
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.mu.Lock()
	c.lines = nil
	subs := c.snapshotSubscribers()
	c.mu.Unlock()

	notify(subs, Event{Kind: EventCleared})
}

// Line returns the line for an item ID.
func (c *Cart) Line(itemID string) (model.CartLine, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.indexOf(itemID); i >= 0 {
		return c.lines[i], true
	}
	return model.CartLine{}, false
}

// Lines returns a copy of the lines in insertion order.
func (c *Cart) Lines() []model.CartLine {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

// Total returns the sum of all line totals.
func (c *Cart) Total() float64 {
	return model.SumLines(c.Lines())
}

// Count returns the number of distinct lines, not units.
func (c *Cart) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines)
}

func (c *Cart) indexOf(itemID string) int {
	for i := range c.lines {
		if c.lines[i].Item.ID == itemID {
			return i
		}
	}
	return -1
}

func (c *Cart) removeAt(i int) {
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
}

func (c *Cart) snapshotSubscribers() []func(Event) {
	if len(c.subscribers) == 0 {
		return nil
	}
	ids := make([]int, 0, len(c.subscribers))
	for id := range c.subscribers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	subs := make([]func(Event), 0, len(ids))
	for _, id := range ids {
		subs = append(subs, c.subscribers[id])
	}
	return subs
}

func notify(subs []func(Event), ev Event) {
	for _, fn := range subs {
		fn(ev)
	}
}
