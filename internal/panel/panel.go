// Package panel holds the state of a list-with-inline-detail screen and
// its create dialog, independent of how the screen is drawn or where the
// data comes from.
package panel

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrNoCreate       = errors.New("panel has no create mutation")
	ErrNoDelete       = errors.New("panel has no delete mutation")
	ErrDeleteInFlight = errors.New("delete already in flight")
)

type Field struct {
	Label string
	Value string
}

// Source describes where a panel's items come from and what it can do
// with them. Create and Delete are optional.
type Source[T any] struct {
	Name    string
	Load    func(ctx context.Context) ([]T, error)
	ID      func(T) string
	Summary func(T) []Field
	Details func(T) []Field
	Create  func(ctx context.Context, payload Payload) error
	Delete  func(ctx context.Context, id string) error
	Schema  Schema
}

type Status int

const (
	Loading Status = iota
	Loaded
	Failed
)

func (s Status) String() string {
	switch s {
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

type Row struct {
	ID       string
	Summary  []Field
	Details  []Field // nil unless expanded
	Expanded bool
	Deleting bool
}

// Panel is not safe for concurrent use; it is meant to be owned by a
// single UI loop. Load, Create and Delete only read the immutable source
// and may run elsewhere.
type Panel[T any] struct {
	source     Source[T]
	status     Status
	items      []T
	loadErr    error
	loadSeq    uint64
	refreshing bool
	expanded   map[string]struct{}
	deleting   map[string]struct{}
	dialog     *Dialog
	deleteErr  error
}

func New[T any](source Source[T]) *Panel[T] {
	p := &Panel[T]{
		source:   source,
		status:   Loading,
		expanded: make(map[string]struct{}),
		deleting: make(map[string]struct{}),
	}
	if source.Create != nil {
		p.dialog = NewDialog(source.Schema)
	}
	return p
}

func (p *Panel[T]) Name() string     { return p.source.Name }
func (p *Panel[T]) Status() Status   { return p.status }
func (p *Panel[T]) LoadErr() error   { return p.loadErr }
func (p *Panel[T]) CanCreate() bool  { return p.source.Create != nil }
func (p *Panel[T]) CanDelete() bool  { return p.source.Delete != nil }
func (p *Panel[T]) Refreshing() bool { return p.refreshing }

// Dialog is nil for panels without a create mutation.
func (p *Panel[T]) Dialog() *Dialog { return p.dialog }

// DeleteErr is the error of the last delete, nil if it succeeded. Create
// errors stay with the dialog.
func (p *Panel[T]) DeleteErr() error { return p.deleteErr }

func (p *Panel[T]) Items() []T { return p.items }

// BeginLoad marks a read as pending and returns its sequence number.
// Before the first successful load the panel shows as loading; afterwards
// the current rows stay visible until the new result arrives.
func (p *Panel[T]) BeginLoad() uint64 {
	p.loadSeq++
	p.refreshing = true
	if p.status != Loaded {
		p.status = Loading
		p.loadErr = nil
	}
	return p.loadSeq
}

// FinishLoad applies the result of the read started with seq. Results of
// superseded reads are dropped and FinishLoad reports false. A failed read
// replaces the list entirely: no partial list is kept.
func (p *Panel[T]) FinishLoad(seq uint64, items []T, err error) bool {
	if seq != p.loadSeq {
		return false
	}
	p.refreshing = false
	if err != nil {
		p.status = Failed
		p.loadErr = err
		p.items = nil
		return true
	}
	p.status = Loaded
	p.loadErr = nil
	p.items = items
	return true
}

// Fetch runs the source's read.
func (p *Panel[T]) Fetch(ctx context.Context) ([]T, error) {
	return p.source.Load(ctx)
}

// Toggle flips whether id's details are shown. No other row is affected.
func (p *Panel[T]) Toggle(id string) {
	if _, ok := p.expanded[id]; ok {
		delete(p.expanded, id)
		return
	}
	p.expanded[id] = struct{}{}
}

func (p *Panel[T]) Expanded(id string) bool {
	_, ok := p.expanded[id]
	return ok
}

// Rows renders the loaded items. It is empty unless the panel has loaded.
func (p *Panel[T]) Rows() []Row {
	if p.status != Loaded {
		return nil
	}
	rows := make([]Row, 0, len(p.items))
	for _, item := range p.items {
		id := p.source.ID(item)
		row := Row{
			ID:       id,
			Summary:  p.source.Summary(item),
			Expanded: p.Expanded(id),
		}
		if row.Expanded && p.source.Details != nil {
			row.Details = p.source.Details(item)
		}
		if _, ok := p.deleting[id]; ok {
			row.Deleting = true
		}
		rows = append(rows, row)
	}
	return rows
}

func (p *Panel[T]) OpenDialog() error {
	if p.dialog == nil {
		return ErrNoCreate
	}
	p.dialog.Open()
	return nil
}

// Create runs the source's create mutation.
func (p *Panel[T]) Create(ctx context.Context, payload Payload) error {
	if p.source.Create == nil {
		return ErrNoCreate
	}
	return p.source.Create(ctx, payload)
}

// FinishCreate reports the mutation result to the dialog. It returns true
// when the list should be reloaded.
func (p *Panel[T]) FinishCreate(err error) bool {
	if p.dialog == nil {
		return false
	}
	p.dialog.Finish(err)
	return err == nil
}

// BeginDelete marks id as being deleted. The row stays in the list until a
// reload no longer returns it.
func (p *Panel[T]) BeginDelete(id string) error {
	if p.source.Delete == nil {
		return ErrNoDelete
	}
	if _, ok := p.deleting[id]; ok {
		return ErrDeleteInFlight
	}
	p.deleting[id] = struct{}{}
	return nil
}

// Delete runs the source's delete mutation.
func (p *Panel[T]) Delete(ctx context.Context, id string) error {
	if p.source.Delete == nil {
		return ErrNoDelete
	}
	return p.source.Delete(ctx, id)
}

// FinishDelete clears the pending mark on id. It returns true when the
// list should be reloaded.
func (p *Panel[T]) FinishDelete(id string, err error) bool {
	delete(p.deleting, id)
	p.deleteErr = err
	return err == nil
}
