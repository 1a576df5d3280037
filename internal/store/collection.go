package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"muabook/internal/kvstore"
)

// collection reads and writes one JSON list stored under key.
type collection[T any] struct {
	key   string
	id    func(*T) int64
	setID func(*T, int64)
}

func (c collection[T]) list(ctx context.Context, kv kvstore.Store) ([]T, error) {
	raw, err := kv.Get(ctx, c.key)
	if errors.Is(err, kvstore.ErrNotFound) {
		return []T{}, nil
	}
	if err != nil {
		return nil, wrap("list", c.key, err)
	}
	var out []T
	if len(raw) == 0 || string(raw) == "null" {
		return []T{}, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, wrap("list", c.key, fmt.Errorf("decode: %w", err))
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

func (c collection[T]) set(ctx context.Context, kv kvstore.Store, items []T) error {
	if items == nil {
		items = []T{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return wrap("set", c.key, fmt.Errorf("encode: %w", err))
	}
	return wrap("set", c.key, kv.Set(ctx, c.key, raw))
}

// add appends rec, assigning max(id)+1 when rec has no id.
func (c collection[T]) add(ctx context.Context, kv kvstore.Store, rec T) (T, error) {
	items, err := c.list(ctx, kv)
	if err != nil {
		return rec, err
	}
	if c.id(&rec) == 0 {
		var maxID int64
		for i := range items {
			if id := c.id(&items[i]); id > maxID {
				maxID = id
			}
		}
		c.setID(&rec, maxID+1)
	}
	items = append(items, rec)
	if err := c.set(ctx, kv, items); err != nil {
		return rec, err
	}
	return rec, nil
}

func (c collection[T]) update(ctx context.Context, kv kvstore.Store, id int64, fn func(*T)) error {
	items, err := c.list(ctx, kv)
	if err != nil {
		return err
	}
	for i := range items {
		if c.id(&items[i]) == id {
			fn(&items[i])
			// The mutator must not change identity.
			c.setID(&items[i], id)
			return c.set(ctx, kv, items)
		}
	}
	return wrap("update", c.key, fmt.Errorf("id %d: %w", id, ErrNotFound))
}
