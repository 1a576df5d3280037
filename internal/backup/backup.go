// Package backup writes JSON snapshots of the entity store before mutating
// passes, to a local directory or an S3-compatible bucket.
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"muabook/internal/logger"
	"muabook/pkg/models"
)

// Sink stores one backup object and returns where it went.
type Sink interface {
	Put(ctx context.Context, key string, data []byte) (string, error)
}

// Backuper serializes snapshots into a Sink.
type Backuper struct {
	sink Sink
	now  func() time.Time
	log  zerolog.Logger
}

// New creates a Backuper writing to sink.
func New(sink Sink) *Backuper {
	return &Backuper{
		sink: sink,
		now:  time.Now,
		log:  logger.WithComponent("backup"),
	}
}

var unsafeKeyChars = regexp.MustCompile(`[^a-z0-9-]+`)

// Backup writes snap under a key derived from the time and reason.
func (b *Backuper) Backup(ctx context.Context, reason string, snap models.Snapshot) (string, error) {
	const op = "Backup"

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("%s: failed to encode snapshot: %w", op, err)
	}

	key := Key(b.now(), reason)
	location, err := b.sink.Put(ctx, key, data)
	if err != nil {
		return "", fmt.Errorf("%s: failed to write %s: %w", op, key, err)
	}

	b.log.Debug().
		Str("location", location).
		Int("bytes", len(data)).
		Int("clients", len(snap.Clients)).
		Int("invoices", len(snap.Invoices)).
		Msg("Snapshot backed up")
	return location, nil
}

// Key names a backup object: UTC timestamp, sanitized reason and a short
// random suffix so backups taken in the same second do not collide.
func Key(at time.Time, reason string) string {
	reason = unsafeKeyChars.ReplaceAllString(strings.ToLower(strings.TrimSpace(reason)), "-")
	reason = strings.Trim(reason, "-")
	if reason == "" {
		reason = "manual"
	}
	return fmt.Sprintf("%s-%s-%s.json", at.UTC().Format("20060102T150405Z"), reason, uuid.NewString()[:8])
}
