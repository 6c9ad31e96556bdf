package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/aurelia-jewels/api/internal/domain"
	"github.com/aurelia-jewels/api/internal/repositories"
)

const (
	defaultAuditSeverity = "info"
	defaultActorType     = "unknown"
	defaultHasherPrefix  = "sha256:"
	defaultAuditBuffer   = 256

	auditIDPrefix = "aud_"
)

// AuditLogger defines the logging contract used by the audit writer service.
type AuditLogger interface {
	Warnf(format string, args ...any)
}

type auditLogService struct {
	repo     repositories.AuditLogRepository
	clock    func() time.Time
	logger   AuditLogger
	hashSalt string
	queue    chan domain.AuditLogEntry
	done     chan struct{}
}

// AuditLogServiceDeps bundles constructor inputs for the audit writer service.
type AuditLogServiceDeps struct {
	Repository repositories.AuditLogRepository
	Clock      func() time.Time
	Logger     AuditLogger
	HashSalt   string
	BufferSize int
}

// NewAuditLogService creates an asynchronous audit writer. Entries are queued
// onto a buffered channel and appended by a background goroutine, so the
// primary mutation flow never waits on the audit trail.
func NewAuditLogService(deps AuditLogServiceDeps) (AuditLogService, error) {
	if deps.Repository == nil {
		return nil, fmt.Errorf("audit log service: repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = noopAuditLogger{}
	}
	buffer := deps.BufferSize
	if buffer <= 0 {
		buffer = defaultAuditBuffer
	}

	s := &auditLogService{
		repo:     deps.Repository,
		clock:    func() time.Time { return clock().UTC() },
		logger:   logger,
		hashSalt: deps.HashSalt,
		queue:    make(chan domain.AuditLogEntry, buffer),
		done:     make(chan struct{}),
	}
	go s.drain()
	return s, nil
}

// Record sanitises and queues one entry. A full buffer drops the entry with a
// warning rather than blocking the caller.
func (s *auditLogService) Record(ctx context.Context, record AuditLogRecord) {
	if s == nil || s.repo == nil {
		return
	}
	entry := s.buildEntry(record)
	select {
	case s.queue <- entry:
	default:
		s.logger.Warnf("audit log buffer full, dropping entry action=%s target=%s", entry.Action, entry.TargetRef)
	}
}

// List delegates to the repository to retrieve paginated audit logs.
func (s *auditLogService) List(ctx context.Context, filter AuditLogFilter) (domain.CursorPage[domain.AuditLogEntry], error) {
	return s.repo.List(ctx, repositories.AuditLogFilter{
		TargetRef: strings.TrimSpace(filter.TargetRef),
		Actor:     strings.TrimSpace(filter.Actor),
		Action:    strings.TrimSpace(filter.Action),
		DateRange: domain.RangeQuery[time.Time]{
			From: filter.From,
			To:   filter.To,
		},
		Pagination: filter.Pagination,
	})
}

// Close stops the background writer after flushing queued entries.
func (s *auditLogService) Close() {
	close(s.queue)
	<-s.done
}

func (s *auditLogService) drain() {
	defer close(s.done)
	for entry := range s.queue {
		// Appends use a background context; the originating request may be
		// long gone by the time the entry lands.
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := s.repo.Append(ctx, entry); err != nil {
			s.logger.Warnf("audit log append failed: %v", err)
		}
		cancel()
	}
}

func (s *auditLogService) buildEntry(record AuditLogRecord) domain.AuditLogEntry {
	entry := domain.AuditLogEntry{
		ID:        auditIDPrefix + ulid.Make().String(),
		Actor:     sanitizeText(record.Actor, 128),
		ActorType: sanitizeText(record.ActorType, 32),
		Action:    sanitizeText(record.Action, 128),
		TargetRef: sanitizeText(record.TargetRef, 256),
		Metadata:  sanitizeAuditMap(record.Metadata),
		Diff:      sanitizeAuditMap(record.Diff),
		UserAgent: sanitizeText(record.UserAgent, 256),
		Severity:  sanitizeText(record.Severity, 16),
		RequestID: sanitizeText(record.RequestID, 64),
		CreatedAt: s.clock(),
	}
	if entry.ActorType == "" {
		entry.ActorType = defaultActorType
	}
	if entry.Severity == "" {
		entry.Severity = defaultAuditSeverity
	}
	if ip := strings.TrimSpace(record.IPAddress); ip != "" {
		entry.IPHash = s.hashValue(ip)
	}
	return entry
}

// hashValue keeps raw identifying values out of the trail while preserving
// equality for investigation.
func (s *auditLogService) hashValue(value string) string {
	sum := sha256.Sum256([]byte(s.hashSalt + value))
	return defaultHasherPrefix + hex.EncodeToString(sum[:])
}

// sensitiveAuditKeys are redacted from metadata and diffs before storage.
var sensitiveAuditKeys = map[string]struct{}{
	"password":      {},
	"secret":        {},
	"token":         {},
	"signature":     {},
	"apikey":        {},
	"authorization": {},
}

func sanitizeAuditMap(values map[string]any) map[string]any {
	if len(values) == 0 {
		return nil
	}
	out := make(map[string]any, len(values))
	for key, value := range values {
		if _, sensitive := sensitiveAuditKeys[strings.ToLower(strings.TrimSpace(key))]; sensitive {
			out[key] = "[redacted]"
			continue
		}
		switch v := value.(type) {
		case string:
			out[key] = sanitizeText(v, 512)
		case map[string]any:
			out[key] = sanitizeAuditMap(v)
		default:
			out[key] = v
		}
	}
	return out
}

func sanitizeText(value string, limit int) string {
	cleaned := strings.TrimSpace(value)
	cleaned = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == '\t' {
			return ' '
		}
		if r < 32 {
			return -1
		}
		return r
	}, cleaned)
	if limit > 0 && len(cleaned) > limit {
		cleaned = cleaned[:limit]
	}
	return cleaned
}

type noopAuditLogger struct{}

func (noopAuditLogger) Warnf(string, ...any) {}
