package storage

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"go.uber.org/zap"
)

const (
	bufferSize    = 10_000
	flushInterval = 100 * time.Millisecond
	flushBatch    = 1000
	drainTimeout  = 2 * time.Second
)

// ClickHouseWriter persists ledger records to ClickHouse asynchronously.
// Both Write methods are non-blocking: records are buffered and
// batch-inserted by a background goroutine, and dropped when the buffer is
// full.
type ClickHouseWriter struct {
	conn      driver.Conn
	events    chan *EnforcementEvent
	snapshots chan *TRSRecord
	done      chan struct{}
	flushed   chan struct{} // closed by flushLoop when it returns
	logger    *zap.Logger
}

// NewClickHouseWriter connects to ClickHouse and starts the flush loop.
func NewClickHouseWriter(dsn string, logger *zap.Logger) (*ClickHouseWriter, error) {
	opts, err := clickhouse.ParseDSN(dsn)
	if err != nil {
		return nil, err
	}

	// ParseDSN enables TLS when ?secure=true is present; enforce it here as
	// well so secure deployments (e.g. cloud port 9440) never downgrade.
	if opts.TLS == nil {
		opts.TLS = &tls.Config{}
	}

	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, err
	}
	if err := conn.Ping(context.Background()); err != nil {
		return nil, err
	}

	w := &ClickHouseWriter{
		conn:      conn,
		events:    make(chan *EnforcementEvent, bufferSize),
		snapshots: make(chan *TRSRecord, bufferSize),
		done:      make(chan struct{}),
		flushed:   make(chan struct{}),
		logger:    logger,
	}

	go w.flushLoop()
	return w, nil
}

// WriteEnforcement queues an enforcement event for async insertion.
func (w *ClickHouseWriter) WriteEnforcement(event *EnforcementEvent) {
	select {
	case w.events <- event:
	default:
		w.logger.Warn("clickhouse event buffer full, dropping record",
			zap.String("request_id", event.RequestID),
		)
	}
}

// WriteSnapshot queues a TRS snapshot for async insertion.
func (w *ClickHouseWriter) WriteSnapshot(record *TRSRecord) {
	select {
	case w.snapshots <- record:
	default:
		w.logger.Warn("clickhouse snapshot buffer full, dropping record",
			zap.String("session_id", record.SessionID),
			zap.String("record_hash", record.RecordHash),
		)
	}
}

// Close drains buffered records (up to drainTimeout) and waits for the
// flush loop to finish. Safe to call once.
func (w *ClickHouseWriter) Close() {
	close(w.done)
	<-w.flushed
}

func (w *ClickHouseWriter) flushLoop() {
	defer close(w.flushed)

	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	events := make([]*EnforcementEvent, 0, flushBatch)
	snapshots := make([]*TRSRecord, 0, flushBatch)

	flushAll := func() {
		if len(events) > 0 {
			w.flushEvents(events)
			events = events[:0]
		}
		if len(snapshots) > 0 {
			w.flushSnapshots(snapshots)
			snapshots = snapshots[:0]
		}
	}

	for {
		select {
		case event := <-w.events:
			events = append(events, event)
			if len(events) >= flushBatch {
				w.flushEvents(events)
				events = events[:0]
			}
		case record := <-w.snapshots:
			snapshots = append(snapshots, record)
			if len(snapshots) >= flushBatch {
				w.flushSnapshots(snapshots)
				snapshots = snapshots[:0]
			}
		case <-ticker.C:
			flushAll()
		case <-w.done:
			drainCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
			defer cancel()
		drainLoop:
			for {
				select {
				case event := <-w.events:
					events = append(events, event)
				case record := <-w.snapshots:
					snapshots = append(snapshots, record)
				case <-drainCtx.Done():
					break drainLoop
				default:
					break drainLoop
				}
			}
			flushAll()
			return
		}
	}
}

func (w *ClickHouseWriter) flushEvents(events []*EnforcementEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	batch, err := w.conn.PrepareBatch(ctx, `
		INSERT INTO enforcement_events (
			request_id, tenant_id, session_id, user_id, timestamp,
			message_preview, message_hash, message_size,
			consent_tier, confidence, caveats,
			friction_applied, requires_response, injection_detected,
			pii_redacted, redaction_count,
			escalation_level, escalation_reason,
			audit_hash, latency_ms
		)
	`)
	if err != nil {
		w.logger.Error("clickhouse prepare enforcement batch failed", zap.Error(err))
		return
	}

	for _, e := range events {
		if err := batch.Append(
			e.RequestID,
			e.TenantID,
			e.SessionID,
			e.UserID,
			e.Timestamp,
			e.MessagePreview,
			e.MessageHash,
			e.MessageSize,
			e.ConsentTier,
			e.Confidence,
			e.Caveats,
			boolToUint8(e.FrictionApplied),
			boolToUint8(e.RequiresResponse),
			boolToUint8(e.InjectionDetected),
			boolToUint8(e.PIIRedacted),
			e.RedactionCount,
			e.EscalationLevel,
			e.EscalationReason,
			e.AuditHash,
			e.LatencyMs,
		); err != nil {
			w.logger.Error("clickhouse append enforcement event failed",
				zap.String("request_id", e.RequestID),
				zap.Error(err),
			)
		}
	}

	if err := batch.Send(); err != nil {
		w.logger.Error("clickhouse enforcement batch send failed",
			zap.Int("batch_size", len(events)),
			zap.Error(err),
		)
	}
}

func (w *ClickHouseWriter) flushSnapshots(records []*TRSRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	batch, err := w.conn.PrepareBatch(ctx, `
		INSERT INTO trs_snapshots (
			tenant_id, session_id, user_id, timestamp,
			friction_engagement, verification_actions,
			acknowledged_responsibility, correction_clarification,
			composite_score, gaming_detected, gaming_indicators,
			previous_hash, record_hash
		)
	`)
	if err != nil {
		w.logger.Error("clickhouse prepare snapshot batch failed", zap.Error(err))
		return
	}

	for _, r := range records {
		if err := batch.Append(
			r.TenantID,
			r.SessionID,
			r.UserID,
			r.Timestamp,
			r.FrictionEngagement,
			r.VerificationActions,
			r.AcknowledgedResponsibility,
			r.CorrectionClarification,
			r.CompositeScore,
			boolToUint8(r.GamingDetected),
			r.GamingIndicators,
			r.PreviousHash,
			r.RecordHash,
		); err != nil {
			w.logger.Error("clickhouse append snapshot failed",
				zap.String("record_hash", r.RecordHash),
				zap.Error(err),
			)
		}
	}

	if err := batch.Send(); err != nil {
		w.logger.Error("clickhouse snapshot batch send failed",
			zap.Int("batch_size", len(records)),
			zap.Error(err),
		)
	}
}

func boolToUint8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// LogWriter is a fallback LedgerWriter for local development. It logs
// records as structured JSON to stdout via zap.
type LogWriter struct {
	logger *zap.Logger
}

// NewLogWriter creates a LogWriter that outputs records to the given logger.
func NewLogWriter(logger *zap.Logger) *LogWriter {
	return &LogWriter{logger: logger}
}

func (w *LogWriter) WriteEnforcement(event *EnforcementEvent) {
	w.logger.Info("enforcement_event",
		zap.String("request_id", event.RequestID),
		zap.String("tenant_id", event.TenantID),
		zap.String("session_id", event.SessionID),
		zap.String("user_id", event.UserID),
		zap.String("consent_tier", event.ConsentTier),
		zap.Float64("confidence", event.Confidence),
		zap.Bool("friction_applied", event.FrictionApplied),
		zap.Bool("injection_detected", event.InjectionDetected),
		zap.Uint32("redaction_count", event.RedactionCount),
		zap.String("escalation_level", event.EscalationLevel),
		zap.String("audit_hash", event.AuditHash),
		zap.Float32("latency_ms", event.LatencyMs),
	)
}

func (w *LogWriter) WriteSnapshot(record *TRSRecord) {
	w.logger.Info("trs_snapshot",
		zap.String("tenant_id", record.TenantID),
		zap.String("session_id", record.SessionID),
		zap.String("user_id", record.UserID),
		zap.Float64("composite_score", record.CompositeScore),
		zap.Bool("gaming_detected", record.GamingDetected),
		zap.Strings("gaming_indicators", record.GamingIndicators),
		zap.String("previous_hash", record.PreviousHash),
		zap.String("record_hash", record.RecordHash),
	)
}

func (w *LogWriter) Close() {}
