package webhook

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"trade-journal-go/internal/config"
	"trade-journal-go/internal/models"
	"trade-journal-go/internal/sessions"
)

// Result is the outcome of processing one trade event.
type Result struct {
	TradeID   uint
	Duplicate bool
}

// Processor runs the ingestion pipeline for an authenticated trade
// event: dedup check, metric derivation, session assignment, insert,
// and connection/journal bookkeeping.
type Processor struct {
	db             *gorm.DB
	logger         *zap.Logger
	driftThreshold decimal.Decimal
}

// NewProcessor creates a webhook processor.
func NewProcessor(db *gorm.DB, logger *zap.Logger, cfg *config.Config) *Processor {
	return &Processor{
		db:             db,
		logger:         logger,
		driftThreshold: decimal.NewFromFloat(cfg.Bootstrap.CapitalDriftThreshold),
	}
}

// Process ingests a validated trade event for the given connection.
// Replays of an already-ingested ticket return Duplicate=true rather
// than an error. The unique index on (journal_id, external_id, source)
// backstops the existence check, so two concurrent requests for the
// same ticket still produce exactly one row.
func (p *Processor) Process(conn *models.BrokerConnection, ev *TradeEvent, raw []byte) (*Result, error) {
	var journal models.TradingJournal
	if err := p.db.First(&journal, conn.JournalID).Error; err != nil {
		return nil, fmt.Errorf("failed to load journal %d: %w", conn.JournalID, err)
	}

	externalID := ev.ExternalID()
	if existing, err := p.findExisting(journal.ID, externalID); err != nil {
		return nil, err
	} else if existing != nil {
		return &Result{TradeID: existing.ID, Duplicate: true}, nil
	}

	openTime, err := ParseMTTime(ev.OpenTime)
	if err != nil {
		return nil, fmt.Errorf("open_time: %w", err)
	}
	closeTime, err := ParseMTTime(ev.CloseTime)
	if err != nil {
		return nil, fmt.Errorf("close_time: %w", err)
	}

	metrics := Derive(ev, journal.StartingCapital)

	session, err := sessions.Assign(p.db, journal.ID, closeTime)
	if err != nil {
		return nil, err
	}
	var sessionID *uint
	if session != nil {
		sessionID = &session.ID
	} else {
		p.logger.Warn("No trading session matches close time",
			zap.Uint("journal_id", journal.ID),
			zap.String("ticket", externalID),
			zap.Time("close_time", closeTime),
		)
	}

	trade := models.AdvancedTrade{
		JournalID:   journal.ID,
		ExternalID:  externalID,
		Source:      models.SourceMetaTrader,
		SessionID:   sessionID,
		Symbol:      ev.Symbol,
		Direction:   ev.Type,
		Volume:      ev.Volume,
		OpenPrice:   ev.OpenPrice,
		ClosePrice:  ev.ClosePrice,
		OpenTime:    openTime,
		CloseTime:   closeTime,
		StopLoss:    ev.StopLoss,
		Profit:      ev.Profit,
		Commission:  ev.Commission,
		Swap:        ev.Swap,
		NetPnL:      metrics.NetPnL,
		PnLPercent:  metrics.PnLPercent,
		RiskPercent: metrics.RiskPercent,
		ExitReason:  metrics.ExitReason,
		Closed:      true,
		RawPayload:  datatypes.JSON(raw),
	}

	if err := p.db.Create(&trade).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost the insert race to a concurrent delivery of the
			// same ticket; report the winner's row.
			if existing, ferr := p.findExisting(journal.ID, externalID); ferr == nil && existing != nil {
				return &Result{TradeID: existing.ID, Duplicate: true}, nil
			}
		}
		return nil, fmt.Errorf("failed to insert trade: %w", err)
	}

	if err := p.bookkeep(conn, &journal, ev, metrics); err != nil {
		return nil, err
	}

	return &Result{TradeID: trade.ID}, nil
}

// findExisting looks up a previously ingested trade by dedup key.
func (p *Processor) findExisting(journalID uint, externalID string) (*models.AdvancedTrade, error) {
	var existing models.AdvancedTrade
	err := p.db.
		Where("journal_id = ? AND external_id = ? AND source = ?", journalID, externalID, models.SourceMetaTrader).
		First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return nil, fmt.Errorf("failed to check for existing trade: %w", err)
}

// bookkeep updates the connection sync state and, on the very first
// sync, bootstraps the journal name and starting capital from the
// account metadata the EA reported.
func (p *Processor) bookkeep(conn *models.BrokerConnection, journal *models.TradingJournal, ev *TradeEvent, metrics DerivedMetrics) error {
	if conn.SyncCount == 0 {
		p.bootstrapJournal(journal, ev, metrics)
		if err := p.db.Save(journal).Error; err != nil {
			return fmt.Errorf("failed to bootstrap journal %d: %w", journal.ID, err)
		}
	}

	now := time.Now().UTC()
	conn.LastSyncAt = &now
	conn.Status = models.ConnectionStatusConnected
	conn.SyncCount++
	if err := p.db.Save(conn).Error; err != nil {
		return fmt.Errorf("failed to update connection %d: %w", conn.ID, err)
	}

	return nil
}

// bootstrapJournal renames the journal after the broker account and
// overwrites its starting capital when the balance-derived estimate
// drifts past the configured threshold. This is a heuristic for
// freshly linked accounts, not an invariant.
func (p *Processor) bootstrapJournal(journal *models.TradingJournal, ev *TradeEvent, metrics DerivedMetrics) {
	if ev.Broker != "" {
		journal.Name = fmt.Sprintf("%s %s", ev.Broker, ev.Account)
	}

	estimate := decimal.NewFromFloat(ev.AccountBalance).Sub(metrics.NetPnL)
	if !estimate.IsPositive() {
		return
	}
	drift := estimate.Sub(journal.StartingCapital).Abs()
	if drift.GreaterThan(p.driftThreshold) {
		p.logger.Info("Overwriting journal starting capital on first sync",
			zap.Uint("journal_id", journal.ID),
			zap.String("stored", journal.StartingCapital.String()),
			zap.String("estimate", estimate.String()),
		)
		journal.StartingCapital = estimate
	}
}
