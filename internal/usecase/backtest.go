package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/vitos/strategy_monitor/internal/domain"
	"github.com/vitos/strategy_monitor/internal/strategy"
	"go.uber.org/zap"
)

// BacktestRequest is everything one run needs. Identical requests over
// identical bars produce identical results.
type BacktestRequest struct {
	Symbol         string
	Interval       string
	StrategyID     string
	StrategyParams map[string]float64
	Since          time.Time
	StartingCash   float64
	CommissionRate float64
	Sizing         SizingPolicy
	Engine         EngineConfig
}

// BacktestService drives the engine and ledger over a finite historical
// bar sequence and assembles the immutable result object.
type BacktestService struct {
	market  domain.MarketData
	catalog *strategy.Catalog
	logger  *zap.Logger
}

func NewBacktestService(market domain.MarketData, catalog *strategy.Catalog, logger *zap.Logger) *BacktestService {
	return &BacktestService{
		market:  market,
		catalog: catalog,
		logger:  logger,
	}
}

// Run executes one backtest. Missing data and rule failures surface as
// structured errors, never as a silent empty result.
func (s *BacktestService) Run(ctx context.Context, req BacktestRequest) (*domain.BacktestResult, error) {
	bars, err := s.market.Fetch(ctx, req.Symbol, req.Interval, req.Since)
	if err != nil {
		return nil, fmt.Errorf("fetch bars for %s: %w", req.Symbol, err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: %s %s since %s",
			domain.ErrDataUnavailable, req.Symbol, req.Interval, req.Since.Format(time.RFC3339))
	}
	if err := domain.ValidateBars(bars); err != nil {
		return nil, fmt.Errorf("bad bar sequence for %s: %w", req.Symbol, err)
	}

	rules, err := s.catalog.Resolve(req.StrategyID, req.StrategyParams)
	if err != nil {
		return nil, err
	}

	result, err := s.replay(bars, rules, req)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Backtest finished",
		zap.String("symbol", req.Symbol),
		zap.String("strategy", req.StrategyID),
		zap.Int("bars", len(bars)),
		zap.Int("trades", result.Metrics.TotalTrades),
		zap.Float64("return_pct", result.Metrics.TotalReturnPct),
	)
	return result, nil
}

func (s *BacktestService) replay(bars []domain.Bar, rules strategy.Rules, req BacktestRequest) (*domain.BacktestResult, error) {
	engine := NewEngine(rules, req.Engine)
	ledger := NewLedger(req.Symbol, LedgerConfig{
		StartingCash:   req.StartingCash,
		CommissionRate: req.CommissionRate,
		Sizing:         req.Sizing,
	})

	for _, bar := range bars {
		events, err := engine.ProcessBar(bar)
		if err != nil {
			return nil, fmt.Errorf("bar %s: %w", bar.Time.Format(time.RFC3339), err)
		}
		for _, event := range events {
			if err := ledger.Apply(event); err != nil {
				// A rejected open is a reported non-fatal condition: the
				// strategy simply stays flat. Roll the state machine back
				// so it keeps matching the ledger.
				if event.From == domain.PositionFlat {
					engine.pos = domain.PositionFlat
					s.logger.Warn("Open rejected",
						zap.String("symbol", req.Symbol),
						zap.Time("bar", bar.Time),
						zap.Error(err),
					)
					continue
				}
				return nil, fmt.Errorf("ledger apply at %s: %w", bar.Time.Format(time.RFC3339), err)
			}
		}
		ledger.MarkToMarket(bar)
	}

	return &domain.BacktestResult{
		Symbol:         req.Symbol,
		Interval:       req.Interval,
		StrategyID:     req.StrategyID,
		Trades:         ledger.Trades(),
		EquityCurve:    ledger.EquityCurve(),
		Metrics:        Analyze(ledger.EquityCurve(), ledger.Trades(), req.StartingCash, req.Interval),
		FinalPortfolio: ledger.Portfolio(),
	}, nil
}
