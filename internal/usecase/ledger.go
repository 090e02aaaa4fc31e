package usecase

import (
	"fmt"
	"math/rand"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"github.com/vitos/strategy_monitor/internal/domain"
)

// SizingPolicy computes the position size for an open. The default commits
// a fixed fraction of current cash at the trigger price; setting FixedSize
// overrides it with an absolute unit count, which the ledger rejects when
// cash cannot cover the notional.
type SizingPolicy struct {
	// CashFraction of current cash committed per position, in (0, 1].
	CashFraction float64
	// FixedSize, when positive, sizes every open at this many units.
	FixedSize float64
}

// LedgerConfig sets the account parameters for one run.
type LedgerConfig struct {
	StartingCash   float64
	CommissionRate float64 // flat rate on notional, charged on entry and exit
	Sizing         SizingPolicy
}

// Ledger consumes transition events sequentially and maintains the
// portfolio state and trade list. It is the only mutator of either.
type Ledger struct {
	cfg    LedgerConfig
	symbol string

	cash      decimal.Decimal
	totalFees decimal.Decimal
	trades    []domain.Trade
	equity    []domain.EquityPoint

	open    *domain.Trade
	entropy *rand.Rand
}

func NewLedger(symbol string, cfg LedgerConfig) *Ledger {
	if cfg.Sizing.CashFraction <= 0 || cfg.Sizing.CashFraction > 1 {
		cfg.Sizing.CashFraction = 1.0
	}
	return &Ledger{
		cfg:    cfg,
		symbol: symbol,
		cash:   decimal.NewFromFloat(cfg.StartingCash),
		// Trade IDs only need to be unique and sortable within a run.
		entropy: rand.New(rand.NewSource(int64(len(symbol)) + 1)),
	}
}

// Apply processes one transition event. Opens draw down cash by notional
// plus commission; closes finalize the open trade per the side's sign rule
// and restore cash. An open that cash cannot cover is rejected with
// ErrInsufficientFunds and the ledger is left untouched.
func (l *Ledger) Apply(event domain.TransitionEvent) error {
	switch {
	case event.From == domain.PositionFlat:
		return l.openPosition(event)
	case event.To == domain.PositionFlat:
		return l.closePosition(event)
	default:
		return fmt.Errorf("unsupported transition %s -> %s", event.From, event.To)
	}
}

func (l *Ledger) openPosition(event domain.TransitionEvent) error {
	if l.open != nil {
		return fmt.Errorf("position already open (trade %s)", l.open.ID)
	}

	price := decimal.NewFromFloat(event.Price)
	if price.Sign() <= 0 {
		return fmt.Errorf("invalid trigger price %v", event.Price)
	}

	rate := decimal.NewFromFloat(l.cfg.CommissionRate)

	var size, notional decimal.Decimal
	if l.cfg.Sizing.FixedSize > 0 {
		size = decimal.NewFromFloat(l.cfg.Sizing.FixedSize)
		notional = size.Mul(price)
	} else {
		// Size so that notional + entry commission fits inside the
		// committed fraction of cash: notional = budget / (1 + rate).
		fraction := decimal.NewFromFloat(l.cfg.Sizing.CashFraction)
		budget := l.cash.Mul(fraction)
		notional = budget.Div(decimal.NewFromInt(1).Add(rate))
		size = notional.Div(price)
	}
	if size.Sign() <= 0 {
		return fmt.Errorf("%w: cash %s cannot cover an open at %s",
			domain.ErrInsufficientFunds, l.cash, price)
	}
	commission := notional.Mul(rate)

	cost := notional.Add(commission)
	if cost.GreaterThan(l.cash) {
		return fmt.Errorf("%w: need %s, have %s", domain.ErrInsufficientFunds, cost, l.cash)
	}

	side := domain.SideLong
	if event.To == domain.PositionShort {
		side = domain.SideShort
	}

	l.cash = l.cash.Sub(cost)
	l.totalFees = l.totalFees.Add(commission)

	sizeF, _ := size.Float64()
	commissionF, _ := commission.Float64()
	l.open = &domain.Trade{
		ID:         ulid.MustNew(ulid.Timestamp(event.BarTime), l.entropy).String(),
		Symbol:     l.symbol,
		Side:       side,
		Size:       sizeF,
		EntryTime:  event.BarTime,
		EntryPrice: event.Price,
		Commission: commissionF,
		Open:       true,
	}
	return nil
}

func (l *Ledger) closePosition(event domain.TransitionEvent) error {
	if l.open == nil {
		return fmt.Errorf("no open position to close at %s", event.BarTime)
	}

	entry := decimal.NewFromFloat(l.open.EntryPrice)
	exit := decimal.NewFromFloat(event.Price)
	size := decimal.NewFromFloat(l.open.Size)
	rate := decimal.NewFromFloat(l.cfg.CommissionRate)

	exitNotional := size.Mul(exit)
	exitCommission := exitNotional.Mul(rate)
	entryNotional := size.Mul(entry)

	// Sign rule: long profits when exit > entry, short when entry > exit.
	gross := exit.Sub(entry).Mul(size)
	if l.open.Side == domain.SideShort {
		gross = entry.Sub(exit).Mul(size)
	}

	entryCommission := decimal.NewFromFloat(l.open.Commission)
	pnl := gross.Sub(entryCommission).Sub(exitCommission)

	// The entry margin comes back plus gross PnL minus the exit fee; the
	// entry fee was already taken at open time.
	l.cash = l.cash.Add(entryNotional).Add(gross).Sub(exitCommission)
	l.totalFees = l.totalFees.Add(exitCommission)

	trade := *l.open
	trade.ExitTime = event.BarTime
	trade.ExitPrice = event.Price
	trade.Commission, _ = entryCommission.Add(exitCommission).Float64()
	trade.RealizedPnL, _ = pnl.Float64()
	if entryNotional.Sign() > 0 {
		trade.RealizedPnLPct, _ = pnl.Div(entryNotional).Mul(decimal.NewFromInt(100)).Float64()
	}
	trade.Open = false
	trade.ExitReason = event.Reason

	l.trades = append(l.trades, trade)
	l.open = nil
	return nil
}

// MarkToMarket appends an equity point valued at the bar's close. It is
// reporting only and never drives transitions.
func (l *Ledger) MarkToMarket(bar domain.Bar) {
	l.equity = append(l.equity, domain.EquityPoint{
		Time:   bar.Time,
		Equity: l.equityAt(bar.Close),
	})
}

func (l *Ledger) equityAt(price float64) float64 {
	eq := l.cash
	if l.open != nil {
		size := decimal.NewFromFloat(l.open.Size)
		entry := decimal.NewFromFloat(l.open.EntryPrice)
		px := decimal.NewFromFloat(price)
		switch l.open.Side {
		case domain.SideLong:
			eq = eq.Add(size.Mul(px))
		case domain.SideShort:
			// Margin held at entry plus the unrealized short gain.
			eq = eq.Add(size.Mul(entry)).Add(entry.Sub(px).Mul(size))
		}
	}
	f, _ := eq.Float64()
	return f
}

// Equity returns the current account value marked at the given price.
func (l *Ledger) Equity(price float64) float64 {
	return l.equityAt(price)
}

func (l *Ledger) Cash() float64 {
	f, _ := l.cash.Float64()
	return f
}

func (l *Ledger) TotalFees() float64 {
	f, _ := l.totalFees.Float64()
	return f
}

// Trades returns finalized trades followed by the open one, if any.
func (l *Ledger) Trades() []domain.Trade {
	out := make([]domain.Trade, len(l.trades), len(l.trades)+1)
	copy(out, l.trades)
	if l.open != nil {
		out = append(out, *l.open)
	}
	return out
}

func (l *Ledger) EquityCurve() []domain.EquityPoint {
	out := make([]domain.EquityPoint, len(l.equity))
	copy(out, l.equity)
	return out
}

// Portfolio snapshots the current portfolio state.
func (l *Ledger) Portfolio() domain.PortfolioState {
	p := domain.PortfolioState{
		Cash:         l.Cash(),
		PositionSide: domain.PositionFlat,
		EquityCurve:  l.EquityCurve(),
	}
	if l.open != nil {
		p.PositionSize = l.open.Size
		if l.open.Side == domain.SideLong {
			p.PositionSide = domain.PositionLong
		} else {
			p.PositionSide = domain.PositionShort
		}
	}
	return p
}
