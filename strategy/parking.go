package strategy

import (
	"github.com/dicelab/fairsim/game"
	"github.com/dicelab/fairsim/gamestate"
	"github.com/dicelab/fairsim/money"
)

// ParkingConfig configures the sequential-nonce workaround: how many
// free toggles to spend before a forced minimal bet, when to rotate
// seeds preventively, and the thresholds that enter parking mode even
// when the wrapped strategy did not ask to skip.
type ParkingConfig struct {
	ParkingBetAmount           money.Money
	ParkingTarget              float64 // default 98.0
	ParkingBetType             game.BetType
	MaxTogglesBeforeBet        int     // default 3
	AutoSeedRotationAfter      int     // default 1000 bets
	ParkingOnConsecutiveLosses int     // default 5
	ParkingOnDrawdownPercent   float64 // default 0.10
}

// DefaultParkingConfig returns the spec §6 defaults.
func DefaultParkingConfig(parkingBetAmount money.Money) ParkingConfig {
	return ParkingConfig{
		ParkingBetAmount:           parkingBetAmount,
		ParkingTarget:              98.0,
		ParkingBetType:             game.Under,
		MaxTogglesBeforeBet:        3,
		AutoSeedRotationAfter:      1000,
		ParkingOnConsecutiveLosses: 5,
		ParkingOnDrawdownPercent:   0.10,
	}
}

// Parking wraps any base strategy and handles the sequential-nonce
// constraint: when the base skips, or when a spontaneous-parking
// threshold fires, it prefers a free toggle, then a seed rotation,
// then finally a forced minimal-stake bet, in that order.
type Parking struct {
	Base
	base              Strategy
	cfg               ParkingConfig
	toggleCount       int
	betsSinceRotation int
	isParking         bool
	currentBetType    game.BetType
}

func NewParking(cfg Config, parkingCfg ParkingConfig, base Strategy) *Parking {
	return &Parking{
		Base:           newBase(cfg),
		base:           base,
		cfg:            parkingCfg,
		currentBetType: cfg.BetType,
	}
}

func (p *Parking) shouldPark(gs *gamestate.GameState) bool {
	if gs.LossesInRow() >= p.cfg.ParkingOnConsecutiveLosses {
		return true
	}
	if gs.CurrentDrawdown >= p.cfg.ParkingOnDrawdownPercent {
		return true
	}
	return false
}

func (p *Parking) Decide(gs *gamestate.GameState) BetDecision {
	decision := p.base.Decide(gs)
	if !p.shouldPark(gs) && !decision.Skip {
		p.toggleCount = 0
		p.isParking = false
		return decision
	}

	p.isParking = true

	if p.toggleCount < p.cfg.MaxTogglesBeforeBet {
		p.toggleCount++
		p.currentBetType = toggled(p.currentBetType)
		return BetDecision{
			Skip:    true,
			Action:  ToggleBetType,
			BetType: p.currentBetType,
			Metadata: map[string]any{
				"strategy":     p.Name(),
				"toggle_count": p.toggleCount,
			},
		}
	}

	if p.betsSinceRotation >= p.cfg.AutoSeedRotationAfter {
		return BetDecision{
			Skip:   true,
			Action: RotateSeed,
			Metadata: map[string]any{
				"strategy": p.Name(),
			},
		}
	}

	p.toggleCount = 0
	multiplier := 100.0 / p.cfg.ParkingTarget
	amount := money.Clamp(p.cfg.ParkingBetAmount, p.Config.MinBet, p.Config.MaxBet)
	amount = money.Min(amount, gs.Balance)
	return BetDecision{
		Amount:     amount,
		Multiplier: multiplier,
		BetType:    p.cfg.ParkingBetType,
		Action:     ParkingBet,
		Confidence: 0.1,
		Metadata: map[string]any{
			"strategy":    p.Name(),
			"parking_bet": true,
		},
	}
}

func toggled(t game.BetType) game.BetType {
	if t == game.Over {
		return game.Under
	}
	return game.Over
}

func (p *Parking) Update(result game.BetResult) {
	p.RecordResult(result)
	p.base.Update(result)
	p.betsSinceRotation++
}

func (p *Parking) OnAltAction(action AltAction) {
	p.base.OnAltAction(action)
	if action == RotateSeed {
		p.betsSinceRotation = 0
		p.toggleCount = 0
	}
}

func (p *Parking) Reset() {
	p.Metrics = newMetrics()
	p.toggleCount = 0
	p.betsSinceRotation = 0
	p.isParking = false
	p.base.Reset()
}

func (p *Parking) Genome() map[string]any {
	return p.Base.Genome(p.Name(), map[string]any{
		"is_parking":          p.isParking,
		"toggle_count":        p.toggleCount,
		"bets_since_rotation": p.betsSinceRotation,
		"wrapped":             p.base.Genome(),
	})
}

func (p *Parking) Name() string {
	return "parking(" + p.base.Name() + ")"
}
