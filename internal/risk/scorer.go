// Package risk scores checkout transactions for fraud signals: order
// velocity, statistical value anomalies and low-information shipping input.
package risk

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/checkout-engine/internal/user"
)

// Level buckets the aggregated risk score.
type Level string

const (
	LevelSafe     Level = "SAFE"
	LevelModerate Level = "MODERATE"
	LevelCritical Level = "CRITICAL"
)

// Flags attached to assessments. The value-anomaly flag carries the observed
// sigma and is produced with ValueAnomalyFlag.
const (
	FlagVelocityLimitExceeded   = "VELOCITY_LIMIT_EXCEEDED"
	FlagHighValueIntervention   = "HIGH_VALUE_INTERVENTION"
	FlagLowEntropyName          = "LOW_ENTROPY_NAME"
	FlagRepetitiveCharAddress   = "REPETITIVE_CHAR_ADDRESS"
	FlagSuspiciousAddressLength = "SUSPICIOUS_ADDRESS_LENGTH"
)

// ValueAnomalyFlag renders the sigma-carrying anomaly flag.
func ValueAnomalyFlag(z float64) string {
	return fmt.Sprintf("VALUE_ANOMALY_SIGMA_%.1f", z)
}

// ShippingDetails is the free-text shipping input inspected for patterns.
type ShippingDetails struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// Assessment is the scored verdict for one transaction.
type Assessment struct {
	RiskLevel            Level     `json:"riskLevel"`
	RiskScore            float64   `json:"riskScore"`
	Flags                []string  `json:"flags"`
	RequiresManualReview bool      `json:"requiresManualReview"`
	Timestamp            time.Time `json:"timestamp"`
}

// Config holds the heuristic thresholds and weights.
type Config struct {
	VelocityWindow      time.Duration
	VelocityThreshold   int
	ZScoreCriticalLimit float64
	EntropyMinThreshold float64
	HighValueTrigger    int64
	HighValueRiskAdd    float64
	VelocityWeight      float64
	ValueWeight         float64
	EntropyWeight       float64
	MinAddressLength    int
	RepeatRunLength     int
	CriticalLevel       float64
	ModerateLevel       float64
}

// DefaultConfig returns the production thresholds.
func DefaultConfig() Config {
	return Config{
		VelocityWindow:      5 * time.Minute,
		VelocityThreshold:   3,
		ZScoreCriticalLimit: 3.5,
		EntropyMinThreshold: 1.5,
		HighValueTrigger:    5_000_000,
		HighValueRiskAdd:    0.5,
		VelocityWeight:      0.4,
		ValueWeight:         0.3,
		EntropyWeight:       0.2,
		MinAddressLength:    10,
		RepeatRunLength:     4,
		CriticalLevel:       0.7,
		ModerateLevel:       0.3,
	}
}

// Scorer evaluates transactions. Construct one per process and share it; the
// ledger serializes per-user access internally.
type Scorer struct {
	cfg     Config
	ledger  Ledger
	history HistoryProvider
	logger  *zerolog.Logger
	now     func() time.Time
}

// ScorerConfig configures a Scorer.
type ScorerConfig struct {
	Config  Config
	Ledger  Ledger
	History HistoryProvider
	Logger  *zerolog.Logger
}

// NewScorer constructs a Scorer. A nil ledger falls back to an in-memory one
// and a nil history provider yields an empty baseline for every user.
func NewScorer(cfg ScorerConfig) *Scorer {
	c := cfg.Config
	if c.VelocityWindow <= 0 {
		c = DefaultConfig()
	}
	ledger := cfg.Ledger
	if ledger == nil {
		ledger = NewMemoryLedger(c.VelocityWindow)
	}
	return &Scorer{
		cfg:     c,
		ledger:  ledger,
		history: cfg.History,
		logger:  cfg.Logger,
		now:     time.Now,
	}
}

// Assess scores a transaction and never fails toward the caller: ledger or
// history errors degrade that signal to its safe default so a checkout is
// never aborted by the scorer itself. Velocity correctness assumes the caller
// submits a single user's checkouts in order; checkouts of different users
// are independent and may run concurrently.
func (s *Scorer) Assess(ctx context.Context, p user.Profile, cartTotal int64, shipping ShippingDetails) Assessment {
	now := s.now()
	flags := make([]string, 0, 4)
	score := 0.0

	count, err := s.ledger.Tally(ctx, p.ID, now)
	if err != nil {
		s.warn(err, "velocity tally failed, skipping signal")
	} else if count > s.cfg.VelocityThreshold {
		flags = append(flags, FlagVelocityLimitExceeded)
		score += s.cfg.VelocityWeight
	}

	if z := s.valueZScore(ctx, p.ID, cartTotal); z > s.cfg.ZScoreCriticalLimit {
		flags = append(flags, ValueAnomalyFlag(z))
		score += s.cfg.ValueWeight
	}

	if cartTotal > s.cfg.HighValueTrigger {
		flags = append(flags, FlagHighValueIntervention)
		score += s.cfg.HighValueRiskAdd
	}

	if inputFlags := s.inspectInput(shipping); len(inputFlags) > 0 {
		flags = append(flags, inputFlags...)
		score += s.cfg.EntropyWeight
	}

	score = math.Min(math.Max(score, 0), 1)

	level := LevelSafe
	switch {
	case score > s.cfg.CriticalLevel:
		level = LevelCritical
	case score > s.cfg.ModerateLevel:
		level = LevelModerate
	}

	return Assessment{
		RiskLevel:            level,
		RiskScore:            score,
		Flags:                flags,
		RequiresManualReview: level == LevelCritical,
		Timestamp:            now,
	}
}

// valueZScore measures how far the cart total sits from the user's baseline
// in standard deviations. Fewer than two historical amounts or a zero
// standard deviation yield 0, so a fresh or perfectly regular history never
// produces a false positive.
func (s *Scorer) valueZScore(ctx context.Context, userID string, cartTotal int64) float64 {
	if s.history == nil {
		return 0
	}
	amounts, err := s.history.RecentAmounts(ctx, userID)
	if err != nil {
		s.warn(err, "history lookup failed, skipping signal")
		return 0
	}
	if len(amounts) < 2 {
		return 0
	}

	var sum float64
	for _, a := range amounts {
		sum += float64(a)
	}
	mean := sum / float64(len(amounts))

	var variance float64
	for _, a := range amounts {
		variance += math.Pow(float64(a)-mean, 2)
	}
	variance /= float64(len(amounts))

	stdDev := math.Sqrt(variance)
	if stdDev == 0 {
		return 0
	}
	return math.Abs((float64(cartTotal) - mean) / stdDev)
}

// inspectInput applies the entropy and pattern heuristics to the shipping
// form fields.
func (s *Scorer) inspectInput(shipping ShippingDetails) []string {
	var flags []string
	if ShannonEntropy(shipping.Name) < s.cfg.EntropyMinThreshold {
		flags = append(flags, FlagLowEntropyName)
	}
	if hasRepeatedRun(shipping.Address, s.cfg.RepeatRunLength) {
		flags = append(flags, FlagRepetitiveCharAddress)
	}
	if len([]rune(shipping.Address)) < s.cfg.MinAddressLength {
		flags = append(flags, FlagSuspiciousAddressLength)
	}
	return flags
}

func (s *Scorer) warn(err error, msg string) {
	if s.logger != nil {
		s.logger.Warn().Err(err).Msg(msg)
	}
}
