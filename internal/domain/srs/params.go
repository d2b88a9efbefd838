package srs

import "github.com/phrazzld/scry-lexicon/internal/domain"

// Bounds on the struggling-item override. An item answered wrong twice in a
// row always comes back within four hours.
const (
	MaxStrugglingWrongStreak   = 2
	MaxStrugglingIntervalHours = 4
)

// Params defines all configurable parameters for the mastery model
type Params struct {
	// Mastery gain on a correct answer: round((100-current) * GainRate), at least MinGain
	GainRate float64
	MinGain  int

	// Mastery loss on a wrong answer: round(current * LossRate), at least MinLoss
	LossRate float64
	MinLoss  int

	// Status thresholds below domain.MasteredThreshold, which is fixed
	ForgottenThreshold   int
	ForgottenWrongStreak int

	// Interval shape
	BaseIntervalHours int     // interval at mastery 0
	MasteryBandWidth  int     // mastery points per doubling of the interval
	ReviewFactorStep  float64 // added to the multiplier per successful review
	ReviewFactorCap   int     // reviews beyond this no longer lengthen the interval
	MaxIntervalHours  int

	// Struggling item override
	StrugglingWrongStreak   int
	StrugglingIntervalHours int
}

// ParamsConfig allows overriding the default parameters when creating a new Params instance.
// Zero values keep the default. NewParams also ignores values outside the
// ranges in the validate tags.
type ParamsConfig struct {
	GainRate float64 `mapstructure:"gain_rate" validate:"gte=0,lte=1"`
	MinGain  int     `mapstructure:"min_gain"  validate:"gte=0,lte=100"`
	LossRate float64 `mapstructure:"loss_rate" validate:"gte=0,lte=1"`
	MinLoss  int     `mapstructure:"min_loss"  validate:"gte=0,lte=100"`

	ForgottenThreshold   int `mapstructure:"forgotten_threshold"    validate:"gte=0,lt=80"`
	ForgottenWrongStreak int `mapstructure:"forgotten_wrong_streak" validate:"gte=0"`

	BaseIntervalHours int     `mapstructure:"base_interval_hours" validate:"gte=0"`
	MasteryBandWidth  int     `mapstructure:"mastery_band_width"  validate:"gte=0"`
	ReviewFactorStep  float64 `mapstructure:"review_factor_step"  validate:"gte=0"`
	ReviewFactorCap   int     `mapstructure:"review_factor_cap"   validate:"gte=0"`
	MaxIntervalHours  int     `mapstructure:"max_interval_hours"  validate:"gte=0"`

	StrugglingWrongStreak   int `mapstructure:"struggling_wrong_streak"   validate:"gte=0,lte=2"`
	StrugglingIntervalHours int `mapstructure:"struggling_interval_hours" validate:"gte=0,lte=4"`
}

// NewDefaultParams creates a new Params instance with default values
func NewDefaultParams() *Params {
	return &Params{
		GainRate: 0.25,
		MinGain:  1,
		LossRate: 0.3,
		MinLoss:  5,

		ForgottenThreshold:   20,
		ForgottenWrongStreak: 3,

		// 4h at mastery 0, 128h at mastery 100, up to x3 for seasoned items
		BaseIntervalHours: 4,
		MasteryBandWidth:  20,
		ReviewFactorStep:  0.25,
		ReviewFactorCap:   8,
		MaxIntervalHours:  720,

		StrugglingWrongStreak:   2,
		StrugglingIntervalHours: 1,
	}
}

// NewParams creates a new Params instance with custom configuration
func NewParams(config ParamsConfig) *Params {
	params := NewDefaultParams()

	// Override mastery movement if provided
	if config.GainRate > 0 && config.GainRate <= 1 {
		params.GainRate = config.GainRate
	}
	if config.MinGain > 0 && config.MinGain <= domain.MaxMasteryLevel {
		params.MinGain = config.MinGain
	}
	if config.LossRate > 0 && config.LossRate <= 1 {
		params.LossRate = config.LossRate
	}
	if config.MinLoss > 0 && config.MinLoss <= domain.MaxMasteryLevel {
		params.MinLoss = config.MinLoss
	}

	// Override thresholds if provided
	if config.ForgottenThreshold > 0 && config.ForgottenThreshold < domain.MasteredThreshold {
		params.ForgottenThreshold = config.ForgottenThreshold
	}
	if config.ForgottenWrongStreak > 0 {
		params.ForgottenWrongStreak = config.ForgottenWrongStreak
	}

	// Override interval shape if provided
	if config.BaseIntervalHours > 0 {
		params.BaseIntervalHours = config.BaseIntervalHours
	}
	if config.MasteryBandWidth > 0 {
		params.MasteryBandWidth = config.MasteryBandWidth
	}
	if config.ReviewFactorStep > 0 {
		params.ReviewFactorStep = config.ReviewFactorStep
	}
	if config.ReviewFactorCap > 0 {
		params.ReviewFactorCap = config.ReviewFactorCap
	}
	if config.MaxIntervalHours > 0 {
		params.MaxIntervalHours = config.MaxIntervalHours
	}

	// Override struggling override if provided
	if config.StrugglingWrongStreak > 0 && config.StrugglingWrongStreak <= MaxStrugglingWrongStreak {
		params.StrugglingWrongStreak = config.StrugglingWrongStreak
	}
	if config.StrugglingIntervalHours > 0 && config.StrugglingIntervalHours <= MaxStrugglingIntervalHours {
		params.StrugglingIntervalHours = config.StrugglingIntervalHours
	}

	return params
}
