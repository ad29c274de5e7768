package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Profile holds the tunable constants of the analytics pipeline.
// DefaultProfile holds the values the service ships with.
type Profile struct {
	Pacing struct {
		NoiseThreshold float64 `yaml:"noise_threshold" validate:"gte=0"` // seconds
		BandWidth      float64 `yaml:"band_width" validate:"gte=0"`      // +/- WPM around the mean
	} `yaml:"pacing"`

	Confidence struct {
		HighThreshold float64 `yaml:"high_threshold" validate:"gte=0,lte=1"`
		LowThreshold  float64 `yaml:"low_threshold" validate:"gte=0,lte=1"`
		// Defaults for segments without a confidence score, see
		// analytics.ConfidenceAnalyzer for where each applies.
		RatioDefault  float64 `yaml:"ratio_default" validate:"gte=0,lte=1"`
		FilterDefault float64 `yaml:"filter_default" validate:"gte=0,lte=1"`
	} `yaml:"confidence"`

	Vocabulary struct {
		PositionBins int `yaml:"position_bins" validate:"gte=1"`
		LengthBins   int `yaml:"length_bins" validate:"gte=1"`
	} `yaml:"vocabulary"`

	Energy struct {
		// FrameLength and HopLength are counted at ReferenceRate and
		// rescaled to each signal's own rate.
		FrameLength   int `yaml:"frame_length" validate:"gte=1"`
		HopLength     int `yaml:"hop_length" validate:"gte=1"`
		ReferenceRate int `yaml:"reference_rate" validate:"gte=1"`
	} `yaml:"energy"`

	Output struct {
		TranscriptPreview int `yaml:"transcript_preview" validate:"gte=0"`
		BarLabelWidth     int `yaml:"bar_label_width" validate:"gte=1"`
		PointLabelWidth   int `yaml:"point_label_width" validate:"gte=1"`
	} `yaml:"output"`
}

var validate = validator.New()

// DefaultProfile returns the built-in analysis profile
func DefaultProfile() *Profile {
	p := &Profile{}
	p.Pacing.NoiseThreshold = 0.1
	p.Pacing.BandWidth = 10
	p.Confidence.HighThreshold = 0.9
	p.Confidence.LowThreshold = 0.7
	p.Confidence.RatioDefault = 0.9
	p.Confidence.FilterDefault = 1.0
	p.Vocabulary.PositionBins = 30
	p.Vocabulary.LengthBins = 10
	p.Energy.FrameLength = 2048
	p.Energy.HopLength = 512
	p.Energy.ReferenceRate = 22050
	p.Output.TranscriptPreview = 500
	p.Output.BarLabelWidth = 15
	p.Output.PointLabelWidth = 10
	return p
}

// LoadProfile reads a YAML profile on top of the defaults.
// An empty path returns the defaults.
func LoadProfile(path string) (*Profile, error) {
	p := DefaultProfile()
	if path == "" {
		return p, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open analysis profile: %w", err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(p); err != nil {
		return nil, fmt.Errorf("failed to decode analysis profile %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks the profile bounds
func (p *Profile) Validate() error {
	err := validate.Struct(p)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid analysis profile: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg := fmt.Sprintf("field '%s' failed on the '%s' tag", fe.Namespace(), fe.Tag())
		if fe.Param() != "" {
			msg = fmt.Sprintf("%s (value: %s)", msg, fe.Param())
		}
		msgs = append(msgs, msg)
	}
	return fmt.Errorf("invalid analysis profile: %s", strings.Join(msgs, "; "))
}
