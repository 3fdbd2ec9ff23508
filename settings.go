package aspen

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// WindowMode selects how the game window is presented.
type WindowMode uint8

const (
	ModeWindowed WindowMode = iota
	ModeFullscreen
	ModeBorderlessWindow
	ModeBorderlessFullscreen
)

var windowModeNames = [...]string{"WINDOWED", "FULLSCREEN", "BORDERLESS_WINDOW", "BORDERLESS_FULLSCREEN"}

func (m WindowMode) String() string {
	if int(m) < len(windowModeNames) {
		return windowModeNames[m]
	}
	return fmt.Sprintf("WindowMode(%d)", uint8(m))
}

// MarshalYAML encodes the mode by name.
func (m WindowMode) MarshalYAML() (any, error) { return m.String(), nil }

// UnmarshalYAML decodes a mode name.
func (m *WindowMode) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	for i, n := range windowModeNames {
		if n == s {
			*m = WindowMode(i)
			return nil
		}
	}
	return fmt.Errorf("aspen: unknown window mode %q", s)
}

func (f MagFilter) String() string {
	if f == FilterNearest {
		return "NEAREST"
	}
	return "LINEAR"
}

// MarshalYAML encodes the filter by name.
func (f MagFilter) MarshalYAML() (any, error) { return f.String(), nil }

// UnmarshalYAML decodes LINEAR or NEAREST.
func (f *MagFilter) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	switch s {
	case "LINEAR":
		*f = FilterLinear
	case "NEAREST":
		*f = FilterNearest
	default:
		return fmt.Errorf("aspen: unknown mag filter %q", s)
	}
	return nil
}

// Duration wraps time.Duration so settings files can say "20ms".
type Duration time.Duration

// MarshalYAML encodes the duration in time.Duration string form.
func (d Duration) MarshalYAML() (any, error) { return time.Duration(d).String(), nil }

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Duration returns the time.Duration value.
func (d Duration) Duration() time.Duration { return time.Duration(d) }

// GameSettings configures the window, frame pacing and rendering defaults.
type GameSettings struct {
	WindowWidth  int        `yaml:"window_width"`
	WindowHeight int        `yaml:"window_height"`
	Title        string     `yaml:"window_title"`
	Mode         WindowMode `yaml:"window_mode"`
	VSync        bool       `yaml:"vsync"`
	// FPSLimit caps the ticks per second. Zero uses the display rate.
	FPSLimit int `yaml:"fps_limit"`
	// FixedTimestep is the interval between fixed updates.
	FixedTimestep Duration `yaml:"fixed_ts"`
	// MSAA is the sample count for render targets. 0 and 1 disable it.
	MSAA      int       `yaml:"msaa_level"`
	MagFilter MagFilter `yaml:"mag_filter"`
	WriteDir  string    `yaml:"write_dir"`

	BaseResolution Size             `yaml:"base_resolution"`
	Policy         ResolutionPolicy `yaml:"resolution_policy"`

	// ScreenshotDir is where Renderer.Screenshot writes PNGs.
	ScreenshotDir string `yaml:"screenshot_dir"`
}

// DefaultSettings returns the settings used for any field a file omits.
func DefaultSettings() GameSettings {
	return GameSettings{
		WindowWidth:    1024,
		WindowHeight:   768,
		Title:          "aspen",
		Mode:           ModeWindowed,
		VSync:          true,
		FPSLimit:       60,
		FixedTimestep:  Duration(20 * time.Millisecond),
		MSAA:           1,
		MagFilter:      FilterLinear,
		BaseResolution: Size{W: 1024, H: 768},
		Policy:         PolicyMaintain,
		ScreenshotDir:  "screenshots",
	}
}

// Validate reports the first invalid field.
func (s GameSettings) Validate() error {
	switch {
	case s.WindowWidth <= 0 || s.WindowHeight <= 0:
		return fmt.Errorf("aspen: window size %dx%d must be positive", s.WindowWidth, s.WindowHeight)
	case s.BaseResolution.W <= 0 || s.BaseResolution.H <= 0:
		return fmt.Errorf("aspen: base resolution %dx%d must be positive", s.BaseResolution.W, s.BaseResolution.H)
	case s.FPSLimit < 0:
		return fmt.Errorf("aspen: fps limit %d is negative", s.FPSLimit)
	case s.FixedTimestep <= 0:
		return fmt.Errorf("aspen: fixed timestep %v must be positive", s.FixedTimestep.Duration())
	}
	switch s.MSAA {
	case 0, 1, 2, 4, 8, 16:
	default:
		return fmt.Errorf("aspen: msaa level %d is not a power of two up to 16", s.MSAA)
	}
	return nil
}

// Samples returns the MSAA sample count, at least 1.
func (s GameSettings) Samples() int { return max(s.MSAA, 1) }

// ParseSettings decodes YAML on top of DefaultSettings and validates it.
func ParseSettings(data []byte) (GameSettings, error) {
	s := DefaultSettings()
	if err := yaml.Unmarshal(data, &s); err != nil {
		return GameSettings{}, fmt.Errorf("aspen: parsing settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return GameSettings{}, err
	}
	return s, nil
}

// LoadSettings reads a YAML settings file.
func LoadSettings(path string) (GameSettings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return GameSettings{}, fmt.Errorf("aspen: reading settings file: %w", err)
	}
	return ParseSettings(data)
}

// Marshal encodes the settings as YAML.
func (s GameSettings) Marshal() ([]byte, error) {
	return yaml.Marshal(s)
}
