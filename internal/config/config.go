// Package config loads airpaint settings from defaults, a yaml file, the
// environment, flags, and stored overrides.
package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ayusman/airpaint/internal/palette"
)

// ErrInvalid is returned when a configuration value is out of range.
var ErrInvalid = errors.New("invalid configuration")

// EnvPrefix is the environment variable prefix, e.g. AIRPAINT_BRUSH_WIDTH.
const EnvPrefix = "AIRPAINT"

// Hand-loss policies for the smoothed cursor.
const (
	HandLossFreeze = "freeze"
	HandLossReset  = "reset"
)

// Config is the full application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Store    StoreConfig    `mapstructure:"store"`
	Camera   CameraConfig   `mapstructure:"camera"`
	Detector DetectorConfig `mapstructure:"detector"`
	Gesture  GestureConfig  `mapstructure:"gesture"`
	Cursor   CursorConfig   `mapstructure:"cursor"`
	Brush    BrushConfig    `mapstructure:"brush"`
	Palette  PaletteConfig  `mapstructure:"palette"`
	Speech   SpeechConfig   `mapstructure:"speech"`
	Tray     TrayConfig     `mapstructure:"tray"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Addr      string `mapstructure:"addr"`
	StaticDir string `mapstructure:"static_dir"`
	Advertise bool   `mapstructure:"advertise"`
}

type StoreConfig struct {
	Path string `mapstructure:"path"`
}

type CameraConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Device  int  `mapstructure:"device"`
	FPS     int  `mapstructure:"fps"`
	Width   int  `mapstructure:"width"`
	Height  int  `mapstructure:"height"`
	Mirror  bool `mapstructure:"mirror"`

	// IdleFPS is used after the scene has been still for a while when
	// MotionThreshold is positive.
	IdleFPS         int     `mapstructure:"idle_fps"`
	MotionThreshold float64 `mapstructure:"motion_threshold"`
}

type DetectorConfig struct {
	MaxHands              int     `mapstructure:"max_hands"`
	MinConfidence         float64 `mapstructure:"min_confidence"`
	MinTrackingConfidence float64 `mapstructure:"min_tracking_confidence"`
}

type GestureConfig struct {
	PinchThreshold float64 `mapstructure:"pinch_threshold"`
	MinDrawY       float64 `mapstructure:"min_draw_y"`
	ZoomThreshold  float64 `mapstructure:"zoom_threshold"`
	ZoomScale      float64 `mapstructure:"zoom_scale"`
}

type CursorConfig struct {
	Smoothing  float64 `mapstructure:"smoothing"`
	OnHandLoss string  `mapstructure:"on_hand_loss"`
}

type BrushConfig struct {
	Width     float64 `mapstructure:"width"`
	Glow      float64 `mapstructure:"glow"`
	GlowColor string  `mapstructure:"glow_color"`
}

type PaletteConfig struct {
	Colors []string `mapstructure:"colors"`
	Wheel  bool     `mapstructure:"wheel"`
}

type SpeechConfig struct {
	Command string        `mapstructure:"command"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type TrayConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

var defaults = map[string]any{
	"server.addr":                      ":8080",
	"server.static_dir":                "",
	"server.advertise":                 false,
	"store.path":                       "",
	"camera.enabled":                   true,
	"camera.device":                    0,
	"camera.fps":                       30,
	"camera.width":                     1280,
	"camera.height":                    720,
	"camera.mirror":                    true,
	"camera.idle_fps":                  10,
	"camera.motion_threshold":          0.0,
	"detector.max_hands":               1,
	"detector.min_confidence":          0.7,
	"detector.min_tracking_confidence": 0.7,
	"gesture.pinch_threshold":          40.0,
	"gesture.min_draw_y":               150.0,
	"gesture.zoom_threshold":           0.0,
	"gesture.zoom_scale":               2.0,
	"cursor.smoothing":                 0.6,
	"cursor.on_hand_loss":              HandLossFreeze,
	"brush.width":                      8.0,
	"brush.glow":                       15.0,
	"brush.glow_color":                 "",
	"palette.colors":                   palette.DefaultColors,
	"palette.wheel":                    true,
	"speech.command":                   "",
	"speech.timeout":                   "10s",
	"tray.enabled":                     false,
	"log.level":                        "info",
}

// SetDefaults registers every known key with its default value and enables
// AIRPAINT_* environment overrides.
func SetDefaults(v *viper.Viper) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Keys returns the sorted list of known configuration keys.
func Keys() []string {
	keys := make([]string, 0, len(defaults))
	for key := range defaults {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// IsKey reports whether key is a known configuration key.
func IsKey(key string) bool {
	_, ok := defaults[key]
	return ok
}

// SettingsSource lists stored key/value overrides.
type SettingsSource interface {
	All() (map[string]string, error)
}

// ApplyStored layers stored settings over the current viper values.
// Unknown keys are skipped and returned so the caller can report them.
func ApplyStored(v *viper.Viper, src SettingsSource) ([]string, error) {
	settings, err := src.All()
	if err != nil {
		return nil, fmt.Errorf("failed to load stored settings: %w", err)
	}

	var unknown []string
	for key, value := range settings {
		if !IsKey(key) {
			unknown = append(unknown, key)
			continue
		}
		if key == "palette.colors" {
			v.Set(key, splitList(value))
			continue
		}
		v.Set(key, value)
	}
	sort.Strings(unknown)
	return unknown, nil
}

type settingsMap map[string]string

func (m settingsMap) All() (map[string]string, error) {
	return m, nil
}

// Snapshot copies the resolved value of every known key from v into a new
// viper. Later changes to v do not affect the copy.
func Snapshot(v *viper.Viper) *viper.Viper {
	out := viper.New()
	SetDefaults(out)
	if v == nil {
		return out
	}
	for _, key := range Keys() {
		out.Set(key, v.Get(key))
	}
	return out
}

// CheckSetting layers the stored overrides and then key=value over base and
// loads the result, so a value that would stop the next start is rejected
// before it is saved. A nil base means the defaults; a nil stored source
// means no overrides.
func CheckSetting(base *viper.Viper, stored SettingsSource, key, value string) error {
	if !IsKey(key) {
		return fmt.Errorf("%w: unknown setting %q", ErrInvalid, key)
	}
	v := Snapshot(base)
	if stored != nil {
		if _, err := ApplyStored(v, stored); err != nil {
			return err
		}
	}
	if _, err := ApplyStored(v, settingsMap{key: value}); err != nil {
		return err
	}
	_, err := Load(v)
	return err
}

// Load decodes v into a Config and validates it.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if len(cfg.Palette.Colors) == 1 {
		cfg.Palette.Colors = splitList(cfg.Palette.Colors[0])
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges and references.
func (c Config) Validate() error {
	if c.Camera.Width <= 0 || c.Camera.Height <= 0 {
		return fmt.Errorf("%w: camera size %dx%d", ErrInvalid, c.Camera.Width, c.Camera.Height)
	}
	if c.Camera.FPS <= 0 {
		return fmt.Errorf("%w: camera.fps %d", ErrInvalid, c.Camera.FPS)
	}
	if c.Camera.MotionThreshold < 0 || (c.Camera.MotionThreshold > 0 && c.Camera.IdleFPS <= 0) {
		return fmt.Errorf("%w: camera idle throttle %v/%d", ErrInvalid, c.Camera.MotionThreshold, c.Camera.IdleFPS)
	}
	if c.Detector.MaxHands <= 0 {
		return fmt.Errorf("%w: detector.max_hands %d", ErrInvalid, c.Detector.MaxHands)
	}
	if c.Cursor.Smoothing <= 0 || c.Cursor.Smoothing > 1 {
		return fmt.Errorf("%w: cursor.smoothing %v not in (0, 1]", ErrInvalid, c.Cursor.Smoothing)
	}
	if c.Gesture.PinchThreshold <= 0 {
		return fmt.Errorf("%w: gesture.pinch_threshold %v", ErrInvalid, c.Gesture.PinchThreshold)
	}
	if c.Gesture.MinDrawY < 0 || c.Gesture.ZoomThreshold < 0 {
		return fmt.Errorf("%w: negative gesture threshold", ErrInvalid)
	}
	if c.Gesture.ZoomThreshold > 0 && c.Gesture.ZoomScale <= 0 {
		return fmt.Errorf("%w: gesture.zoom_scale %v", ErrInvalid, c.Gesture.ZoomScale)
	}
	if c.Gesture.ZoomThreshold >= c.Gesture.PinchThreshold {
		return fmt.Errorf("%w: gesture.zoom_threshold %v must be below gesture.pinch_threshold %v",
			ErrInvalid, c.Gesture.ZoomThreshold, c.Gesture.PinchThreshold)
	}
	if c.Brush.Width <= 0 || c.Brush.Glow < 0 {
		return fmt.Errorf("%w: brush width %v glow %v", ErrInvalid, c.Brush.Width, c.Brush.Glow)
	}
	if c.Brush.GlowColor != "" {
		if _, err := palette.ParseColor(c.Brush.GlowColor); err != nil {
			return fmt.Errorf("%w: brush.glow_color: %v", ErrInvalid, err)
		}
	}
	if _, err := palette.New(c.Palette.Colors); err != nil {
		return fmt.Errorf("%w: palette.colors: %v", ErrInvalid, err)
	}
	switch c.Cursor.OnHandLoss {
	case HandLossFreeze, HandLossReset:
	default:
		return fmt.Errorf("%w: cursor.on_hand_loss %q", ErrInvalid, c.Cursor.OnHandLoss)
	}
	if c.Speech.Timeout < 0 {
		return fmt.Errorf("%w: speech.timeout %v", ErrInvalid, c.Speech.Timeout)
	}
	return nil
}

func splitList(s string) []string {
	var items []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	return items
}
