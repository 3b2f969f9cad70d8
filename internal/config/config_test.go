package config

import (
	"errors"
	"testing"
	"time"

	"github.com/spf13/viper"
)

type mapSource map[string]string

func (m mapSource) All() (map[string]string, error) {
	return m, nil
}

type failingSource struct{}

func (failingSource) All() (map[string]string, error) {
	return nil, errors.New("database locked")
}

func newViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	return v
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(newViper())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Addr != ":8080" {
		t.Errorf("expected addr :8080, got %q", cfg.Server.Addr)
	}
	if cfg.Gesture.PinchThreshold != 40 {
		t.Errorf("expected pinch threshold 40, got %v", cfg.Gesture.PinchThreshold)
	}
	if cfg.Gesture.MinDrawY != 150 {
		t.Errorf("expected min draw y 150, got %v", cfg.Gesture.MinDrawY)
	}
	if cfg.Cursor.Smoothing != 0.6 {
		t.Errorf("expected smoothing 0.6, got %v", cfg.Cursor.Smoothing)
	}
	if cfg.Cursor.OnHandLoss != HandLossFreeze {
		t.Errorf("expected hand loss %q, got %q", HandLossFreeze, cfg.Cursor.OnHandLoss)
	}
	if cfg.Brush.Width != 8 || cfg.Brush.Glow != 15 {
		t.Errorf("expected brush 8/15, got %v/%v", cfg.Brush.Width, cfg.Brush.Glow)
	}
	if len(cfg.Palette.Colors) != 4 || cfg.Palette.Colors[2] != "purple" {
		t.Errorf("expected default palette, got %v", cfg.Palette.Colors)
	}
	if cfg.Camera.Width != 1280 || cfg.Camera.Height != 720 {
		t.Errorf("expected 1280x720, got %dx%d", cfg.Camera.Width, cfg.Camera.Height)
	}
	if cfg.Speech.Timeout != 10*time.Second {
		t.Errorf("expected timeout 10s, got %v", cfg.Speech.Timeout)
	}
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("AIRPAINT_BRUSH_WIDTH", "12")
	t.Setenv("AIRPAINT_PALETTE_COLORS", "blue, #ff8800")

	cfg, err := Load(newViper())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Brush.Width != 12 {
		t.Errorf("expected width 12, got %v", cfg.Brush.Width)
	}
	if len(cfg.Palette.Colors) != 2 || cfg.Palette.Colors[1] != "#ff8800" {
		t.Errorf("expected [blue #ff8800], got %v", cfg.Palette.Colors)
	}
}

func TestApplyStored(t *testing.T) {
	v := newViper()

	unknown, err := ApplyStored(v, mapSource{
		"gesture.pinch_threshold": "55",
		"palette.colors":          "green,white",
		"cursor.on_hand_loss":     "reset",
		"speech.timeout":          "3s",
		"tray.enabled":            "true",
		"bogus.key":               "1",
	})
	if err != nil {
		t.Fatalf("ApplyStored failed: %v", err)
	}
	if len(unknown) != 1 || unknown[0] != "bogus.key" {
		t.Errorf("expected [bogus.key] unknown, got %v", unknown)
	}

	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Gesture.PinchThreshold != 55 {
		t.Errorf("expected pinch threshold 55, got %v", cfg.Gesture.PinchThreshold)
	}
	if len(cfg.Palette.Colors) != 2 || cfg.Palette.Colors[0] != "green" {
		t.Errorf("expected [green white], got %v", cfg.Palette.Colors)
	}
	if cfg.Cursor.OnHandLoss != HandLossReset {
		t.Errorf("expected reset, got %q", cfg.Cursor.OnHandLoss)
	}
	if cfg.Speech.Timeout != 3*time.Second {
		t.Errorf("expected 3s, got %v", cfg.Speech.Timeout)
	}
	if !cfg.Tray.Enabled {
		t.Error("expected tray enabled")
	}
}

func TestApplyStored_SourceError(t *testing.T) {
	if _, err := ApplyStored(newViper(), failingSource{}); err == nil {
		t.Error("expected error from failing source")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  any
	}{
		{"zero width", "camera.width", 0},
		{"zero fps", "camera.fps", 0},
		{"smoothing zero", "cursor.smoothing", 0.0},
		{"smoothing above one", "cursor.smoothing", 1.5},
		{"pinch threshold", "gesture.pinch_threshold", -1.0},
		{"unknown color", "palette.colors", []string{"red", "mauve-ish"}},
		{"empty palette", "palette.colors", []string{}},
		{"hand loss policy", "cursor.on_hand_loss", "teleport"},
		{"brush width", "brush.width", 0.0},
		{"glow color", "brush.glow_color", "#zzzzzz"},
		{"max hands", "detector.max_hands", 0},
		{"zoom above pinch", "gesture.zoom_threshold", 50.0},
		{"zoom equals pinch", "gesture.zoom_threshold", 40.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newViper()
			v.Set(tt.key, tt.val)
			_, err := Load(v)
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestKeys(t *testing.T) {
	keys := Keys()
	if len(keys) != len(defaults) {
		t.Fatalf("expected %d keys, got %d", len(defaults), len(keys))
	}
	for i := 1; i < len(keys); i++ {
		if keys[i-1] > keys[i] {
			t.Fatalf("keys not sorted at %d: %q > %q", i, keys[i-1], keys[i])
		}
	}
	if !IsKey("brush.width") {
		t.Error("brush.width should be a known key")
	}
	if IsKey("brush.size") {
		t.Error("brush.size should not be a known key")
	}
}

func TestCheckSetting(t *testing.T) {
	tests := []struct {
		key     string
		value   string
		wantErr bool
	}{
		{"gesture.pinch_threshold", "55", false},
		{"palette.colors", "blue,#00ff00", false},
		{"cursor.on_hand_loss", "reset", false},
		{"cursor.smoothing", "0", true},
		{"cursor.on_hand_loss", "hide", true},
		{"palette.colors", "mauve", true},
		{"brush.size", "3", true},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			err := CheckSetting(nil, nil, tt.key, tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
			if err != nil && !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestCheckSetting_Layered(t *testing.T) {
	tests := []struct {
		name    string
		stored  mapSource
		env     map[string]string
		key     string
		value   string
		wantErr bool
	}{
		{
			name:    "idle fps against stored motion threshold",
			stored:  mapSource{"camera.motion_threshold": "5"},
			key:     "camera.idle_fps",
			value:   "0",
			wantErr: true,
		},
		{
			name:    "motion threshold against stored idle fps",
			stored:  mapSource{"camera.idle_fps": "0"},
			key:     "camera.motion_threshold",
			value:   "5",
			wantErr: true,
		},
		{
			name:    "zoom scale against stored zoom threshold",
			stored:  mapSource{"gesture.zoom_threshold": "15"},
			key:     "gesture.zoom_scale",
			value:   "0",
			wantErr: true,
		},
		{
			name:    "pinch threshold below stored zoom threshold",
			stored:  mapSource{"gesture.zoom_threshold": "15"},
			key:     "gesture.pinch_threshold",
			value:   "10",
			wantErr: true,
		},
		{
			name:    "zoom threshold against env pinch threshold",
			env:     map[string]string{"AIRPAINT_GESTURE_PINCH_THRESHOLD": "20"},
			key:     "gesture.zoom_threshold",
			value:   "25",
			wantErr: true,
		},
		{
			name:   "candidate replaces stored value",
			stored: mapSource{"camera.motion_threshold": "5", "camera.idle_fps": "2"},
			key:    "camera.idle_fps",
			value:  "4",
		},
		{
			name:   "compatible pair",
			stored: mapSource{"gesture.zoom_threshold": "15"},
			key:    "gesture.zoom_scale",
			value:  "3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			var stored SettingsSource
			if tt.stored != nil {
				stored = tt.stored
			}
			err := CheckSetting(newViper(), stored, tt.key, tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
			if err != nil && !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestCheckSetting_SourceError(t *testing.T) {
	if err := CheckSetting(nil, failingSource{}, "brush.width", "4"); err == nil {
		t.Error("expected error from failing source")
	}
}

func TestSnapshot(t *testing.T) {
	v := newViper()
	v.Set("brush.width", 12.0)

	snap := Snapshot(v)
	v.Set("brush.width", 3.0)

	cfg, err := Load(snap)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Brush.Width != 12 {
		t.Errorf("expected brush width 12, got %v", cfg.Brush.Width)
	}

	if _, err := Load(Snapshot(nil)); err != nil {
		t.Errorf("expected defaults from a nil snapshot, got %v", err)
	}
}
