package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEmptyConfigDefaults(t *testing.T) {
	cfg := EmptyControllerConfig()

	if cfg.GetLaw() != "geometric" {
		t.Errorf("GetLaw() = %q, want \"geometric\"", cfg.GetLaw())
	}
	if cfg.GetGravity() != 9.81 {
		t.Errorf("GetGravity() = %v, want 9.81", cfg.GetGravity())
	}
	if cfg.GetHoverPercentage() != 0.3 {
		t.Errorf("GetHoverPercentage() = %v, want 0.3", cfg.GetHoverPercentage())
	}
	if cfg.GetForgettingFactor() != 0.998 {
		t.Errorf("GetForgettingFactor() = %v, want 0.998", cfg.GetForgettingFactor())
	}
	if cfg.GetCycleRateHz() != 100 {
		t.Errorf("GetCycleRateHz() = %v, want 100", cfg.GetCycleRateHz())
	}
	if kp := cfg.GetKp(); kp.Z != 2.0 {
		t.Errorf("GetKp().Z = %v, want 2.0", kp.Z)
	}
	if kv := cfg.GetKv(); kv.X != 1.2 {
		t.Errorf("GetKv().X = %v, want 1.2", kv.X)
	}
}

func TestLoadPartialConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "controller.json")
	if err := os.WriteFile(path, []byte(`{"law": "linear", "hover_percentage": 0.42}`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadControllerConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.GetLaw() != "linear" {
		t.Errorf("GetLaw() = %q, want \"linear\"", cfg.GetLaw())
	}
	if cfg.GetHoverPercentage() != 0.42 {
		t.Errorf("GetHoverPercentage() = %v, want 0.42", cfg.GetHoverPercentage())
	}
	// Omitted fields keep defaults.
	if cfg.GetGravity() != 9.81 {
		t.Errorf("GetGravity() = %v, want default 9.81", cfg.GetGravity())
	}
}

func TestLoadRejectsBadExtension(t *testing.T) {
	if _, err := LoadControllerConfig("controller.yaml"); err == nil {
		t.Error("expected error for non-.json extension")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"unknown law", `{"law": "adaptive"}`},
		{"zero hover", `{"hover_percentage": 0}`},
		{"hover above one", `{"hover_percentage": 1.5}`},
		{"zero forgetting factor", `{"forgetting_factor": 0}`},
		{"negative gravity", `{"gravity": -9.81}`},
		{"negative gain", `{"kp": [1, -1, 1]}`},
		{"zero rate", `{"cycle_rate_hz": 0}`},
	}

	dir := t.TempDir()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(dir, "bad.json")
			if err := os.WriteFile(path, []byte(tc.body), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadControllerConfig(path); err == nil {
				t.Errorf("expected validation error for %s", tc.body)
			}
		})
	}
}

func TestMustLoadDefaultConfig(t *testing.T) {
	cfg := MustLoadDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults file invalid: %v", err)
	}
	if cfg.Law == nil || cfg.HoverPercentage == nil {
		t.Error("defaults file must pin law and hover_percentage")
	}
}
