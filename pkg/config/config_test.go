package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.Scheduler.DayStartHour != 8 || cfg.Scheduler.DayEndHour != 20 {
		t.Fatalf("expected 8-20 day window, got %d-%d", cfg.Scheduler.DayStartHour, cfg.Scheduler.DayEndHour)
	}
	if cfg.Redis.IdempotencyTTL != 24*time.Hour {
		t.Fatalf("expected 24h idempotency ttl, got %s", cfg.Redis.IdempotencyTTL)
	}
	if cfg.NATS.URL != "" {
		t.Fatalf("expected empty NATS url by default, got %q", cfg.NATS.URL)
	}
}

func TestLoad_SchedulerBounds(t *testing.T) {
	tests := []struct {
		name       string
		start, end string
		wantStart  int
		wantEnd    int
	}{
		{"custom window", "9", "17", 9, 17},
		{"inverted window", "18", "9", 8, 20},
		{"end past midnight", "8", "24", 8, 20},
		{"garbage", "x", "y", 8, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("SCHEDULER_DAY_START_HOUR", tt.start)
			t.Setenv("SCHEDULER_DAY_END_HOUR", tt.end)

			cfg := Load()
			if cfg.Scheduler.DayStartHour != tt.wantStart || cfg.Scheduler.DayEndHour != tt.wantEnd {
				t.Fatalf("got %d-%d, want %d-%d", cfg.Scheduler.DayStartHour, cfg.Scheduler.DayEndHour, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestLoad_CORSList(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")

	cfg := Load()
	if len(cfg.CORS.AllowedOrigins) != 2 {
		t.Fatalf("expected 2 origins, got %v", cfg.CORS.AllowedOrigins)
	}
	if cfg.CORS.AllowedOrigins[1] != "https://b.example" {
		t.Fatalf("expected trimmed origin, got %q", cfg.CORS.AllowedOrigins[1])
	}
}
