package settings

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func strPtr(s string) *string { return &s }

func TestDefaults(t *testing.T) {
	d := Defaults()
	if d.ThemeMode != ThemeSystemDefault || d.ChartMode != ChartHorizontal || d.ChartSpan != SpanMonth {
		t.Errorf("Defaults() = %+v", d)
	}
	if d.ReminderTime.String() != "20:00" {
		t.Errorf("Defaults().ReminderTime = %s, want 20:00", d.ReminderTime)
	}
}

func TestNormalize_UnknownValues(t *testing.T) {
	s := Settings{ThemeMode: "PURPLE", ChartMode: "DIAGONAL", ChartSpan: "YEAR", ReminderTime: ReminderTime{Hour: 25}}
	if got := s.Normalize(); got != Defaults() {
		t.Errorf("Normalize() = %+v, want defaults", got)
	}
	ok := Settings{ThemeMode: ThemeDark, ChartMode: ChartVertical, ChartSpan: SpanWeek, ReminderTime: ReminderTime{Hour: 7, Minute: 30}}
	if got := ok.Normalize(); got != ok {
		t.Errorf("Normalize() changed valid settings: %+v", got)
	}
}

func TestChartSpan_Days(t *testing.T) {
	if SpanWeek.Days() != 7 || SpanMonth.Days() != 30 {
		t.Errorf("Days() week=%d month=%d", SpanWeek.Days(), SpanMonth.Days())
	}
}

func TestPatch_Apply(t *testing.T) {
	p := Patch{ThemeMode: strPtr("dark"), ReminderTime: strPtr("07:45")}
	got, err := p.Apply(Defaults())
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	want := Defaults()
	want.ThemeMode = ThemeDark
	want.ReminderTime = ReminderTime{Hour: 7, Minute: 45}
	if got != want {
		t.Errorf("Apply() = %+v, want %+v", got, want)
	}
}

func TestPatch_Apply_Invalid(t *testing.T) {
	tests := []struct {
		name string
		p    Patch
		key  string
	}{
		{"theme", Patch{ThemeMode: strPtr("neon")}, "theme_mode"},
		{"chart mode", Patch{ChartMode: strPtr("diagonal")}, "chart_mode"},
		{"span", Patch{ChartSpan: strPtr("year")}, "chart_span"},
		{"reminder", Patch{ReminderTime: strPtr("25:00")}, "reminder_time"},
		{"valid then invalid", Patch{ThemeMode: strPtr("LIGHT"), ChartSpan: strPtr("day")}, "chart_span"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.p.Apply(Defaults())
			var inv *InvalidError
			if !errors.As(err, &inv) {
				t.Fatalf("Apply() error = %v, want *InvalidError", err)
			}
			if inv.Key != tt.key {
				t.Errorf("InvalidError.Key = %q, want %q", inv.Key, tt.key)
			}
			if got != Defaults() {
				t.Errorf("Apply() returned modified settings on error: %+v", got)
			}
		})
	}
}

func TestService_UpdatePersistsAndMerges(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryStore())

	if _, err := svc.Update(ctx, 1, Patch{ChartSpan: strPtr("WEEK")}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	got, err := svc.Update(ctx, 1, Patch{ChartMode: strPtr("VERTICAL")})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got.ChartSpan != SpanWeek || got.ChartMode != ChartVertical || got.ThemeMode != ThemeSystemDefault {
		t.Errorf("Update() = %+v, want merged settings", got)
	}

	stored, _ := svc.Get(ctx, 1)
	if stored != got {
		t.Errorf("Get() = %+v, want %+v", stored, got)
	}
	other, _ := svc.Get(ctx, 2)
	if other != Defaults() {
		t.Errorf("Get() for untouched user = %+v, want defaults", other)
	}
}

func TestService_InvalidPatchDoesNotNotify(t *testing.T) {
	svc := NewService(NewMemoryStore())
	called := false
	svc.Watch(func(Change) { called = true })

	if _, err := svc.Update(context.Background(), 1, Patch{ThemeMode: strPtr("neon")}); err == nil {
		t.Fatal("Update() error = nil, want error")
	}
	if called {
		t.Error("watcher called for a rejected patch")
	}
	list, _ := svc.List(context.Background())
	if len(list) != 0 {
		t.Errorf("List() = %+v, want nothing saved", list)
	}
}

func TestService_SubscribeAndWatch(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryStore())

	var mu sync.Mutex
	var changes []Change
	svc.Watch(func(c Change) {
		mu.Lock()
		changes = append(changes, c)
		mu.Unlock()
	})

	ch, cancel := svc.Subscribe(1)
	defer cancel()
	otherCh, cancelOther := svc.Subscribe(2)
	defer cancelOther()

	_, _ = svc.Update(ctx, 1, Patch{ThemeMode: strPtr("LIGHT")})
	_, _ = svc.Update(ctx, 1, Patch{ThemeMode: strPtr("DARK")})

	select {
	case got := <-ch:
		if got.ThemeMode != ThemeDark {
			t.Errorf("Subscribe() delivered %s, want latest DARK", got.ThemeMode)
		}
	case <-time.After(time.Second):
		t.Fatal("Subscribe() delivered nothing")
	}

	select {
	case got := <-otherCh:
		t.Errorf("user 2 received %+v", got)
	default:
	}

	mu.Lock()
	defer mu.Unlock()
	if len(changes) != 2 || changes[1].UserID != 1 || changes[1].Settings.ThemeMode != ThemeDark {
		t.Errorf("Watch() changes = %+v", changes)
	}
}

func TestService_CancelClosesChannel(t *testing.T) {
	svc := NewService(NewMemoryStore())
	ch, cancel := svc.Subscribe(1)
	cancel()
	cancel()
	if _, ok := <-ch; ok {
		t.Error("channel still open after cancel")
	}
	if _, err := svc.Update(context.Background(), 1, Patch{ChartSpan: strPtr("WEEK")}); err != nil {
		t.Errorf("Update() after cancel error = %v", err)
	}
}

func TestParseReminderTime(t *testing.T) {
	rt, err := ParseReminderTime("06:05")
	if err != nil || rt != (ReminderTime{Hour: 6, Minute: 5}) {
		t.Errorf("ParseReminderTime(06:05) = %+v, %v", rt, err)
	}
	for _, bad := range []string{"", "6pm", "24:00", "12:60"} {
		if _, err := ParseReminderTime(bad); err == nil {
			t.Errorf("ParseReminderTime(%q) error = nil", bad)
		}
	}
}
