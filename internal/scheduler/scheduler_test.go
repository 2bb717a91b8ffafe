package scheduler

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"EtfPulse/internal/collector"
	"EtfPulse/internal/model"
)

var testPriority = []string{"VT", "VOO", "QQQ"}

func seriesEnding(symbol string, last time.Time, closes ...float64) model.PriceSeries {
	points := make([]model.PricePoint, len(closes))
	for i, c := range closes {
		points[i] = model.PricePoint{
			Date:  last.AddDate(0, 0, -(len(closes) - 1 - i)),
			Close: c,
		}
	}
	return model.PriceSeries{Symbol: symbol, Points: points}
}

type fakeSource struct {
	snap *collector.MarketSnapshot
	err  error
}

func (f *fakeSource) Collect() (*collector.MarketSnapshot, error) { return f.snap, f.err }

type fakeRenderer struct {
	err      error
	lastPath string
}

func (f *fakeRenderer) RenderToTemp(_ model.PriceSeries) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	tmp, err := os.CreateTemp("", "sched-test-*.png")
	if err != nil {
		return "", err
	}
	tmp.WriteString("png")
	tmp.Close()
	f.lastPath = tmp.Name()
	return f.lastPath, nil
}

type fakeStore struct {
	uploadedKey string
	uploadErr   error
	presignErr  error
}

func (f *fakeStore) Upload(_ context.Context, _, key string) error {
	f.uploadedKey = key
	return f.uploadErr
}

func (f *fakeStore) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	if f.presignErr != nil {
		return "", f.presignErr
	}
	return "https://bucket.example.com/" + key + "?sig=abc", nil
}

type fakePusher struct {
	texts   []string
	images  []string
	textErr error
}

func (f *fakePusher) PushText(_ context.Context, text string) error {
	if f.textErr != nil {
		return f.textErr
	}
	f.texts = append(f.texts, text)
	return nil
}

func (f *fakePusher) PushImage(_ context.Context, url string) error {
	f.images = append(f.images, url)
	return nil
}

func testScheduler(src MarketSource, rend ChartRenderer, store ObjectStore, push Pusher, now time.Time) *Scheduler {
	s := NewScheduler(context.Background(), src, rend, store, push, testPriority, "VT", time.Hour)
	s.Now = func() time.Time { return now }
	return s
}

func openSnapshot(last time.Time) *collector.MarketSnapshot {
	return &collector.MarketSnapshot{
		Series: map[string]model.PriceSeries{
			"VT":  seriesEnding("VT", last, 110.35, 109.10, 108.00, 106.50, 104.18, 100.20),
			"VOO": seriesEnding("VOO", last, 300.0, 305.0, 310.0, 308.0, 312.0, 311.0),
			"QQQ": seriesEnding("QQQ", last, 400.0, 405.0, 410.0, 412.0, 414.0, 415.0),
		},
		Failed:      map[string]error{},
		Fx:          model.FxRate{Rate: 147.32, Valid: true},
		ChartSeries: seriesEnding("VT", last, 95.0, 97.0, 99.0, 104.18, 102.0, 100.20),
	}
}

func TestRunDaily_FullPipeline(t *testing.T) {
	last := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)
	now := time.Date(2026, 8, 26, 8, 0, 0, 0, time.UTC)

	rend := &fakeRenderer{}
	store := &fakeStore{}
	push := &fakePusher{}
	s := testScheduler(&fakeSource{snap: openSnapshot(last)}, rend, store, push, now)

	if err := s.RunDaily(); err != nil {
		t.Fatalf("run daily: %v", err)
	}

	if len(push.texts) != 1 {
		t.Fatalf("expected 1 text push, got %d", len(push.texts))
	}
	text := push.texts[0]
	for _, want := range []string{"2026-08-25", "【VT】", "-3.8%", "-9.2%", "USD/JPY: 147.32"} {
		if !strings.Contains(text, want) {
			t.Errorf("digest text missing %q:\n%s", want, text)
		}
	}

	if store.uploadedKey != "charts/2026/08/26/vt_chart.png" {
		t.Errorf("unexpected upload key %q", store.uploadedKey)
	}
	if len(push.images) != 1 || !strings.HasPrefix(push.images[0], "https://") {
		t.Errorf("expected one HTTPS image push, got %v", push.images)
	}
	if _, err := os.Stat(rend.lastPath); !os.IsNotExist(err) {
		t.Errorf("temp chart file %s not removed after run", rend.lastPath)
	}
}

func TestRunDaily_MarketClosedSkips(t *testing.T) {
	last := time.Date(2026, 8, 22, 0, 0, 0, 0, time.UTC) // Saturday session is 3 days stale
	now := time.Date(2026, 8, 26, 8, 0, 0, 0, time.UTC)

	push := &fakePusher{}
	s := testScheduler(&fakeSource{snap: openSnapshot(last)}, &fakeRenderer{}, &fakeStore{}, push, now)

	if err := s.RunDaily(); err != nil {
		t.Fatalf("expected silent skip, got %v", err)
	}
	if len(push.texts) != 0 || len(push.images) != 0 {
		t.Errorf("expected no pushes on closed market, got %d texts %d images", len(push.texts), len(push.images))
	}
}

func TestRunDaily_DegradesMissingSymbol(t *testing.T) {
	last := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)
	now := time.Date(2026, 8, 26, 8, 0, 0, 0, time.UTC)

	snap := openSnapshot(last)
	delete(snap.Series, "VOO")
	snap.Failed["VOO"] = errors.New("fetch failed")

	push := &fakePusher{}
	s := testScheduler(&fakeSource{snap: snap}, &fakeRenderer{}, &fakeStore{}, push, now)

	if err := s.RunDaily(); err != nil {
		t.Fatalf("run should degrade, not fail: %v", err)
	}
	if len(push.texts) != 1 {
		t.Fatalf("expected 1 text push, got %d", len(push.texts))
	}
	if !strings.Contains(push.texts[0], "【VOO】\nPrice: n/a") {
		t.Errorf("expected unavailable VOO section:\n%s", push.texts[0])
	}
}

func TestRunDaily_ChartFailureStillPushesText(t *testing.T) {
	last := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)
	now := time.Date(2026, 8, 26, 8, 0, 0, 0, time.UTC)

	snap := openSnapshot(last)
	snap.ChartSeries = model.PriceSeries{}
	snap.ChartErr = errors.New("chart window fetch failed")

	push := &fakePusher{}
	store := &fakeStore{}
	s := testScheduler(&fakeSource{snap: snap}, &fakeRenderer{}, store, push, now)

	err := s.RunDaily()
	if err == nil {
		t.Fatal("expected the image leg to fail")
	}
	if !errors.Is(err, snap.ChartErr) {
		t.Errorf("expected chart error to surface, got %v", err)
	}
	if len(push.texts) != 1 {
		t.Fatalf("digest text must go out despite chart trouble, got %d pushes", len(push.texts))
	}
	if !strings.Contains(push.texts[0], "【VT】") {
		t.Errorf("unexpected digest text:\n%s", push.texts[0])
	}
	if store.uploadedKey != "" {
		t.Error("nothing should be uploaded without a chart")
	}
	if len(push.images) != 0 {
		t.Error("no image should be pushed without a chart")
	}
}

func TestRunDaily_CollectFailureAborts(t *testing.T) {
	now := time.Date(2026, 8, 26, 8, 0, 0, 0, time.UTC)
	push := &fakePusher{}
	s := testScheduler(&fakeSource{err: collector.ErrDataUnavailable}, &fakeRenderer{}, &fakeStore{}, push, now)

	if err := s.RunDaily(); !errors.Is(err, collector.ErrDataUnavailable) {
		t.Fatalf("expected ErrDataUnavailable, got %v", err)
	}
	if len(push.texts) != 0 {
		t.Error("no text should be pushed when collection fails")
	}
}

func TestRunDaily_TextPushFailureStopsRun(t *testing.T) {
	last := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)
	now := time.Date(2026, 8, 26, 8, 0, 0, 0, time.UTC)

	push := &fakePusher{textErr: errors.New("line rejected")}
	store := &fakeStore{}
	s := testScheduler(&fakeSource{snap: openSnapshot(last)}, &fakeRenderer{}, store, push, now)

	if err := s.RunDaily(); err == nil {
		t.Fatal("expected error when text push fails")
	}
	if store.uploadedKey != "" {
		t.Error("chart should not be uploaded when text push fails")
	}
	if len(push.images) != 0 {
		t.Error("image should not be pushed when text push fails")
	}
}

func TestMarketClosed(t *testing.T) {
	now := time.Date(2026, 8, 26, 8, 0, 0, 0, time.UTC)
	tests := []struct {
		name   string
		latest time.Time
		want   bool
	}{
		{"yesterday", time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC), false},
		{"yesterday late timestamp", time.Date(2026, 8, 25, 23, 0, 0, 0, time.UTC), false},
		{"two days ago", time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC), true},
		{"today", now, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := marketClosed(tt.latest, now); got != tt.want {
				t.Errorf("marketClosed(%v) = %v, want %v", tt.latest, got, tt.want)
			}
		})
	}
}
