package featureflags_test

import (
	"context"
	"errors"
	"testing"

	"github.com/flightrisk/flightrisk/internal/featureflags"
)

// downRepository fails every call, like an unreachable Postgres.
type downRepository struct{}

var errStoreDown = errors.New("connection refused")

func (downRepository) GetFlag(context.Context, string) (*featureflags.Flag, error) {
	return nil, errStoreDown
}

func (downRepository) GetAllFlags(context.Context) (map[string]*featureflags.Flag, error) {
	return nil, errStoreDown
}

func (downRepository) SetFlag(context.Context, *featureflags.Flag) error { return errStoreDown }

func (downRepository) SetFlags(context.Context, []*featureflags.Flag) error { return errStoreDown }

func (downRepository) DeleteFlag(context.Context, string) error { return errStoreDown }

func TestParsePinned(t *testing.T) {
	pinned, err := featureflags.ParsePinned(" weather_cached_only=true, narrative_explanations_disabled ,layover_batch_analysis_disabled=false")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[string]bool{
		featureflags.FlagWeatherCachedOnly:             true,
		featureflags.FlagNarrativeExplanationsDisabled: true,
		featureflags.FlagLayoverBatchAnalysisDisabled:  false,
	}
	if len(pinned) != len(want) {
		t.Fatalf("expected %d pinned flags, got %d", len(want), len(pinned))
	}
	for k, v := range want {
		if pinned[k] != v {
			t.Errorf("%s: expected %v, got %v", k, v, pinned[k])
		}
	}

	empty, err := featureflags.ParsePinned("  ")
	if err != nil || empty != nil {
		t.Errorf("expected nil map for empty spec, got %v, %v", empty, err)
	}
}

func TestParsePinned_Rejects(t *testing.T) {
	if _, err := featureflags.ParsePinned("weather_cache_only=true"); !errors.Is(err, featureflags.ErrUnknownFlag) {
		t.Errorf("expected ErrUnknownFlag for a misspelled key, got %v", err)
	}
	if _, err := featureflags.ParsePinned("weather_cached_only=maybe"); !errors.Is(err, featureflags.ErrInvalidFlagValue) {
		t.Errorf("expected ErrInvalidFlagValue, got %v", err)
	}
}

func TestWithPinned_NoPinsReturnsBase(t *testing.T) {
	base := featureflags.NewInMemoryRepository()
	if got := featureflags.WithPinned(base, nil); got != featureflags.Repository(base) {
		t.Error("expected the base repository when nothing is pinned")
	}
}

func TestWithPinned_ShadowsStoredValue(t *testing.T) {
	ctx := context.Background()
	base := featureflags.NewInMemoryRepository()
	if err := base.SetFlag(ctx, &featureflags.Flag{Key: featureflags.FlagWeatherCachedOnly, Value: false}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	repo := featureflags.WithPinned(base, map[string]bool{featureflags.FlagWeatherCachedOnly: true})
	service := newTestService(repo)

	if !service.WeatherCachedOnly(ctx) {
		t.Error("expected pinned weather_cached_only to read true")
	}
	if service.NarrativeExplanationsDisabled(ctx) {
		t.Error("expected unpinned flag to keep its stored value")
	}
}

func TestWithPinned_RejectsWrites(t *testing.T) {
	ctx := context.Background()
	base := featureflags.NewInMemoryRepository()
	repo := featureflags.WithPinned(base, map[string]bool{featureflags.FlagLayoverBatchAnalysisDisabled: true})
	service := newTestService(repo)

	_, err := service.ApplyUpdates(ctx, featureflags.FlagUpdateRequest{
		Updates: []featureflags.FlagUpdate{
			{Key: featureflags.FlagNarrativeExplanationsDisabled, Value: true},
			{Key: featureflags.FlagLayoverBatchAnalysisDisabled, Value: false},
		},
		Reason: "incident 42",
	})
	if !errors.Is(err, featureflags.ErrFlagPinned) {
		t.Fatalf("expected ErrFlagPinned, got %v", err)
	}

	// The batch is rejected whole.
	stored, err := base.GetFlag(ctx, featureflags.FlagNarrativeExplanationsDisabled)
	if err != nil {
		t.Fatalf("expected default flag in base, got %v", err)
	}
	if stored.BoolValue(true) {
		t.Error("expected narrative flag to stay false after rejected batch")
	}

	if err := repo.DeleteFlag(ctx, featureflags.FlagLayoverBatchAnalysisDisabled); !errors.Is(err, featureflags.ErrFlagPinned) {
		t.Errorf("expected ErrFlagPinned on delete, got %v", err)
	}
}

func TestWithPinned_SurvivesStoreOutage(t *testing.T) {
	ctx := context.Background()
	repo := featureflags.WithPinned(downRepository{}, map[string]bool{featureflags.FlagNarrativeExplanationsDisabled: true})
	service := newTestService(repo)

	if !service.NarrativeExplanationsDisabled(ctx) {
		t.Error("expected pinned flag while the store is down")
	}

	all := service.GetAllFlags(ctx)
	if !all[featureflags.FlagNarrativeExplanationsDisabled].BoolValue(false) {
		t.Error("expected GetAllFlags to include the pinned value during an outage")
	}
	if all[featureflags.FlagWeatherCachedOnly].BoolValue(true) {
		t.Error("expected unpinned flags to fall back to defaults")
	}
}
