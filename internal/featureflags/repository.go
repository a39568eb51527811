package featureflags

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrFlagNotFound is returned when a feature flag is not found.
	ErrFlagNotFound = errors.New("feature flag not found")

	// ErrFlagPinned is returned when a write targets a flag pinned by configuration.
	ErrFlagPinned = errors.New("feature flag is pinned by configuration")
)

// Repository stores the pipeline's degradation switches. Implementations
// return ErrFlagNotFound for keys never written.
type Repository interface {
	GetFlag(ctx context.Context, key string) (*Flag, error)
	GetAllFlags(ctx context.Context) (map[string]*Flag, error)

	// SetFlag creates or updates a feature flag.
	SetFlag(ctx context.Context, flag *Flag) error

	// SetFlags creates or updates multiple feature flags atomically.
	SetFlags(ctx context.Context, flags []*Flag) error

	DeleteFlag(ctx context.Context, key string) error
}

// ParsePinned parses a FEATURE_FLAGS_PINNED value such as
// "weather_cached_only=true,narrative_explanations_disabled". A bare key means
// true. Only known flags may be pinned.
func ParsePinned(spec string) (map[string]bool, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, nil
	}

	known := DefaultFlags()
	pinned := make(map[string]bool)
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, raw, hasValue := strings.Cut(part, "=")
		key = strings.TrimSpace(key)
		if _, ok := known[key]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownFlag, key)
		}
		value := true
		if hasValue {
			v, err := strconv.ParseBool(strings.TrimSpace(raw))
			if err != nil {
				return nil, fmt.Errorf("%w: %q must be a boolean", ErrInvalidFlagValue, key)
			}
			value = v
		}
		pinned[key] = value
	}
	return pinned, nil
}

// PinnedRepository overlays configuration-pinned flags on a base repository.
// Pinned flags always read as their pinned value and cannot be written.
type PinnedRepository struct {
	base     Repository
	pinned   map[string]bool
	pinnedAt time.Time
}

// WithPinned wraps base. With no pinned flags base is returned unchanged.
func WithPinned(base Repository, pinned map[string]bool) Repository {
	if len(pinned) == 0 {
		return base
	}
	cp := make(map[string]bool, len(pinned))
	for k, v := range pinned {
		cp[k] = v
	}
	return &PinnedRepository{base: base, pinned: cp, pinnedAt: time.Now()}
}

func (r *PinnedRepository) pinnedFlag(key string) (*Flag, bool) {
	v, ok := r.pinned[key]
	if !ok {
		return nil, false
	}
	return &Flag{Key: key, Value: v, UpdatedAt: r.pinnedAt}, true
}

// GetFlag returns the pinned value or the stored one.
func (r *PinnedRepository) GetFlag(ctx context.Context, key string) (*Flag, error) {
	if f, ok := r.pinnedFlag(key); ok {
		return f, nil
	}
	return r.base.GetFlag(ctx, key)
}

// GetAllFlags merges pinned values over the stored flags. If the store fails
// the pinned flags are still returned alongside the error.
func (r *PinnedRepository) GetAllFlags(ctx context.Context) (map[string]*Flag, error) {
	flags, err := r.base.GetAllFlags(ctx)
	if flags == nil {
		flags = make(map[string]*Flag, len(r.pinned))
	}
	for key := range r.pinned {
		f, _ := r.pinnedFlag(key)
		flags[key] = f
	}
	return flags, err
}

// SetFlag stores flag unless it is pinned.
func (r *PinnedRepository) SetFlag(ctx context.Context, flag *Flag) error {
	return r.SetFlags(ctx, []*Flag{flag})
}

// SetFlags stores the flags. The batch is rejected whole if any flag is pinned.
func (r *PinnedRepository) SetFlags(ctx context.Context, flags []*Flag) error {
	for _, f := range flags {
		if _, ok := r.pinned[f.Key]; ok {
			return fmt.Errorf("%w: %q", ErrFlagPinned, f.Key)
		}
	}
	return r.base.SetFlags(ctx, flags)
}

// DeleteFlag removes a stored flag unless it is pinned.
func (r *PinnedRepository) DeleteFlag(ctx context.Context, key string) error {
	if _, ok := r.pinned[key]; ok {
		return fmt.Errorf("%w: %q", ErrFlagPinned, key)
	}
	return r.base.DeleteFlag(ctx, key)
}

var _ Repository = (*PinnedRepository)(nil)
