package services

import (
	"context"
	"fmt"
	"time"

	"github.com/kerbaras/shelf/pkg/data"
	"github.com/kerbaras/shelf/pkg/utils"
)

type ConflictAction int

const (
	ActionSkip ConflictAction = iota
	ActionOverwrite
	ActionRename
)

// AssetSummary is the slice of an asset shown to a resolver.
type AssetSummary struct {
	Slug          string
	Title         string
	Version       string
	FileSizeBytes int64
	UpdatedAt     time.Time
}

func summarize(a *data.Asset) AssetSummary {
	return AssetSummary{
		Slug:          a.Slug,
		Title:         a.Title,
		Version:       a.Version,
		FileSizeBytes: a.FileSizeBytes,
		UpdatedAt:     a.UpdatedAt,
	}
}

// Conflict is raised when an incoming asset's slug collides with an
// existing one.
type Conflict struct {
	Slug     string
	Title    string
	Existing AssetSummary
	Incoming AssetSummary
}

// Resolution decides the conflict. NewSlug is required when Action is
// ActionRename and must be a valid slug.
type Resolution struct {
	Action  ConflictAction
	NewSlug string
}

// ConflictResolver is supplied by the caller; the importer blocks on it
// per conflicting asset, bounded by ImportOptions.ConflictTimeout.
type ConflictResolver interface {
	Resolve(c Conflict) (Resolution, error)
}

// ResolverFunc adapts a function to a ConflictResolver.
type ResolverFunc func(c Conflict) (Resolution, error)

func (f ResolverFunc) Resolve(c Conflict) (Resolution, error) {
	return f(c)
}

// SkipAll resolves every conflict by keeping the existing asset.
func SkipAll() ConflictResolver {
	return ResolverFunc(func(Conflict) (Resolution, error) {
		return Resolution{Action: ActionSkip}, nil
	})
}

// OverwriteAll resolves every conflict by replacing the existing asset.
func OverwriteAll() ConflictResolver {
	return ResolverFunc(func(Conflict) (Resolution, error) {
		return Resolution{Action: ActionOverwrite}, nil
	})
}

// AutoRename resolves conflicts by appending the first free numeric
// suffix: foo-2, foo-3, and so on. taken reports whether a slug is in
// use in the target store.
func AutoRename(taken func(slug string) (bool, error)) ConflictResolver {
	return ResolverFunc(func(c Conflict) (Resolution, error) {
		for n := 2; n < 1000; n++ {
			candidate := fmt.Sprintf("%s-%d", c.Slug, n)
			inUse, err := taken(candidate)
			if err != nil {
				return Resolution{}, err
			}
			if !inUse {
				return Resolution{Action: ActionRename, NewSlug: candidate}, nil
			}
		}
		return Resolution{}, fmt.Errorf("no free slug for %q", c.Slug)
	})
}

// resolveBounded invokes the resolver on its own goroutine so a stalled
// caller cannot wedge the import loop: after timeout (when positive) the
// conflict defaults to skip.
func resolveBounded(ctx context.Context, r ConflictResolver, c Conflict, timeout time.Duration) (Resolution, error) {
	type outcome struct {
		res Resolution
		err error
	}

	ch := make(chan outcome, 1)
	go func() {
		res, err := r.Resolve(c)
		ch <- outcome{res, err}
	}()

	var expired <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		expired = t.C
	}

	select {
	case out := <-ch:
		return out.res, out.err
	case <-expired:
		return Resolution{Action: ActionSkip}, nil
	case <-ctx.Done():
		return Resolution{}, ctx.Err()
	}
}

// validateRename checks a rename resolution's replacement slug.
func validateRename(res Resolution) error {
	if res.NewSlug == "" {
		return fmt.Errorf("rename resolution missing new slug")
	}
	if !utils.IsValidSlug(res.NewSlug) {
		return fmt.Errorf("invalid slug %q", res.NewSlug)
	}
	return nil
}
