package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/hospitalops/kpi-engine/internal/dataset"
	"github.com/hospitalops/kpi-engine/internal/kpi"
	"github.com/hospitalops/kpi-engine/internal/rbac"
)

// maxParallel bounds how many modules one dashboard computes at once.
const maxParallel = 4

// Store is the snapshot store the service reads from.
type Store interface {
	Version(ctx context.Context, tenant string) (int64, error)
	LoadBundle(ctx context.Context, tenant string, modules []string) (*dataset.Bundle, error)
}

// Observer receives calculation timings.
type Observer interface {
	ObserveCalculation(module string, records int, elapsed time.Duration)
}

// Request selects a tenant and a time window.
type Request struct {
	Tenant string
	Role   rbac.Role
	Window kpi.Window
}

// Dashboard is the set of module results a role may view.
type Dashboard struct {
	Tenant  string         `json:"tenant"`
	Role    rbac.Role      `json:"role"`
	Period  kpi.Period     `json:"period"`
	Ref     string         `json:"ref"`
	Version int64          `json:"version"`
	Modules map[string]any `json:"modules"`
}

// Service loads tenant snapshots and runs the calculators.
type Service struct {
	store    Store
	opts     Options
	observer Observer
	logger   *slog.Logger
	group    singleflight.Group
}

// NewService constructs the service. observer may be nil.
func NewService(store Store, opts Options, observer Observer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, opts: opts, observer: observer, logger: logger}
}

// Options returns the calculator options in use.
func (s *Service) Options() Options { return s.opts }

// Module computes a single module result.
func (s *Service) Module(ctx context.Context, tenant, module string, w kpi.Window) (any, error) {
	if err := dataset.ValidateModule(module); err != nil {
		return nil, err
	}
	bundle, err := s.store.LoadBundle(ctx, tenant, []string{module})
	if err != nil {
		return nil, fmt.Errorf("dashboard: load %s: %w", module, err)
	}
	return s.compute(module, bundle, w)
}

// Build computes every module the role can view. Identical concurrent requests against the
// same dataset version share one computation.
func (s *Service) Build(ctx context.Context, req Request) (Dashboard, error) {
	modules := rbac.Viewable(req.Role)
	if len(modules) == 0 {
		return Dashboard{}, fmt.Errorf("dashboard: role %q: %w", req.Role, rbac.ErrUnknownRole)
	}
	ver, err := s.store.Version(ctx, req.Tenant)
	if err != nil {
		return Dashboard{}, fmt.Errorf("dashboard: version: %w", err)
	}
	key := strings.Join([]string{
		req.Tenant,
		string(req.Role),
		string(req.Window.Period),
		req.Window.Ref.Format(time.RFC3339),
		strconv.FormatInt(ver, 10),
	}, "|")

	ch := s.group.DoChan(key, func() (any, error) {
		return s.build(context.WithoutCancel(ctx), req, modules, ver)
	})
	select {
	case <-ctx.Done():
		return Dashboard{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Dashboard{}, res.Err
		}
		if res.Shared {
			s.logger.Debug("dashboard shared", slog.String("tenant", req.Tenant), slog.String("role", string(req.Role)))
		}
		return res.Val.(Dashboard), nil
	}
}

func (s *Service) build(ctx context.Context, req Request, modules []string, ver int64) (Dashboard, error) {
	bundle, err := s.store.LoadBundle(ctx, req.Tenant, modules)
	if err != nil {
		return Dashboard{}, fmt.Errorf("dashboard: load bundle: %w", err)
	}

	results := make([]any, len(modules))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(maxParallel)
	for i, module := range modules {
		g.Go(func() error {
			res, err := s.compute(module, bundle, req.Window)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}

	out := Dashboard{
		Tenant:  req.Tenant,
		Role:    req.Role,
		Period:  req.Window.Period,
		Ref:     req.Window.Ref.Format("2006-01-02"),
		Version: ver,
		Modules: make(map[string]any, len(modules)),
	}
	for i, module := range modules {
		out.Modules[module] = results[i]
	}
	return out, nil
}

func (s *Service) compute(module string, bundle *dataset.Bundle, w kpi.Window) (any, error) {
	start := time.Now()
	res, err := Compute(module, bundle, w, s.opts)
	if err != nil {
		return nil, err
	}
	if s.observer != nil {
		s.observer.ObserveCalculation(module, bundle.Count(module), time.Since(start))
	}
	return res, nil
}
