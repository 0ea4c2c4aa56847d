package api

import (
	"github.com/JaimeStill/churnstudio/internal/dashboard"
	"github.com/JaimeStill/churnstudio/pkg/lifecycle"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Dashboard dashboard.System
}

// NewDomain creates all domain systems from the API runtime. Backend calls
// are bound to the lifecycle context so shutdown cancels them.
func NewDomain(runtime *Runtime) *Domain {
	store := dashboard.NewStore(dashboard.StoreConfig{
		CookieName:     runtime.Dashboard.CookieName,
		TTL:            runtime.Dashboard.SessionTTLDuration(),
		StatusWindow:   runtime.Client.StatusWindowDuration(),
		DefaultBaseURL: runtime.Client.DefaultBaseURL,
	}, runtime.Logger)

	dashboardSystem := dashboard.New(
		runtime.Lifecycle.Context(),
		runtime.Churn,
		store,
		runtime.Logger,
		runtime.Pagination,
		runtime.Dashboard.SweepIntervalDuration(),
	)

	return &Domain{
		Dashboard: dashboardSystem,
	}
}

// Start registers every domain system with the lifecycle coordinator.
func (d *Domain) Start(lc *lifecycle.Coordinator) error {
	return d.Dashboard.Start(lc)
}
