package health

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Checker probes one dependency.
type Checker func(ctx context.Context) error

// Service encapsulates health-related checks.
type Service struct {
	mu      sync.RWMutex
	checks  map[string]Checker
	timeout time.Duration
}

// NewService constructs a new health service.
func NewService() *Service {
	return &Service{checks: make(map[string]Checker), timeout: 2 * time.Second}
}

// Register adds a named check. A nil checker is ignored.
func (s *Service) Register(name string, check Checker) {
	if check == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checks[name] = check
}

// WithDB registers a Postgres ping when db is configured.
func (s *Service) WithDB(db *sql.DB) *Service {
	if db != nil {
		s.Register("database", db.PingContext)
	}
	return s
}

// WithRedis registers a Redis ping when client is configured.
func (s *Service) WithRedis(client redis.UniversalClient) *Service {
	if client != nil {
		s.Register("redis", func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
	}
	return s
}

// Report is the outcome of one Status call.
type Report struct {
	OK     bool              `json:"ok"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Status runs every registered check with a shared timeout.
func (s *Service) Status(ctx context.Context) Report {
	s.mu.RLock()
	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	checks := make(map[string]Checker, len(s.checks))
	for k, v := range s.checks {
		checks[k] = v
	}
	s.mu.RUnlock()
	sort.Strings(names)

	report := Report{OK: true}
	if len(names) == 0 {
		return report
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	report.Checks = make(map[string]string, len(names))
	for _, name := range names {
		if err := checks[name](ctx); err != nil {
			report.OK = false
			report.Checks[name] = err.Error()
			continue
		}
		report.Checks[name] = "ok"
	}
	return report
}
