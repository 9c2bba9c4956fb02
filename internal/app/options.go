package service

import (
	"time"

	"github.com/okian/talentflow/internal/adapters/repository"
	"github.com/okian/talentflow/internal/adapters/transport"
	"github.com/okian/talentflow/internal/domain/outreach"
	"github.com/okian/talentflow/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of dispatch workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the dispatch queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithInflightSize bounds how many (campaign, talent) pairs are tracked as
// pending at once.
func WithInflightSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.inflightSize = size
		}
	}
}

// WithTickInterval sets the scheduler period.
func WithTickInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.tickInterval = d
		}
	}
}

// WithStorage selects the storage driver opened on Start. path is used by
// the sqlite driver only.
func WithStorage(driver, path string) Option {
	return func(s *Service) {
		s.driver = driver
		s.sqlitePath = path
	}
}

// WithStore uses an already open store. The service does not close it.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithSeedPath loads a YAML seed document into the store on Start.
func WithSeedPath(path string) Option {
	return func(s *Service) {
		s.seedPath = path
	}
}

// WithTransport replaces the logging transport used for delivery.
func WithTransport(t transport.Transport) Option {
	return func(s *Service) {
		if t != nil {
			s.transport = t
		}
	}
}

// WithEngineOptions passes options through to the outreach engine.
func WithEngineOptions(opts ...outreach.Option) Option {
	return func(s *Service) {
		s.engineOpts = append(s.engineOpts, opts...)
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
