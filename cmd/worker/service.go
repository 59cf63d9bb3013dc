package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/primefit/storefront/internal/orderrequests"
	"github.com/primefit/storefront/pkg/logger"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type ServiceParams struct {
	Logger   *logger.Logger
	Consumer *orderrequests.Consumer
	// Dependencies are pinged before the consumer starts; nil entries are skipped.
	Dependencies map[string]pinger
}

type Service struct {
	logg     *logger.Logger
	consumer *orderrequests.Consumer
	deps     map[string]pinger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.Consumer == nil {
		return nil, errors.New("order request consumer is required")
	}
	return &Service{
		logg:     params.Logger,
		consumer: params.Consumer,
		deps:     params.Dependencies,
	}, nil
}

func (s *Service) ensureReadiness(ctx context.Context) error {
	for name, dep := range s.deps {
		if dep == nil {
			continue
		}
		if err := dep.Ping(ctx); err != nil {
			s.logg.Error(s.logg.WithField(ctx, "dependency", name), "dependency ping failed", err)
			return fmt.Errorf("%s ping failed: %w", name, err)
		}
	}
	s.logg.Info(ctx, "all worker dependencies are ready")
	return nil
}

// Run blocks until ctx is cancelled or the consumer stops.
func (s *Service) Run(ctx context.Context) error {
	if err := s.ensureReadiness(ctx); err != nil {
		return err
	}
	s.logg.Info(ctx, "order request consumer started")
	err := s.consumer.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logg.Error(ctx, "order request consumer stopped unexpectedly", err)
		return err
	}
	s.logg.Info(ctx, "order request consumer stopped")
	return nil
}
