// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package itx

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/iotexproject/iotex-dao/api"
	"github.com/iotexproject/iotex-dao/chainservice"
	"github.com/iotexproject/iotex-dao/config"
	"github.com/iotexproject/iotex-dao/pkg/log"
)

// Server is the dao node instance containing all components.
type Server struct {
	cfg          config.Config
	chainservice *chainservice.ChainService
	apiServer    *api.Server
}

// NewServer creates a new server
func NewServer(cfg config.Config) (*Server, error) {
	return newServer(cfg, false)
}

// NewInMemTestServer creates a test server in memory
func NewInMemTestServer(cfg config.Config) (*Server, error) {
	return newServer(cfg, true)
}

func newServer(cfg config.Config, testing bool) (*Server, error) {
	var opts []chainservice.Option
	if testing {
		opts = []chainservice.Option{
			chainservice.WithTesting(),
		}
	}
	cs, err := chainservice.New(cfg, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "fail to create chain service")
	}
	apiServer, err := api.NewServer(cfg.API, cs)
	if err != nil {
		return nil, errors.Wrap(err, "fail to create api server")
	}
	return &Server{
		cfg:          cfg,
		chainservice: cs,
		apiServer:    apiServer,
	}, nil
}

// Start starts the server
func (s *Server) Start(ctx context.Context) error {
	if err := s.chainservice.Start(ctx); err != nil {
		return errors.Wrap(err, "error when starting chain service")
	}
	if s.apiServer != nil {
		if err := s.apiServer.Start(ctx); err != nil {
			return errors.Wrap(err, "error when starting api server")
		}
	}
	return nil
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	if s.apiServer != nil {
		if err := s.apiServer.Stop(ctx); err != nil {
			return errors.Wrap(err, "error when stopping api server")
		}
	}
	if err := s.chainservice.Stop(ctx); err != nil {
		return errors.Wrap(err, "error when stopping chain service")
	}
	return nil
}

// ChainService returns the chain service hold in Server
func (s *Server) ChainService() *chainservice.ChainService {
	return s.chainservice
}

// APIServer returns the query server, nil if disabled
func (s *Server) APIServer() *api.Server {
	return s.apiServer
}

// StartServer starts a node server and blocks until ctx is done
func StartServer(ctx context.Context, svr *Server) error {
	if err := svr.Start(ctx); err != nil {
		return err
	}
	log.L().Info("DAO node started.", zap.Uint64("tipHeight", svr.chainservice.TipHeight()))

	g, gctx := errgroup.WithContext(ctx)
	if interval := svr.cfg.System.HeartbeatInterval; interval > 0 {
		g.Go(func() error {
			return NewHeartbeatHandler(svr).Run(gctx, interval)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		// gctx is already done, stop with a fresh one
		return svr.Stop(context.Background())
	})
	if err := g.Wait(); err != nil {
		log.L().Error("Failed to stop server.", zap.Error(err))
		return err
	}
	log.L().Info("DAO node stopped.")
	return nil
}
