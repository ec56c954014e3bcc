// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package itx

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/iotexproject/iotex-dao/action/protocol/governance"
	"github.com/iotexproject/iotex-dao/pkg/log"
)

var heartbeatMtc = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "iotex_dao_heartbeat_status",
		Help: "Node heartbeat status.",
	},
	[]string{"status_type", "source"},
)

func init() {
	prometheus.MustRegister(heartbeatMtc)
}

// HeartbeatHandler is the handler to periodically log the system key metrics
type HeartbeatHandler struct {
	s *Server
}

// NewHeartbeatHandler instantiates a HeartbeatHandler instance
func NewHeartbeatHandler(s *Server) *HeartbeatHandler {
	return &HeartbeatHandler{s: s}
}

// Log executes the logging logic
func (h *HeartbeatHandler) Log() {
	cs := h.s.ChainService()
	sr := cs.ReadView()
	height := cs.TipHeight()
	constructed, err := cs.DAO().IsConstructed(sr)
	if err != nil {
		log.L().Error("error when reading the dao state.", zap.Error(err))
		return
	}
	log.L().Info("Node status.",
		zap.Stringer("status", cs.Status()),
		zap.Uint64("blockchainHeight", height),
		zap.Bool("constructed", constructed))
	heartbeatMtc.WithLabelValues("blockchainHeight", "node").Set(float64(height))

	for _, e := range []*governance.Engine{
		cs.ActionProposals().Engine,
		cs.CoreProposals().Engine,
	} {
		c, err := e.Counters(sr)
		if err != nil {
			log.L().Error("error when reading proposal counters.", zap.Error(err))
			return
		}
		source := e.Name()
		log.L().Info("proposal engine status",
			zap.String("engine", source),
			zap.Uint64("total", c.Total),
			zap.Uint64("concluded", c.Concluded),
			zap.Uint64("executed", c.Executed))
		heartbeatMtc.WithLabelValues("totalProposals", source).Set(float64(c.Total))
		heartbeatMtc.WithLabelValues("concludedProposals", source).Set(float64(c.Concluded))
		heartbeatMtc.WithLabelValues("executedProposals", source).Set(float64(c.Executed))
	}
}

// Run calls Log every interval until ctx is done
func (h *HeartbeatHandler) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			h.Log()
		}
	}
}
