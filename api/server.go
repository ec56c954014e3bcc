// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package api

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"math/big"
	"net/http"
	"strconv"
	"time"

	"github.com/iotexproject/iotex-address/address"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/iotexproject/iotex-dao/action/protocol"
	"github.com/iotexproject/iotex-dao/action/protocol/dao"
	"github.com/iotexproject/iotex-dao/action/protocol/extension/treasury"
	"github.com/iotexproject/iotex-dao/action/protocol/governance"
	"github.com/iotexproject/iotex-dao/action/protocol/governance/actionproposals"
	"github.com/iotexproject/iotex-dao/action/protocol/governance/coreproposals"
	"github.com/iotexproject/iotex-dao/action/protocol/token"
	"github.com/iotexproject/iotex-dao/action/protocol/votingpower"
	"github.com/iotexproject/iotex-dao/config"
	"github.com/iotexproject/iotex-dao/pkg/log"
)

var (
	// ErrInvalidArgument is returned for malformed path arguments
	ErrInvalidArgument = errors.New("invalid argument")
)

type (
	// CoreService is the DAO service the server reads from
	CoreService interface {
		IsReady() bool
		TipHeight() uint64
		ReadView() protocol.StateReader
		DAO() *dao.DAO
		Token() *token.Ledger
		Oracle() *votingpower.Oracle
		ActionProposals() *actionproposals.Protocol
		CoreProposals() *coreproposals.Protocol
		Treasury() *treasury.Protocol
	}

	// Server is the read-only HTTP JSON query server
	Server struct {
		core  CoreService
		cache *ReadCache
		svr   *http.Server
	}

	proposalView struct {
		ID           uint64 `json:"id,omitempty"`
		Target       string `json:"target"`
		Parameters   string `json:"parameters,omitempty"`
		Bond         string `json:"bond"`
		Creator      string `json:"creator"`
		Caller       string `json:"caller"`
		CreatedAt    uint64 `json:"createdAt"`
		StartBlock   uint64 `json:"startBlock"`
		EndBlock     uint64 `json:"endBlock"`
		ExecStart    uint64 `json:"execStart"`
		ExecEnd      uint64 `json:"execEnd"`
		LiquidTokens string `json:"liquidTokens"`
		VotesFor     string `json:"votesFor"`
		VotesAgainst string `json:"votesAgainst"`
		Concluded    bool   `json:"concluded"`
		MetQuorum    bool   `json:"metQuorum"`
		MetThreshold bool   `json:"metThreshold"`
		Passed       bool   `json:"passed"`
		Executed     bool   `json:"executed"`
		Expired      bool   `json:"expired"`
	}

	countersView struct {
		Total               uint64 `json:"total"`
		Concluded           uint64 `json:"concluded"`
		Executed            uint64 `json:"executed"`
		LastProposalCreated uint64 `json:"lastProposalCreated"`
	}

	errorView struct {
		Error   string `json:"error"`
		Code    uint64 `json:"code,omitempty"`
		Message string `json:"message"`
	}
)

// NewServer creates the query server, it returns nil if the api is disabled
func NewServer(cfg config.API, core CoreService) (*Server, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	cache, err := NewReadCache(cfg.ReadCacheTTL, cfg.ReadCacheSize)
	if err != nil {
		return nil, err
	}
	s := &Server{
		core:  core,
		cache: cache,
	}
	s.svr = &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Start starts the http server
func (s *Server) Start(_ context.Context) error {
	go func() {
		if err := s.svr.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.L().Fatal("Node failed to serve.", zap.Error(err))
		}
	}()
	log.Logger("api").Info("API server started.", zap.String("addr", s.svr.Addr))
	return nil
}

// Stop stops the http server
func (s *Server) Stop(ctx context.Context) error {
	s.cache.Clear()
	return s.svr.Shutdown(ctx)
}

// Handler returns the routes of the server
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/liveness", successHandleFunc)
	mux.HandleFunc("/health", s.readiness)
	mux.HandleFunc("/readiness", s.readiness)
	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("GET /tip", s.tip)
	mux.HandleFunc("GET /dao/constructed", s.constructed)
	mux.HandleFunc("GET /dao/extensions/{addr}", s.extension)
	mux.HandleFunc("GET /dao/executed/{addr}", s.executed)
	mux.HandleFunc("GET /tokens/{addr}", s.balance)
	mux.HandleFunc("GET /treasury/{asset}", s.treasuryBalance)
	mux.HandleFunc("GET /liquid-supply/{height}", s.liquidSupply)

	mux.HandleFunc("GET /action-proposals/total", s.counters(s.core.ActionProposals().Engine))
	mux.HandleFunc("GET /action-proposals/config", s.configuration(s.core.ActionProposals().Engine))
	mux.HandleFunc("GET /action-proposals/{id}", s.actionProposal)
	mux.HandleFunc("GET /action-proposals/{id}/votes/{voter}", s.actionVote)
	mux.HandleFunc("GET /action-proposals/{id}/voting-power/{voter}", s.actionVotingPower)

	mux.HandleFunc("GET /core-proposals/total", s.counters(s.core.CoreProposals().Engine))
	mux.HandleFunc("GET /core-proposals/config", s.configuration(s.core.CoreProposals().Engine))
	mux.HandleFunc("GET /core-proposals/{addr}", s.coreProposal)
	mux.HandleFunc("GET /core-proposals/{addr}/votes/{voter}", s.coreVote)
	mux.HandleFunc("GET /core-proposals/{addr}/voting-power/{voter}", s.coreVotingPower)
	return mux
}

func (s *Server) readiness(w http.ResponseWriter, r *http.Request) {
	if !s.core.IsReady() {
		failureHandleFunc(w, r)
		return
	}
	successHandleFunc(w, r)
}

func (s *Server) tip(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]uint64{"height": s.core.TipHeight()})
}

func (s *Server) constructed(w http.ResponseWriter, _ *http.Request) {
	height, ok, err := s.core.DAO().ConstructedAt(s.core.ReadView())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]interface{}{
		"constructed":   ok,
		"constructedAt": height,
	})
}

func (s *Server) extension(w http.ResponseWriter, r *http.Request) {
	addr, err := pathAddress(r, "addr")
	if err != nil {
		writeError(w, err)
		return
	}
	enabled, err := s.core.DAO().IsExtension(s.core.ReadView(), addr)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]interface{}{
		"extension": addr.String(),
		"enabled":   enabled,
	})
}

func (s *Server) executed(w http.ResponseWriter, r *http.Request) {
	addr, err := pathAddress(r, "addr")
	if err != nil {
		writeError(w, err)
		return
	}
	height, ok, err := s.core.DAO().ExecutedAt(s.core.ReadView(), addr)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]interface{}{
		"proposal": addr.String(),
		"executed": ok,
		"height":   height,
	})
}

func (s *Server) balance(w http.ResponseWriter, r *http.Request) {
	addr, err := pathAddress(r, "addr")
	if err != nil {
		writeError(w, err)
		return
	}
	sr := s.core.ReadView()
	if h := r.URL.Query().Get("height"); h != "" {
		height, err := strconv.ParseUint(h, 10, 64)
		if err != nil {
			writeError(w, errors.Wrap(ErrInvalidArgument, err.Error()))
			return
		}
		s.settled(w, ReadKey{Name: "balance", Height: height, Args: []string{addr.String()}}, func() (interface{}, error) {
			bal, err := s.core.Token().BalanceAt(sr, addr, height)
			if err != nil {
				return nil, err
			}
			return map[string]string{"address": addr.String(), "balance": bal.String()}, nil
		})
		return
	}
	bal, err := s.core.Token().BalanceOf(sr, addr)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]string{"address": addr.String(), "balance": bal.String()})
}

func (s *Server) treasuryBalance(w http.ResponseWriter, r *http.Request) {
	asset, err := pathAddress(r, "asset")
	if err != nil {
		writeError(w, err)
		return
	}
	sr := s.core.ReadView()
	allowed, err := s.core.Treasury().IsAllowedAsset(sr, asset)
	if err != nil {
		writeError(w, err)
		return
	}
	bal, err := s.core.Treasury().Balance(sr, asset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]interface{}{
		"asset":   asset.String(),
		"allowed": allowed,
		"balance": bal.String(),
	})
}

func (s *Server) liquidSupply(w http.ResponseWriter, r *http.Request) {
	height, err := strconv.ParseUint(r.PathValue("height"), 10, 64)
	if err != nil {
		writeError(w, errors.Wrap(ErrInvalidArgument, err.Error()))
		return
	}
	sr := s.core.ReadView()
	s.settled(w, ReadKey{Name: "liquidSupply", Height: height}, func() (interface{}, error) {
		liquid, err := s.core.Oracle().LiquidSupply(sr, height)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"height": height, "liquidSupply": liquid.String()}, nil
	})
}

func (s *Server) counters(e *governance.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		c, err := e.Counters(s.core.ReadView())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, &countersView{
			Total:               c.Total,
			Concluded:           c.Concluded,
			Executed:            c.Executed,
			LastProposalCreated: c.LastProposalCreated,
		})
	}
}

func (s *Server) configuration(e *governance.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, e.VotingConfiguration())
	}
}

func (s *Server) actionProposal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	p, err := s.core.ActionProposals().Proposal(s.core.ReadView(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, newProposalView(p))
}

func (s *Server) actionVote(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	voter, err := pathAddress(r, "voter")
	if err != nil {
		writeError(w, err)
		return
	}
	amount, err := s.core.ActionProposals().VoteRecord(s.core.ReadView(), id, voter)
	writeAmount(w, voter, amount, err)
}

func (s *Server) actionVotingPower(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	voter, err := pathAddress(r, "voter")
	if err != nil {
		writeError(w, err)
		return
	}
	power, err := s.core.ActionProposals().VotingPower(s.core.ReadView(), id, voter)
	writeAmount(w, voter, power, err)
}

func (s *Server) coreProposal(w http.ResponseWriter, r *http.Request) {
	addr, err := pathAddress(r, "addr")
	if err != nil {
		writeError(w, err)
		return
	}
	p, err := s.core.CoreProposals().Proposal(s.core.ReadView(), addr)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, newProposalView(p))
}

func (s *Server) coreVote(w http.ResponseWriter, r *http.Request) {
	addr, err := pathAddress(r, "addr")
	if err != nil {
		writeError(w, err)
		return
	}
	voter, err := pathAddress(r, "voter")
	if err != nil {
		writeError(w, err)
		return
	}
	amount, err := s.core.CoreProposals().VoteRecord(s.core.ReadView(), addr, voter)
	writeAmount(w, voter, amount, err)
}

func (s *Server) coreVotingPower(w http.ResponseWriter, r *http.Request) {
	addr, err := pathAddress(r, "addr")
	if err != nil {
		writeError(w, err)
		return
	}
	voter, err := pathAddress(r, "voter")
	if err != nil {
		writeError(w, err)
		return
	}
	power, err := s.core.CoreProposals().VotingPower(s.core.ReadView(), addr, voter)
	writeAmount(w, voter, power, err)
}

// settled serves the result of read, results of settled heights never change and are cached
func (s *Server) settled(w http.ResponseWriter, key ReadKey, read func() (interface{}, error)) {
	cacheable := key.Height < s.core.TipHeight()
	h := key.Hash()
	if cacheable {
		if data, ok := s.cache.Get(h); ok {
			writeRaw(w, data)
			return
		}
	}
	v, err := read()
	if err != nil {
		writeError(w, err)
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		writeError(w, err)
		return
	}
	if cacheable {
		s.cache.Put(h, data)
	}
	writeRaw(w, data)
}

func newProposalView(p *governance.Proposal) *proposalView {
	v := &proposalView{
		ID:           p.ID,
		Target:       p.Target.String(),
		Bond:         p.Bond.String(),
		Creator:      p.Creator.String(),
		Caller:       p.Caller.String(),
		CreatedAt:    p.Window.CreatedAt,
		StartBlock:   p.Window.StartBlock,
		EndBlock:     p.Window.EndBlock,
		ExecStart:    p.Window.ExecStart,
		ExecEnd:      p.Window.ExecEnd,
		LiquidTokens: p.LiquidTokens.String(),
		VotesFor:     p.VotesFor.String(),
		VotesAgainst: p.VotesAgainst.String(),
		Concluded:    p.Concluded,
		MetQuorum:    p.MetQuorum,
		MetThreshold: p.MetThreshold,
		Passed:       p.Passed,
		Executed:     p.Executed,
		Expired:      p.Expired,
	}
	if len(p.Parameters) > 0 {
		v.Parameters = hex.EncodeToString(p.Parameters)
	}
	return v
}

func pathAddress(r *http.Request, name string) (address.Address, error) {
	addr, err := address.FromString(r.PathValue(name))
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidArgument, "%s: %v", name, err)
	}
	return addr, nil
}

func pathID(r *http.Request) (uint64, error) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		return 0, errors.Wrapf(ErrInvalidArgument, "id: %v", err)
	}
	return id, nil
}

func writeAmount(w http.ResponseWriter, voter address.Address, amount *big.Int, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]string{
		"voter":  voter.String(),
		"amount": amount.String(),
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		writeError(w, err)
		return
	}
	writeRaw(w, data)
}

func writeRaw(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(data); err != nil {
		log.Logger("api").Warn("Failed to send http response.", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	view := errorView{Error: "ERR_INTERNAL", Message: err.Error()}
	if e, ok := errors.Cause(err).(*protocol.Error); ok {
		view.Error, view.Code = e.Name(), e.Code()
		switch e.Category() {
		case protocol.CategoryNotFound:
			status = http.StatusNotFound
		default:
			status = http.StatusBadRequest
		}
	} else if errors.Cause(err) == ErrInvalidArgument {
		status = http.StatusBadRequest
		view.Error = "ERR_INVALID_ARGUMENT"
	}
	data, _ := json.Marshal(&view)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		log.Logger("api").Warn("Failed to send http response.", zap.Error(err))
	}
}

func successHandleFunc(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		log.L().Warn("Failed to send http response.", zap.Error(err))
	}
}

func failureHandleFunc(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusServiceUnavailable)
	if _, err := w.Write([]byte("FAIL")); err != nil {
		log.L().Warn("Failed to send http response.", zap.Error(err))
	}
}
