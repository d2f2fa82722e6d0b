package rpc

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	eos "github.com/eoscanada/eos-go"
	"github.com/rs/zerolog/log"
)

var ErrNoEndpoints = errors.New("no rpc endpoints configured")

// DialFunc builds an API client for a single node address.
type DialFunc func(addr string) (*eos.API, error)

// NodeConfig contains what is needed to reach the chain nodes.
// This is separate from config.ChainConfig to avoid import cycles.
type NodeConfig struct {
	RPCAddrs []string
	Debug    bool
}

// FailoverClient wraps an eos-go API client and switches between several
// chain nodes. When a connection error is detected it moves to the next node.
type FailoverClient struct {
	mu sync.RWMutex

	api    *eos.API
	signer eos.Signer
	dial   DialFunc

	rpcAddrs      []string
	currentIndex  int
	lastFailover  time.Time
	failoverCount int
}

type Option func(fc *FailoverClient)

// WithDialer replaces the function used to build a client for a node.
func WithDialer(dial DialFunc) Option {
	return func(fc *FailoverClient) {
		fc.dial = dial
	}
}

// WithSigner attaches a signer that survives every failover.
func WithSigner(signer eos.Signer) Option {
	return func(fc *FailoverClient) {
		fc.signer = signer
	}
}

func defaultDialer(debug bool) DialFunc {
	return func(addr string) (*eos.API, error) {
		api := eos.New(addr)
		api.Debug = debug
		return api, nil
	}
}

// NewFailoverClient connects to the first usable node in cfg.RPCAddrs.
func NewFailoverClient(cfg NodeConfig, opts ...Option) (*FailoverClient, error) {
	if len(cfg.RPCAddrs) == 0 {
		return nil, ErrNoEndpoints
	}

	fc := &FailoverClient{
		rpcAddrs: cfg.RPCAddrs,
		dial:     defaultDialer(cfg.Debug),
	}
	for _, opt := range opts {
		opt(fc)
	}

	var err error
	for i := range fc.rpcAddrs {
		var api *eos.API
		api, err = fc.createAPIAtIndex(i)
		if err != nil {
			log.Warn().Err(err).Int("index", i).Msg("Failed to connect to node, trying next")
			continue
		}
		fc.api = api
		fc.currentIndex = i
		break
	}
	if fc.api == nil {
		return nil, err
	}

	log.Info().
		Int("node_index", fc.currentIndex).
		Str("rpc", fc.rpcAddrs[fc.currentIndex]).
		Msg("Connected to chain node")

	return fc, nil
}

func (fc *FailoverClient) createAPIAtIndex(index int) (*eos.API, error) {
	if index >= len(fc.rpcAddrs) {
		index = 0
	}

	api, err := fc.dial(fc.rpcAddrs[index])
	if err != nil {
		return nil, err
	}
	if fc.signer != nil {
		api.SetSigner(fc.signer)
	}
	return api, nil
}

// Failover switches to the next available node. Returns true if a new node
// was connected, false if every node failed.
func (fc *FailoverClient) Failover() bool {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	startIndex := fc.currentIndex
	totalNodes := len(fc.rpcAddrs)
	if totalNodes < 2 {
		return false
	}

	for i := 1; i < totalNodes; i++ {
		nextIndex := (startIndex + i) % totalNodes
		log.Info().
			Int("from_index", fc.currentIndex).
			Int("to_index", nextIndex).
			Str("rpc", fc.rpcAddrs[nextIndex]).
			Msg("Attempting failover to next node")

		api, err := fc.createAPIAtIndex(nextIndex)
		if err != nil {
			log.Warn().Err(err).
				Int("index", nextIndex).
				Str("rpc", fc.rpcAddrs[nextIndex]).
				Msg("Failed to connect during failover, trying next")
			continue
		}

		fc.api = api
		fc.currentIndex = nextIndex
		fc.lastFailover = time.Now()
		fc.failoverCount++
		failovers.Inc()

		log.Info().
			Int("node_index", fc.currentIndex).
			Str("rpc", fc.rpcAddrs[fc.currentIndex]).
			Int("total_failovers", fc.failoverCount).
			Msg("Successfully failed over to new node")

		return true
	}

	log.Error().Msg("Failed to connect to any node during failover")
	return false
}

// API returns the client for the current node.
func (fc *FailoverClient) API() *eos.API {
	fc.mu.RLock()
	defer fc.mu.RUnlock()
	return fc.api
}

func (fc *FailoverClient) CurrentNodeIndex() int {
	fc.mu.RLock()
	defer fc.mu.RUnlock()
	return fc.currentIndex
}

func (fc *FailoverClient) CurrentRPCAddr() string {
	fc.mu.RLock()
	defer fc.mu.RUnlock()
	return fc.rpcAddrs[fc.currentIndex]
}

func (fc *FailoverClient) FailoverCount() int {
	fc.mu.RLock()
	defer fc.mu.RUnlock()
	return fc.failoverCount
}

func (fc *FailoverClient) LastFailover() time.Time {
	fc.mu.RLock()
	defer fc.mu.RUnlock()
	return fc.lastFailover
}

func (fc *FailoverClient) NodeCount() int {
	return len(fc.rpcAddrs)
}

var connectionErrors = []string{
	"connection refused",
	"connection reset",
	"no such host",
	"network is unreachable",
	"i/o timeout",
	"context deadline exceeded",
	"eof",
	"connection closed",
	"server misbehaving",
	"unavailable",
	"failed to connect",
	"bad gateway",
	"gateway timeout",
	"too many requests",
}

// IsConnectionError checks if an error indicates a node problem that
// should trigger a failover.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())
	for _, pattern := range connectionErrors {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}

// ExecuteWithFailover runs fn against the current node and retries once on
// the next node if a connection error is detected.
func (fc *FailoverClient) ExecuteWithFailover(fn func(api *eos.API) error) error {
	err := fn(fc.API())
	if err != nil && IsConnectionError(err) {
		log.Warn().Err(err).Msg("Connection error detected, attempting failover")
		if fc.Failover() {
			return fn(fc.API())
		}
	}
	return err
}

// QueryWithFailover is ExecuteWithFailover for calls that return a value.
func QueryWithFailover[T any](fc *FailoverClient, fn func(api *eos.API) (T, error)) (T, error) {
	result, err := fn(fc.API())
	if err != nil && IsConnectionError(err) {
		log.Warn().Err(err).Msg("Connection error detected during query, attempting failover")
		if fc.Failover() {
			return fn(fc.API())
		}
	}
	return result, err
}

// HealthCheck queries chain info from the current node.
func (fc *FailoverClient) HealthCheck(ctx context.Context) (*eos.InfoResp, error) {
	return fc.API().GetInfo(ctx)
}

// EnsureHealthy checks the current node and fails over when it is unhealthy.
func (fc *FailoverClient) EnsureHealthy(ctx context.Context) error {
	_, err := fc.HealthCheck(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Current node unhealthy, attempting failover")
		if !fc.Failover() {
			return err
		}
	}
	return nil
}
