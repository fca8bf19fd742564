package llm

import (
	"net"
	"net/http"
	"time"

	"scout/internal/infra/config"
)

const (
	defaultConnTimeout = 30 * time.Second
	defaultRespTimeout = 120 * time.Second
)

// poolDefaults size the pool for one API host.
var poolDefaults = config.PoolConfig{
	MaxIdleConns:        20,
	MaxIdleConnsPerHost: 10,
	MaxConnsPerHost:     20,
	IdleConnTimeout:     120 * time.Second,
}

// NewHTTPClient builds the client the provider talks through. The overall
// client timeout is the connect budget plus the response budget.
func NewHTTPClient(cfg config.LLMConfig) *http.Client {
	conn := orDuration(cfg.ConnTimeout, defaultConnTimeout)
	resp := orDuration(cfg.RespTimeout, defaultRespTimeout)
	return &http.Client{
		Transport: NewPooledTransport(conn, resp, cfg.Pool),
		Timeout:   conn + resp,
	}
}

// NewPooledTransport returns a keep-alive transport. Non-positive pool
// fields take poolDefaults.
func NewPooledTransport(connTimeout, respTimeout time.Duration, pool config.PoolConfig) *http.Transport {
	dialer := &net.Dialer{
		Timeout:   orDuration(connTimeout, defaultConnTimeout),
		KeepAlive: 30 * time.Second,
	}
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: orDuration(respTimeout, defaultRespTimeout),
		MaxIdleConns:          orInt(pool.MaxIdleConns, poolDefaults.MaxIdleConns),
		MaxIdleConnsPerHost:   orInt(pool.MaxIdleConnsPerHost, poolDefaults.MaxIdleConnsPerHost),
		MaxConnsPerHost:       orInt(pool.MaxConnsPerHost, poolDefaults.MaxConnsPerHost),
		IdleConnTimeout:       orDuration(pool.IdleConnTimeout, poolDefaults.IdleConnTimeout),
		ForceAttemptHTTP2:     true,
	}
}

func orDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func orInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
