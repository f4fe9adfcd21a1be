// Package rpcnode wraps a JSON-RPC Ethereum client for the chain reads
// the gateway exposes.
package rpcnode

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/ethclient"
)

// Client is a thin wrapper over ethclient carrying the endpoint for
// error reporting.
type Client struct {
	endpoint string
	eth      *ethclient.Client
}

// Dial connects to the configured RPC endpoint. The connection is lazy
// for HTTP endpoints, so a bad URL surfaces on first use, not here.
func Dial(endpoint string) (*Client, error) {
	eth, err := ethclient.Dial(endpoint)
	if err != nil {
		return nil, fmt.Errorf("dialing rpc endpoint %s: %w", endpoint, err)
	}
	return &Client{endpoint: endpoint, eth: eth}, nil
}

// BlockNumber returns the most recent block number. Failures here are
// fatal for the calling request; there is no fallback node.
func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	n, err := c.eth.BlockNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("rpc node %s unreachable: %w", c.endpoint, err)
	}
	return n, nil
}

// Close releases the underlying RPC connection.
func (c *Client) Close() {
	c.eth.Close()
}
