// Package validation provides request validation for the quote engine.
// All checks are pure; nothing here touches the network, so malformed
// requests are rejected before any provider quota is spent.
package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/yourorg/swap-compare-ea/internal/chains"
	"github.com/yourorg/swap-compare-ea/internal/model"
)

// Kind classifies a validation failure.
type Kind string

// Validation failure kinds
const (
	InvalidAddress   Kind = "InvalidAddress"
	InvalidAmount    Kind = "InvalidAmount"
	InvalidChainPair Kind = "InvalidChainPair"
	MissingWallet    Kind = "MissingWallet"
)

// Error is a typed validation failure with a human-readable message
// suitable for an HTTP 400 body.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// IsKind reports whether err is a validation Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var ve *Error
	return errors.As(err, &ve) && ve.Kind == kind
}

// IsValidation reports whether err is any validation failure.
func IsValidation(err error) bool {
	var ve *Error
	return errors.As(err, &ve)
}

// ValidateAddress accepts a 0x-prefixed 42-character hex string (a
// 20-byte address) or the native-token sentinel. The check is length and
// charset only, no EIP-55 checksum, matching what the providers accept.
func ValidateAddress(value string) error {
	if strings.EqualFold(value, chains.NativeTokenAddress) {
		return nil
	}
	if !common.IsHexAddress(value) || !strings.HasPrefix(value, "0x") {
		return &Error{Kind: InvalidAddress, Message: fmt.Sprintf("invalid address: %q", value)}
	}
	return nil
}

// ValidateAmount accepts a non-negative integer decimal string in minor
// units. No upper bound is enforced; minimum trade sizes are a
// presentation-layer concern.
func ValidateAmount(value string) error {
	if value == "" {
		return &Error{Kind: InvalidAmount, Message: "amount is required"}
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return &Error{Kind: InvalidAmount, Message: fmt.Sprintf("amount must be a non-negative integer string, got %q", value)}
		}
	}
	return nil
}

// ValidateChainPair normalizes the chain pair on the request. When
// requireDistinct is set (cross-chain only endpoints) both chains must be
// present and different; otherwise a missing DstChainID is filled from
// ChainID.
func ValidateChainPair(req *model.QuoteRequest, requireDistinct bool) error {
	if req.ChainID == 0 {
		return &Error{Kind: InvalidChainPair, Message: "chainId is required"}
	}
	if requireDistinct {
		if req.DstChainID == 0 {
			return &Error{Kind: InvalidChainPair, Message: "dstChainId is required for cross-chain requests"}
		}
		if req.DstChainID == req.ChainID {
			return &Error{Kind: InvalidChainPair, Message: "srcChainId and dstChainId must differ for cross-chain requests"}
		}
		return nil
	}
	if req.DstChainID == 0 {
		req.DstChainID = req.ChainID
	}
	return nil
}

// RequireWalletAddress enforces the wallet precondition for operations
// whose pricing or execution binds to a settlement address.
func RequireWalletAddress(req model.QuoteRequest) error {
	if req.WalletAddress == "" {
		return &Error{Kind: MissingWallet, Message: "walletAddress is required and must be a valid Ethereum address."}
	}
	if err := ValidateAddress(req.WalletAddress); err != nil {
		return &Error{Kind: MissingWallet, Message: "walletAddress is required and must be a valid Ethereum address."}
	}
	return nil
}

// ValidateQuoteRequest applies the shared checks every quote operation
// needs: a parseable amount, a supported source chain, and token fields
// that are either plain symbols or well-formed addresses.
func ValidateQuoteRequest(req *model.QuoteRequest) error {
	if err := ValidateAmount(req.Amount); err != nil {
		return err
	}
	if !chains.Supported(req.ChainID) {
		return &Error{Kind: InvalidChainPair, Message: fmt.Sprintf("unsupported chainId: %d", req.ChainID)}
	}
	if req.DstChainID != 0 && !chains.Supported(req.DstChainID) {
		return &Error{Kind: InvalidChainPair, Message: fmt.Sprintf("unsupported dstChainId: %d", req.DstChainID)}
	}
	// Tokens may arrive as symbols; only 0x-prefixed values are held to
	// the address rule.
	for _, token := range []string{req.FromToken, req.ToToken} {
		if token == "" {
			return &Error{Kind: InvalidAddress, Message: "fromToken and toToken are required"}
		}
		if strings.HasPrefix(token, "0x") {
			if err := ValidateAddress(token); err != nil {
				return err
			}
		}
	}
	if req.WalletAddress != "" {
		if err := ValidateAddress(req.WalletAddress); err != nil {
			return &Error{Kind: MissingWallet, Message: "walletAddress is required and must be a valid Ethereum address."}
		}
	}
	return nil
}
