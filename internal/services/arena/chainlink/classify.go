package chainlink

import (
	"context"
	"errors"
	"strings"

	apperrors "github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/platform/errors"
	"github.com/ethereum/go-ethereum/rpc"
)

// Path distinguishes requests that submit transactions from everything else.
type Path int

const (
	// ReadPath covers queries and wallet prompts.
	ReadPath Path = iota
	// WritePath covers transaction submission and confirmation.
	WritePath
)

// ErrNoProvider is reported when no wallet provider is injected.
var ErrNoProvider = errors.New("no wallet provider")

// Classify translates a provider fault into an arena error. Errors that
// already carry an arena code pass through unchanged.
func Classify(err error, path Path, op string) error {
	if err == nil {
		return nil
	}
	var coded *apperrors.Error
	if errors.As(err, &coded) {
		return err
	}
	if errors.Is(err, ErrNoProvider) {
		return apperrors.Wrap(apperrors.CodeProviderMissing, op, err)
	}

	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		switch rpcErr.ErrorCode() {
		case CodeUserRejected:
			return apperrors.Wrap(apperrors.CodeUserRejected, op, err)
		case CodeUnauthorized, CodeInvalidParams:
			return apperrors.Wrap(apperrors.CodeProviderFailure, op, err)
		case CodeUnrecognizedChain:
			return apperrors.Wrap(apperrors.CodeAddChainRequired, op, err)
		case CodeDisconnected, CodeChainDisconnected:
			return apperrors.Wrap(apperrors.CodeProviderMissing, op, err)
		case CodeExecutionReverted:
			if path == WritePath {
				return apperrors.Wrap(apperrors.CodeTxReverted, op, err)
			}
		}
	}

	message := strings.ToLower(err.Error())
	if strings.Contains(message, "user denied") || strings.Contains(message, "user rejected") {
		return apperrors.Wrap(apperrors.CodeUserRejected, op, err)
	}
	if path == WritePath {
		if strings.Contains(message, "revert") {
			return apperrors.Wrap(apperrors.CodeTxReverted, op, err)
		}
		return apperrors.Wrap(apperrors.CodeTxDroppedOrReplaced, op, err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Wrap(apperrors.CodeProviderFailure, op+": timed out", err)
	}
	return apperrors.Wrap(apperrors.CodeProviderFailure, op, err)
}
