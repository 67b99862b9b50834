package auction

import (
	"errors"

	"github.com/hhpl/auction-server/internal/ledger"
)

// Settlement failure taxonomy. Every error is local to a single Sell/Unsell
// call; only ErrBusy is retryable by the caller.
var (
	ErrPlayerNotFound    = errors.New("player not found")
	ErrTeamNotFound      = ledger.ErrTeamNotFound
	ErrAlreadySold       = errors.New("player is already sold")
	ErrNotSold           = errors.New("player is not sold")
	ErrInsufficientFunds = ledger.ErrInsufficientFunds
	ErrInvalidAmount     = ledger.ErrInvalidAmount
	ErrBusy              = errors.New("settlement busy, retry")
)
