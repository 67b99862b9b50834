package email

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const notifyTimeout = 5 * time.Second

// Message is a rendered notification ready for delivery.
type Message struct {
	Subject string
	Body    string
}

// TeamRegistered renders the registration confirmation for a team owner.
func TeamRegistered(teamName, ownerName string, totalBudget int64) Message {
	return Message{
		Subject: fmt.Sprintf("Welcome to the league, %s!", teamName),
		Body: fmt.Sprintf(
			"Hi %s,\n\nYour team %s is registered for the auction with a budget of %s.\n\nGood luck at the table!\n",
			ownerName, teamName, formatAmount(totalBudget),
		),
	}
}

// PlayerSold renders the notification sent to the buying team's owner.
func PlayerSold(playerName, teamName string, price, remainingBudget int64) Message {
	return Message{
		Subject: fmt.Sprintf("%s joins %s", playerName, teamName),
		Body: fmt.Sprintf(
			"%s has been sold to %s for %s.\nRemaining budget: %s.\n",
			playerName, teamName, formatAmount(price), formatAmount(remainingBudget),
		),
	}
}

// Notify sends a message asynchronously; delivery failures are logged, never
// surfaced to the request that triggered them.
func Notify(sender Sender, recipient string, msg Message, logger *zerolog.Logger) {
	if sender == nil {
		return
	}
	recipient = strings.TrimSpace(recipient)
	if recipient == "" || msg.Subject == "" || msg.Body == "" {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := sender.Send(ctx, recipient, msg.Subject, msg.Body); err != nil && logger != nil {
			logger.Error().Err(err).Str("recipient", recipient).Msg("Failed to send notification email")
		}
	}()
}

// formatAmount renders raw rupee units with the "M" shorthand the league uses
// for crore-scale budgets.
func formatAmount(amount int64) string {
	if amount >= 1_000_000 && amount%100_000 == 0 {
		whole := amount / 1_000_000
		frac := (amount % 1_000_000) / 100_000
		if frac == 0 {
			return fmt.Sprintf("%dM", whole)
		}
		return fmt.Sprintf("%d.%dM", whole, frac)
	}
	return fmt.Sprintf("₹%d", amount)
}
