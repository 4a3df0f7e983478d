package telegram

import (
	"errors"
	"strconv"
	"strings"

	"github.com/NasaVasa/pricewatch/internal/usecase"
)

const HelpText = `Commands:
/start - register
/help - show this help
/add_alert <SYMBOL> <KRX|NASDAQ> <ABOVE|BELOW> <target> [trigger_limit] [cooldown_seconds]
/alerts - list your alerts
/pause <alert_id>
/resume <alert_id>
/delete <alert_id>
/check - evaluate your alerts now
/notify_on - allow alert notifications here
/notify_off - stop alert notifications here
/login - get a token for the web dashboard

Notes:
- >= and > are aliases for ABOVE, <= and < for BELOW.
- Alerts keep firing on every check while the condition holds.
Example:
/add_alert AAPL NASDAQ ABOVE 200
`

var ErrInvalidArguments = errors.New("invalid arguments")

func ParseAddAlertArgs(args string) (usecase.AlertInput, error) {
	parts := strings.Fields(args)
	if len(parts) < 4 || len(parts) > 6 {
		return usecase.AlertInput{}, ErrInvalidArguments
	}
	input := usecase.AlertInput{
		Symbol:    parts[0],
		Venue:     parts[1],
		Condition: parts[2],
		Target:    parts[3],
	}
	if len(parts) >= 5 {
		limit, err := strconv.Atoi(parts[4])
		if err != nil {
			return usecase.AlertInput{}, ErrInvalidArguments
		}
		input.TriggerLimit = limit
	}
	if len(parts) == 6 {
		cooldown, err := strconv.Atoi(parts[5])
		if err != nil {
			return usecase.AlertInput{}, ErrInvalidArguments
		}
		input.CooldownSeconds = cooldown
	}
	return input, nil
}

func ParseAlertID(args string) (uint, error) {
	idStr := strings.TrimSpace(args)
	if idStr == "" {
		return 0, ErrInvalidArguments
	}
	value, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil || value == 0 {
		return 0, ErrInvalidArguments
	}
	return uint(value), nil
}
