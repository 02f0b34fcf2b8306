package risk

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/autopilot/broker"
)

type Violation struct {
	Code string
	Msg  string
}

type Decision struct {
	Allowed    bool
	Violations []Violation
}

func (d *Decision) add(code, msg string) {
	d.Violations = append(d.Violations, Violation{Code: code, Msg: msg})
	d.Allowed = false
}

// Reason flattens the violations into one loggable string.
func (d Decision) Reason() string {
	if d.Allowed {
		return ""
	}
	msgs := make([]string, 0, len(d.Violations))
	for _, v := range d.Violations {
		msgs = append(msgs, v.Msg)
	}
	return strings.Join(msgs, "; ")
}

// Validate is the final gate before submission. A rejection is terminal for
// this signal this tick; nothing retries a rejected order.
func Validate(
	req broker.OrderRequest,
	acct broker.AccountSnapshot,
	allowance decimal.Decimal,
	p Policy,
) Decision {
	d := Decision{Allowed: true}

	if !req.Notional.IsPositive() {
		d.add("NO_NOTIONAL", "requested notional must be positive")
		return d
	}

	if req.Notional.GreaterThan(allowance) {
		d.add("EXCEEDS_ALLOWANCE",
			fmt.Sprintf("exceeds remaining allowance: requested %s, allowance %s",
				req.Notional, allowance))
	}
	if req.Notional.GreaterThan(p.MaxOrderNotional) {
		d.add("ORDER_TOO_LARGE",
			fmt.Sprintf("requested %s exceeds per-order ceiling %s",
				req.Notional, p.MaxOrderNotional))
	}
	if req.Notional.LessThan(p.MinOrderNotional) {
		d.add("ORDER_TOO_SMALL",
			fmt.Sprintf("requested %s below minimum viable size %s",
				req.Notional, p.MinOrderNotional))
	}

	// Broker-reported buying power guards against a stale equity figure.
	if req.Notional.GreaterThan(acct.BuyingPower) {
		d.add("INSUFFICIENT_BUYING_POWER",
			fmt.Sprintf("requested %s exceeds buying power %s",
				req.Notional, acct.BuyingPower))
	}

	return d
}
