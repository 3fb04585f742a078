package portfolio

import (
	"strings"

	folio_errors "modelfolio/internal"
	"modelfolio/internal/trade"

	"github.com/shopspring/decimal"
)

type Action string

const (
	Action_Add     Action = "add"
	Action_Delete  Action = "delete"
	Action_Replace Action = "replace"
	Action_Update  Action = "update"
	Action_Buy     Action = "buy"
	Action_Sell    Action = "sell"
)

// Regime says how cash is reconciled after a command.
type Regime string

const (
	// Regime_Allocate rederives cash as minInvestment minus holdings cost.
	Regime_Allocate Regime = "allocate"
	// Regime_Transact moves cash by exactly what a trade spent or fetched.
	Regime_Transact Regime = "transact"
)

// ParseAction classifies the declared action. No action means an update
// merge.
func ParseAction(s string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	switch a {
	case "":
		return Action_Update, nil
	case Action_Add, Action_Delete, Action_Replace, Action_Update, Action_Buy, Action_Sell:
		return a, nil
	}
	return "", folio_errors.NewValidationError("action", "unknown action %q", s)
}

func (a Action) Regime() Regime {
	if a == Action_Buy || a == Action_Sell {
		return Regime_Transact
	}
	return Regime_Allocate
}

// HoldingInput is everything a caller may say about a holding. Quantity,
// cash and values are always derived server side.
type HoldingInput struct {
	Symbol string
	Sector string
	// Weight nil keeps the stored weight on an update.
	Weight *decimal.Decimal
	// BuyPrice nil keeps the stored basis on an update.
	BuyPrice     *decimal.Decimal
	CurrentPrice *decimal.Decimal
}

// Command is either an Allocate or a Transact.
type Command interface {
	GetAction() Action
	isCommand()
}

type Allocate struct {
	Action   Action
	Holdings []HoldingInput
	// Symbols names the holdings a delete removes.
	Symbols []string
}

func (Allocate) isCommand() {}

func (c Allocate) GetAction() Action { return c.Action }

type Transact struct {
	Action Action
	Buy    *trade.BuyOrder
	Sell   *trade.SellOrder
}

func (Transact) isCommand() {}

func (c Transact) GetAction() Action { return c.Action }

type CommandInput struct {
	Holdings []HoldingInput
	Symbols  []string
	Buy      *trade.BuyOrder
	Sell     *trade.SellOrder
}

// NewCommand builds the command variant for the declared action and checks
// it carries what that action needs.
func NewCommand(action string, in CommandInput) (Command, error) {
	a, err := ParseAction(action)
	if err != nil {
		return nil, err
	}

	if a.Regime() == Regime_Transact {
		switch a {
		case Action_Buy:
			if in.Buy == nil {
				return nil, folio_errors.NewValidationError("buy", "buy action needs a buy order")
			}
			return Transact{Action: a, Buy: in.Buy}, nil
		default:
			if in.Sell == nil {
				return nil, folio_errors.NewValidationError("sell", "sell action needs a sell order")
			}
			return Transact{Action: a, Sell: in.Sell}, nil
		}
	}

	if a == Action_Delete {
		if len(in.Symbols) == 0 {
			return nil, folio_errors.NewValidationError("symbols", "delete needs at least one symbol")
		}
	} else if len(in.Holdings) == 0 && a != Action_Replace {
		return nil, folio_errors.NewValidationError("holdings", "%s needs at least one holding", a)
	}

	return Allocate{
		Action:   a,
		Holdings: in.Holdings,
		Symbols:  in.Symbols,
	}, nil
}
