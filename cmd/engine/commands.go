package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	api_types "modelfolio/api-types"
	"modelfolio/internal/app"
	"modelfolio/internal/util"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

var commands = []subcommands.Command{
	&listCmd{out: os.Stdout},
	&showCmd{out: os.Stdout},
	&valueCmd{out: os.Stdout},
	&historyCmd{out: os.Stdout},
	&dedupCmd{out: os.Stdout},
}

func appFrom(args []interface{}) *app.App {
	if len(args) == 0 {
		return nil
	}
	a, _ := args[0].(*app.App)
	return a
}

func money(a *app.App, f float64) string {
	return util.FormatMoney(decimal.NewFromFloat(f), a.Config.DisplayCurrency)
}

func fail(err error) subcommands.ExitStatus {
	fmt.Fprintln(os.Stderr, err)
	return subcommands.ExitFailure
}

type listCmd struct {
	out io.Writer
}

func (*listCmd) Name() string     { return "list" }
func (*listCmd) Synopsis() string { return "list portfolios with cash and current value" }
func (*listCmd) Usage() string {
	return `engine list
`
}
func (*listCmd) SetFlags(*flag.FlagSet) {}

func (c *listCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	a := appFrom(args)
	resp, err := a.Resolver.ListPortfolios(ctx)
	if err != nil {
		return fail(err)
	}
	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tHOLDINGS\tCASH\tVALUE")
	for _, p := range resp.Portfolios {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", p.PortfolioID, p.Name, len(p.Holdings), money(a, p.CashBalance), money(a, p.CurrentValue))
	}
	w.Flush()
	return subcommands.ExitSuccess
}

type showCmd struct {
	out io.Writer
}

func (*showCmd) Name() string     { return "show" }
func (*showCmd) Synopsis() string { return "show one portfolio's holdings" }
func (*showCmd) Usage() string {
	return `engine show <portfolio-id>
`
}
func (*showCmd) SetFlags(*flag.FlagSet) {}

func (c *showCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return subcommands.ExitUsageError
	}
	a := appFrom(args)
	resp, err := a.Resolver.GetPortfolio(ctx, f.Arg(0))
	if err != nil {
		return fail(err)
	}
	p := resp.Portfolio
	fmt.Fprintf(c.out, "%s (v%d)\ncapital %s  cash %s  value %s  realized %s\n\n",
		p.Name, p.Version, money(a, p.MinInvestment), money(a, p.CashBalance), money(a, p.CurrentValue), money(a, p.RealizedPnL))

	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SYMBOL\tSTATUS\tWEIGHT\tQTY\tBUY\tPRICE\tUNREALIZED\tREALIZED")
	for _, h := range p.Holdings {
		fmt.Fprintf(w, "%s\t%s\t%.2f\t%d\t%s\t%s\t%s\t%s\n",
			h.Symbol, h.Status, h.Weight, h.Quantity,
			money(a, h.BuyPrice), money(a, h.CurrentPrice), money(a, h.UnrealizedPnL), money(a, h.RealizedPnL))
	}
	w.Flush()
	return subcommands.ExitSuccess
}

type valueCmd struct {
	out     io.Writer
	closing bool
}

func (*valueCmd) Name() string     { return "value" }
func (*valueCmd) Synopsis() string { return "log today's value for one portfolio or all of them" }
func (*valueCmd) Usage() string {
	return `engine value [-closing] [<portfolio-id>]

  Values the portfolio at market and upserts today's price log. Without an
  id every portfolio is valued; one failing does not stop the others.
`
}

func (c *valueCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.closing, "closing", false, "Use closing prices, falling back to current ones when a close isn't in yet.")
}

func (c *valueCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	a := appFrom(args)
	req := api_types.LogValueRequest{UseClosingPrices: c.closing}

	if f.NArg() == 1 {
		l, err := a.Resolver.LogValue(ctx, f.Arg(0), req)
		if err != nil {
			return fail(err)
		}
		fmt.Fprintf(c.out, "%s %s (update %d)\n", l.DateOnly, money(a, l.PortfolioValue), l.UpdateCount)
		return subcommands.ExitSuccess
	}

	results, err := a.Resolver.LogAllValues(ctx, req)
	if err != nil {
		return fail(err)
	}
	status := subcommands.ExitSuccess
	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PORTFOLIO\tSTATUS\tVALUE")
	for _, r := range results {
		detail := "-"
		if r.Value != nil {
			detail = money(a, *r.Value)
		}
		if r.Error != nil {
			detail = *r.Error
			status = subcommands.ExitFailure
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", r.Portfolio, r.Status, detail)
	}
	w.Flush()
	return status
}

type historyCmd struct {
	out      io.Writer
	period   string
	baseline bool
}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "print a portfolio's value history" }
func (*historyCmd) Usage() string {
	return `engine history [-p <period>] [-baseline] <portfolio-id>
`
}

func (c *historyCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.period, "p", "1m", "Period: 1d, 1w, 1m, 3m, 6m, 1y or all.")
	f.BoolVar(&c.baseline, "baseline", false, "Also print the change since the first point.")
}

func (c *historyCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return subcommands.ExitUsageError
	}
	a := appFrom(args)
	resp, err := a.Resolver.GetHistory(ctx, f.Arg(0), c.period, c.baseline)
	if err != nil {
		return fail(err)
	}

	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tVALUE\tCHANGE\tFROM START")
	for _, pt := range resp.Data {
		change, fromStart := "", ""
		if pt.Change != nil {
			change = money(a, *pt.Change)
		}
		if pt.ChangeFromStart != nil {
			fromStart = money(a, *pt.ChangeFromStart)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", pt.Date.Format("2006-01-02"), money(a, pt.Value), change, fromStart)
	}
	w.Flush()

	if s := resp.Summary; s != nil {
		fmt.Fprintf(c.out, "\nhigh %s  low %s  avg %s  return %s\n", money(a, s.High), money(a, s.Low), money(a, s.Average), money(a, s.TotalReturn))
	}
	return subcommands.ExitSuccess
}

type dedupCmd struct {
	out io.Writer
}

func (*dedupCmd) Name() string     { return "dedup" }
func (*dedupCmd) Synopsis() string { return "collapse duplicate daily price logs and create the unique index" }
func (*dedupCmd) Usage() string {
	return `engine dedup
`
}
func (*dedupCmd) SetFlags(*flag.FlagSet) {}

func (c *dedupCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	a := appFrom(args)
	resp, err := a.Resolver.Deduplicate(ctx)
	if err != nil {
		return fail(err)
	}
	fmt.Fprintf(c.out, "%d duplicate groups, %d rows deleted\n", resp.Groups, resp.Deleted)
	return subcommands.ExitSuccess
}
