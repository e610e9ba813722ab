// cmd/loan-console/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

const usage = `usage: loan-console [-config file] [-metrics-addr addr] <command> [flags]

commands:
  login      sign in and store the session token
  logout     clear the stored session token
  whoami     show the holder of the stored token
  intake     create a customer with a loan preference
  apply      apply for a loan for an existing customer
  pay        log a payment against a loan's repayment plan
  payments   list pending payment logs, or approve/decline one
  loans      list loans awaiting approval (or one customer's, with -customer),
             or approve/decline/default one
  customers  search customers by name, or list one customer's loans
`

func main() {
	global := flag.NewFlagSet("loan-console", flag.ExitOnError)
	configPath := global.String("config", "", "path to a config file")
	metricsAddr := global.String("metrics-addr", "", "serve Prometheus metrics on this address")
	global.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	_ = global.Parse(os.Args[1:])

	args := global.Args()
	if len(args) == 0 {
		global.Usage()
		os.Exit(2)
	}

	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", args[0])
		global.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, *configPath, *metricsAddr)
	if err != nil {
		fmt.Fprintln(os.Stderr, "loan-console:", err)
		os.Exit(1)
	}

	err = cmd(ctx, a, args[1:])
	a.Close()
	if err != nil {
		os.Exit(1)
	}
}
