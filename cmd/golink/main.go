// Command golink resolves go/ link shortcuts from the terminal.
//
// Usage:
//
//	golink payroll            open go/payroll in the browser
//	golink --print payroll    print the URL instead
//	golink --json payroll     print the resolution outcome as JSON
//	golink --refresh payroll  force a directory refresh first
//	golink --serve            run the local resolver daemon
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/bucketbot/golink/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		printURL = flag.Bool("print", false, "print the link instead of opening it")
		asJSON   = flag.Bool("json", false, "print the resolution outcome as JSON")
		refresh  = flag.Bool("refresh", false, "force a directory refresh before matching")
		serve    = flag.Bool("serve", false, "run the local resolver daemon")
	)
	flag.Parse()

	a, err := app.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return app.ExitNotFound
	}
	defer a.Close()

	if *serve {
		if err := a.Serve(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return app.ExitNotFound
		}
		return app.ExitResolved
	}

	query := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if query == "" {
		fmt.Fprintln(os.Stderr, "Usage: golink [--print] [--json] [--refresh] <link>")
		return app.ExitNotFound
	}

	return a.Resolve(context.Background(), query, app.ResolveOptions{
		Print:   *printURL,
		JSON:    *asJSON,
		Refresh: *refresh,
	})
}
