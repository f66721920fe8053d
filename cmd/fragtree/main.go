// Command fragtree computes fragmentation trees from graph dumps.
//
//	fragtree solve graph.txt
//	fragtree batch --workers 8 --metrics-addr :9090 dumps/*.txt
//	fragtree backends
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
