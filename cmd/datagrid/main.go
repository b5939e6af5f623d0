package main

import (
	"context"
	"fmt"
	"os"

	"github.com/bjaus/datagrid/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "datagrid:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
