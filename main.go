package main

import (
	"fmt"
	"os"

	"fipli/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "错误:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
