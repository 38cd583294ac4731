package main

import (
	"github.com/yggai/ygggo_conn/internal/cli"
)

func main() {
	cli.New().Execute()
}
