// Command tkdadmin はテコンドー大会管理画面のバックエンドを起動する。
//
// 使い方:
//
//	tkdadmin [serve|worker|migrate|cleanup-sessions|healthcheck]
package main

import (
	"fmt"
	"os"

	"github.com/hitoshi/tkdadmin/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "tkdadmin: %v\n", err)
		os.Exit(1)
	}
}
