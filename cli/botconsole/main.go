package main

import (
	"os"

	botconsolecmder "github.com/papercomputeco/botconsole/cmd/botconsole"
)

func main() {
	cmd := botconsolecmder.NewBotconsoleCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
