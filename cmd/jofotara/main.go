package main

import (
	"os"

	"github.com/mostafael3ref/erpnext-jordan-invoicing/cmd/jofotara/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
