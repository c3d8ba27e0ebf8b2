package main

import "github.com/lukefredrickson/nfact-dashboard/cmd"

func main() {
	cmd.Execute()
}
