package main

import "github.com/marketauth/marketauth/cmd/marketauth/cmd"

func main() {
	cmd.Execute()
}
