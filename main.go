package main

import "github.com/thisisglitchtm/Ranchers-Land-Claim/cmd"

func main() {
	cmd.Execute(cmd.RootCmd())
}
