package main

import "github.com/dbsmedya/cmmcal/cmd/cmmcal/cmd"

func main() {
	cmd.Execute()
}
