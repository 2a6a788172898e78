package main

import "github.com/otapi/antikvarium/cmd"

var execute = cmd.Execute

func main() {
	execute()
}
