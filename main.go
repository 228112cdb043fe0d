package main

import "github.com/theirongolddev/thriftify/cmd"

func main() {
	cmd.Execute()
}
