package main

import "github.com/saadjs/healthsync/cmd/healthsync"

func main() {
	healthsync.Execute()
}
