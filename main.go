package main

import "github.com/veilscan/veilscan/cmd/veilscan"

func main() {
	veilscan.Execute()
}
