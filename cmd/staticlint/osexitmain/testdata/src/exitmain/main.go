package main

import (
	"fmt"
	"os"
)

func main() {
	defer fmt.Println("cleanup")
	if len(os.Args) > 3 {
		os.Exit(2) // want "direct os.Exit call in main.main"
	}
	fail := func() { os.Exit(1) }
	_ = fail
	helper()
	os.Exit(0) // want "direct os.Exit call in main.main"
}

func helper() {
	os.Exit(3)
}
