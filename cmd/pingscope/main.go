package main

import (
	"log"
	"os"
)

func main() {
	app := createCliApp()

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
