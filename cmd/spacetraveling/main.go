// Command spacetraveling serves the blog or writes it out as a static site.
package main

import (
	"context"
	"os"

	// Embedded zone database for site.timezone on minimal images.
	_ "time/tzdata"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
