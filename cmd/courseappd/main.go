// Command courseappd serves the course enrollment API.
package main

import (
	"os"

	"github.com/sirupsen/logrus"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logrus.WithError(err).Error("courseappd failed")
		os.Exit(1)
	}
}
