// Package logging builds the logrus logger used by courseappd.
package logging
