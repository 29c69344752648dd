package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

var (
	successColor = color.New(color.FgGreen)
	errorColor   = color.New(color.FgRed)
	warningColor = color.New(color.FgYellow)
	infoColor    = color.New(color.FgCyan)
)

func printTo(w io.Writer, c *color.Color, symbol, format string, args ...interface{}) {
	fmt.Fprintf(w, "%s %s\n", c.Sprint(symbol), fmt.Sprintf(format, args...))
}

func (a *app) printSuccess(format string, args ...interface{}) {
	printTo(a.out, successColor, "✓", format, args...)
}

func (a *app) printError(format string, args ...interface{}) {
	printTo(a.errOut, errorColor, "✗", format, args...)
}

func (a *app) printWarning(format string, args ...interface{}) {
	printTo(a.errOut, warningColor, "⚠", format, args...)
}

func (a *app) printInfo(format string, args ...interface{}) {
	printTo(a.out, infoColor, "•", format, args...)
}
