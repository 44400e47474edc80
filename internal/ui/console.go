package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/temirov/nixpatch/internal/utils"
)

const (
	panelTopBorderTemplateConstant    = "╭─ %s ─%s\n"
	panelTopBorderPlainConstant       = "╭%s\n"
	panelLineTemplateConstant         = "│ %s\n"
	panelBottomBorderTemplateConstant = "╰%s\n"
	panelBorderRuneConstant           = "─"
	panelMinimumBorderWidthConstant   = 40
	bannerTemplateConstant            = "┃ %s\n"
	statusLineTemplateConstant        = "%s %s\n"
	failureMessageTemplateConstant    = "%s: %v"
	unexpectedErrorLabelConstant      = "Unexpected error"
)

// Symbol prefixes console messages so outcomes are recognizable at a glance.
type Symbol string

// Console symbols.
const (
	SymbolSuccess   Symbol = "✅"
	SymbolFailure   Symbol = "❌"
	SymbolCrash     Symbol = "💥"
	SymbolStart     Symbol = "🚀"
	SymbolSkip      Symbol = "⏭️ "
	SymbolInfo      Symbol = "ℹ️ "
	SymbolWarning   Symbol = "⚠️ "
	SymbolAdd       Symbol = "➕"
	SymbolUpdate    Symbol = "🔄"
	SymbolPin       Symbol = "📍"
	SymbolDelete    Symbol = "🗑️ "
	SymbolBranch    Symbol = "🌿"
	SymbolFolder    Symbol = "🗂️ "
	SymbolClipboard Symbol = "📋"
	SymbolWrench    Symbol = "🔧"
)

// ReportedError marks a failure whose panel has already been printed.
type ReportedError struct {
	Cause error
}

// Error returns the message of the wrapped failure.
func (reportedError ReportedError) Error() string {
	if reportedError.Cause == nil {
		return unexpectedErrorLabelConstant
	}
	return reportedError.Cause.Error()
}

// Unwrap exposes the wrapped failure.
func (reportedError ReportedError) Unwrap() error {
	return reportedError.Cause
}

// Console writes panels and status lines.
type Console struct {
	writer io.Writer
}

// NewConsole wraps the writer so every line is flushed as soon as it is printed.
func NewConsole(writer io.Writer) *Console {
	if writer == nil {
		writer = io.Discard
	}
	return &Console{writer: utils.NewFlushingWriter(writer)}
}

// Panel prints a titled, left-bordered block of lines.
func (console *Console) Panel(title string, lines []string) {
	borderWidth := panelMinimumBorderWidthConstant
	for _, line := range lines {
		if lineWidth := len([]rune(line)) + 2; lineWidth > borderWidth {
			borderWidth = lineWidth
		}
	}

	trimmedTitle := strings.TrimSpace(title)
	if len(trimmedTitle) == 0 {
		fmt.Fprintf(console.writer, panelTopBorderPlainConstant, strings.Repeat(panelBorderRuneConstant, borderWidth))
	} else {
		remainingWidth := borderWidth - len([]rune(trimmedTitle)) - 3
		if remainingWidth < 1 {
			remainingWidth = 1
		}
		fmt.Fprintf(console.writer, panelTopBorderTemplateConstant, trimmedTitle, strings.Repeat(panelBorderRuneConstant, remainingWidth))
	}
	for _, line := range lines {
		fmt.Fprintf(console.writer, panelLineTemplateConstant, line)
	}
	fmt.Fprintf(console.writer, panelBottomBorderTemplateConstant, strings.Repeat(panelBorderRuneConstant, borderWidth))
}

// Banner prints a single emphasized line.
func (console *Console) Banner(symbol Symbol, message string) {
	fmt.Fprintf(console.writer, bannerTemplateConstant, string(symbol)+" "+message)
}

// Status prints a symbol-prefixed progress line.
func (console *Console) Status(symbol Symbol, message string) {
	fmt.Fprintf(console.writer, statusLineTemplateConstant, symbol, message)
}

// Statusf formats and prints a symbol-prefixed progress line.
func (console *Console) Statusf(symbol Symbol, template string, arguments ...any) {
	console.Status(symbol, fmt.Sprintf(template, arguments...))
}

// ReportFailure prints the failure banner and returns a ReportedError wrapping failure.
// Operational failures use failureLabel; any other failure is reported as unexpected.
func (console *Console) ReportFailure(failureLabel string, failure error, operational bool) error {
	if failure == nil {
		return nil
	}
	if operational {
		console.Banner(SymbolFailure, fmt.Sprintf(failureMessageTemplateConstant, failureLabel, failure))
	} else {
		console.Banner(SymbolCrash, fmt.Sprintf(failureMessageTemplateConstant, unexpectedErrorLabelConstant, failure))
	}
	return ReportedError{Cause: failure}
}
