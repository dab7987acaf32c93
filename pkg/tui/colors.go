package tui

import "github.com/gdamore/tcell/v2"

var (
	ColorUserText      = tcell.NewRGBColor(255, 176, 0)   // amber
	ColorAssistantText = tcell.NewRGBColor(0, 255, 135)   // mint
	ColorToolText      = tcell.NewRGBColor(255, 128, 255) // magenta

	ColorBorder       = tcell.NewRGBColor(255, 215, 0)
	ColorBorderActive = tcell.NewRGBColor(255, 165, 0)
	ColorDimText      = tcell.NewRGBColor(169, 169, 169)

	ColorStatusReady = tcell.NewRGBColor(144, 238, 144)
	ColorStatusBusy  = tcell.NewRGBColor(255, 218, 185)
	ColorStatusError = tcell.NewRGBColor(255, 99, 71)
	ColorFeedback    = tcell.NewRGBColor(50, 205, 50)
	ColorPinned      = tcell.NewRGBColor(0, 191, 255)
)

var (
	StyleUserText      = tcell.StyleDefault.Foreground(ColorUserText)
	StyleAssistantText = tcell.StyleDefault.Foreground(ColorAssistantText)
	StyleToolText      = tcell.StyleDefault.Foreground(ColorToolText)
	StyleDimText       = tcell.StyleDefault.Foreground(ColorDimText)

	StyleBorder       = tcell.StyleDefault.Foreground(ColorBorder)
	StyleBorderActive = tcell.StyleDefault.Foreground(ColorBorderActive)

	StyleStatusReady = tcell.StyleDefault.Foreground(ColorStatusReady)
	StyleStatusBusy  = tcell.StyleDefault.Foreground(ColorStatusBusy).Italic(true)
	StyleStatusError = tcell.StyleDefault.Foreground(ColorStatusError).Bold(true)
	StyleFeedback    = tcell.StyleDefault.Foreground(ColorFeedback)
	StylePinned      = tcell.StyleDefault.Foreground(ColorPinned)
)
