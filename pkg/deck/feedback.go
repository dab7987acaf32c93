package deck

import "fmt"

// Feedback renders the user-facing summary of a replacement
func Feedback(info ReplacementInfo) string {
	net := info.Net()
	switch {
	case net < 0:
		return fmt.Sprintf("condensed %s into %d (%d)", slides(info.OriginalCount), info.ReplacementCount, net)
	case net > 0:
		return fmt.Sprintf("expanded %s into %d (+%d)", slides(info.OriginalCount), info.ReplacementCount, net)
	default:
		return fmt.Sprintf("replaced %s with %d (0)", slides(info.OriginalCount), info.ReplacementCount)
	}
}

func slides(n int) string {
	if n == 1 {
		return "1 slide"
	}
	return fmt.Sprintf("%d slides", n)
}
