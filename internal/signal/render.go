package signal

import (
	"fmt"
	"html"
	"strings"
)

const (
	ansiReset      = "\x1b[0m"
	ansiBold       = "\x1b[1m"
	ansiGreen      = "\x1b[32m"
	ansiYellow     = "\x1b[33m"
	ansiCyan       = "\x1b[36m"
	ansiRed        = "\x1b[31m"
	ansiMagenta    = "\x1b[35m"
	ansiOrange     = "\x1b[1m\x1b[38;5;214m"
	ansiBlueBG     = "\x1b[44m"
	ansiDim        = "\x1b[2m"
	ansiPurpleBold = "\x1b[1m\x1b[35m"
)

// Plain renders the signal as text without markup.
func Plain(s Signal) string {
	switch s.Kind {
	case Calibrating:
		return "CALIBRATING..."
	case RainKill:
		return "RAIN KILL"
	case PredictionBreak:
		return "PREDICTION BREAK"
	case ScalpBreak:
		return fmt.Sprintf("SCALP BREAK (%d%%)", s.Prob)
	case BuyReach:
		if s.Tier == TierStrong {
			return fmt.Sprintf("BUY REACH STRONG (%d%%)", s.Prob)
		}
		return fmt.Sprintf("BUY REACH (%d%%)", s.Prob)
	case NoTrade:
		return "NO TRADE"
	case Wait:
		return "WAIT"
	case Gated:
		if s.Underlying != nil {
			return fmt.Sprintf("GATED %s", Plain(*s.Underlying))
		}
		return "GATED"
	case Exit:
		return "EXIT"
	}
	return string(s.Kind)
}

// ANSI renders the signal with terminal colours.
func ANSI(s Signal) string {
	return ansiColour(s) + Plain(s) + ansiReset
}

func ansiColour(s Signal) string {
	switch s.Kind {
	case Calibrating:
		return ansiCyan
	case RainKill:
		return ansiBlueBG
	case PredictionBreak:
		return ansiPurpleBold
	case ScalpBreak:
		return ansiOrange
	case BuyReach:
		if s.Tier == TierStrong {
			return ansiGreen + ansiBold
		}
		return ansiGreen
	case NoTrade:
		return ansiRed
	case Wait:
		return ansiYellow
	case Gated:
		return ansiDim
	case Exit:
		return ansiMagenta + ansiBold
	}
	return ""
}

// HTML renders the signal as a span whose classes carry the kind and tier.
func HTML(s Signal) string {
	classes := []string{"sig", "sig-" + strings.ToLower(strings.ReplaceAll(string(s.Kind), "_", "-"))}
	if s.Tier != "" {
		classes = append(classes, "tier-"+strings.ToLower(string(s.Tier)))
	}
	title := ""
	if s.Reason != "" {
		title = fmt.Sprintf(` title="%s"`, html.EscapeString(s.Reason))
	}
	return fmt.Sprintf(`<span class="%s"%s>%s</span>`, strings.Join(classes, " "), title, html.EscapeString(Plain(s)))
}
