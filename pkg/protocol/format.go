package protocol

import (
	"fmt"
	"strings"
)

// FormatFrame returns a compact description of a request for diagnostics,
// e.g. "displaymessage[21] Error: sensor timeout".
func FormatFrame(frame *Frame) string {
	var b strings.Builder
	b.WriteString(CommandName(frame.Cmd))
	fmt.Fprintf(&b, "[%d]", len(frame.Payload))
	if frame.Cmd == CmdDisplayMessage && len(frame.Payload) > 0 {
		b.WriteByte(' ')
		b.WriteString(truncate(string(frame.Payload), 40))
	}
	return b.String()
}

// FormatResponse returns a compact description of a response.
func FormatResponse(resp *Response) string {
	return fmt.Sprintf("%s[%d]", StatusName(resp.Status), len(resp.Payload))
}

// CommandName returns the binding name for a command code.
func CommandName(cmd uint8) string {
	for name, c := range Bindings {
		if c == cmd {
			return name
		}
	}
	return fmt.Sprintf("cmd%02X", cmd)
}

// StatusName returns a short name for a status code.
func StatusName(status uint8) string {
	switch status {
	case StatusOK:
		return "OK"
	case StatusError:
		return "Err"
	case StatusInvalidCmd:
		return "InvCmd"
	case StatusInvalidData:
		return "InvData"
	case StatusNotFound:
		return "NotFnd"
	case StatusCRCError:
		return "CRC"
	default:
		return fmt.Sprintf("Sts%02X", status)
	}
}

// truncate limits a string to maxLen bytes, adding ".." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 2 {
		return s[:maxLen]
	}
	return s[:maxLen-2] + ".."
}
