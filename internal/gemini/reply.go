package gemini

import "strings"

// DefaultReply is returned when a response carries no usable text.
const DefaultReply = "Sorry, I could not generate an answer right now. Please try asking again."

// ExtractReply picks the reply text from a response. Rules, in order:
//  1. the first candidate whose parts join to non-empty text
//  2. the legacy output[0].content parts joined
//  3. the top-level text field
//  4. DefaultReply
func ExtractReply(resp *GenerateResponse) string {
	if resp == nil {
		return DefaultReply
	}

	for _, c := range resp.Candidates {
		if text := joinParts(c.Content.Parts); text != "" {
			return text
		}
	}

	if len(resp.Output) > 0 {
		if text := joinParts(resp.Output[0].Content); text != "" {
			return text
		}
	}

	if text := strings.TrimSpace(resp.Text); text != "" {
		return text
	}

	return DefaultReply
}

func joinParts(parts []Part) string {
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(p.Text)
	}
	return strings.TrimSpace(b.String())
}
