package conversation

import (
	"strconv"
	"strings"

	"unlockbot/app/service/session"

	"github.com/elliotchance/pie/v2"
)

const responseFormatInstruction = `Respond ONLY with a JSON object in exactly this format, nothing else:
{"response": "<your message>", "action": "chat" or "send_media", "content_type": "<label or empty>"}`

// RenderPersona fills the persona template placeholders.
func RenderPersona(template string, unlockAfter int) string {
	templateValues := map[string]string{
		"unlock_after": strconv.Itoa(unlockAfter),
	}

	result := template
	for key, value := range templateValues {
		result = strings.ReplaceAll(result, "{"+key+"}", value)
	}

	return strings.TrimSpace(result)
}

// BuildPrompt renders the persona, up to maxPromptTurns prior turns and the
// current message into the text sent to the backend.
func BuildPrompt(persona string, history []session.Turn, userText string) string {
	if len(history) > maxPromptTurns {
		history = pie.DropTop(history, len(history)-maxPromptTurns)
	}

	var builder strings.Builder

	builder.WriteString(persona)
	builder.WriteString("\n\nConversation so far:\n")

	if len(history) == 0 {
		builder.WriteString("No recent messages\n")
	}

	for _, turn := range history {
		builder.WriteString("User: ")
		builder.WriteString(turn.UserText)
		builder.WriteString("\nAI: ")
		builder.WriteString(turn.AIReply)
		builder.WriteString("\n")
	}

	builder.WriteString("\nUser: ")
	builder.WriteString(userText)
	builder.WriteString("\n\n")
	builder.WriteString(responseFormatInstruction)

	return builder.String()
}
