package llm

import (
	"fmt"
	"strings"
)

const Temperature = 0.7

// ChatSystemInstruction frames every chat reply.
const ChatSystemInstruction = "You are 'Aapda Mitra', an AI assistant focused on disaster preparedness and response. " +
	"Your goal is to provide clear, concise, and helpful information. You must not provide medical advice. " +
	"If asked for medical advice, you must direct the user to consult a medical professional or contact emergency services."

func GuidePrompt(disasterType string) string {
	return fmt.Sprintf("Generate a comprehensive survival guide for a %s. The guide should be practical, easy to understand, "+
		"and provide actionable steps for before, during, and after the disaster. Use markdown formatting with headings "+
		"(e.g., ### Before the %s), and bullet points for lists.", disasterType, disasterType)
}

// ChatPrompt flattens the conversation into "sender: text" lines ending with the new message.
func ChatPrompt(history []Turn, message string) string {
	lines := make([]string, 0, len(history)+1)
	for _, t := range history {
		lines = append(lines, t.Sender+": "+t.Text)
	}
	lines = append(lines, "user: "+message)
	return strings.Join(lines, "\n")
}
