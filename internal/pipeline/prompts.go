package pipeline

import (
	"fmt"

	"github.com/sells-group/clinic-phone/internal/llm"
	"github.com/sells-group/clinic-phone/internal/phone"
)

const topicSystemPrompt = "You are a helpful assistant. Check if the query is related to medical clinics, " +
	"doctors, hospitals, or healthcare. Reply ONLY with YES or NO."

const extractionSystemPrompt = "You extract contact details from web pages. " +
	"Reply with exactly one phone number copied from the text, or Not Found if the text contains none. " +
	"Do not add any other words."

const directKnowledgeSystemPrompt = "You are a helpful assistant that knows public contact details of " +
	"medical clinics and doctors. Reply with only the phone number, or Not Found if you do not know it."

func topicPrompt(query string) llm.Prompt {
	return llm.Prompt{
		System:      topicSystemPrompt,
		User:        query,
		MaxTokens:   5,
		Temperature: 0,
	}
}

func extractionPrompt(query, pageText string) llm.Prompt {
	return llm.Prompt{
		System: extractionSystemPrompt,
		User: fmt.Sprintf("Find the phone number of %q in this page text:\n\n%s",
			query, phone.Truncate(pageText, phone.PromptLimit)),
		MaxTokens:   40,
		Temperature: 0,
	}
}

func directKnowledgePrompt(query string) llm.Prompt {
	return llm.Prompt{
		System:      directKnowledgeSystemPrompt,
		User:        fmt.Sprintf("Do you know the phone number for %s?", query),
		MaxTokens:   40,
		Temperature: 0,
	}
}
