package ai

import (
	"fmt"
	"strings"
)

// MaxTranscriptChars bounds the transcript that goes into one prompt.
const MaxTranscriptChars = 12000

func BuildExtractionPrompt(transcript string) string {
	return fmt.Sprintf(`You analyse phone call transcripts and extract the topics worth bringing up in the next call.

Rules:
1. Extract between 2 and 5 key topics from the [Conversation] below.
2. Each topic is a short phrase in the same language as the conversation.
3. Give each topic an integer "weight" from 1 (small talk) to 5 (very important to the speaker).
4. Respond with a JSON array only, no commentary, for example:
   [{"keyword": "hospital check-up next week", "weight": 5}, {"keyword": "new puppy", "weight": 3}]

[Conversation]
%s`, truncateRunes(transcript, MaxTranscriptChars))
}

func BuildTopicPrompt(keywords []string) string {
	return fmt.Sprintf(`You are a warm counsellor who helps people start a conversation.
The [Topics] below are the most important and most recent subjects from earlier calls with one person.
Connect them naturally into exactly one friendly question that asks how the person is doing and opens the conversation.
Reply with that single question only.

[Topics]
- %s`, strings.Join(keywords, "\n- "))
}

func BuildLetterPrompt(text string) string {
	return fmt.Sprintf(`You are a careful proofreader. The [Original] below is a speech-to-text draft of a letter.
Polish it into a natural letter.

Rules:
1. Never invent or change content; keep the original meaning.
2. Keep the original tone and register exactly; only smooth awkward endings within that tone.
3. Remove filler words such as "uh" and "um".
4. Fix spacing and basic spelling.
5. Split the text into paragraphs where the meaning changes.
6. If the text is already natural, return it unchanged.
7. Return only the corrected letter, with no explanation.

[Original]
%s`, truncateRunes(text, MaxTranscriptChars))
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
