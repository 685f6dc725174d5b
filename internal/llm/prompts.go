package llm

const jsonSystemPrompt = "When asked for JSON, ALWAYS return valid JSON only."

// nudgePrompt is appended to the conversation before every retry.
const nudgePrompt = "Return JSON now."

// emptyObject is what AskJSON returns when every attempt came back empty.
const emptyObject = "{}"
