package ai

// Prompts sent to the chat API. Kept in one place so operators can audit
// exactly what the model is asked to do.

const PROMPT_EXTRACT_SYSTEM = `Extract structured entities, events, participants, and relations from the text. Output JSON only.`

const PROMPT_EXTRACT_USER = `You are an information extraction system. Read the provided chunks and extract structured knowledge graph data.
Output ONLY valid JSON in the following shape:
{
  "entities":[{"name":"","canonicalKey":"","entityType":"","description":"","aliases":[""]}],
  "events":[{"eventType":"","eventCategory":"","name":"","chapter":"","location":"","startYear":null,"endYear":null}],
  "participants":[{"eventName":"","actorName":"","role":"","outcome":"","chunkIndex":0}],
  "relations":[{"subjectName":"","predicate":"","objectName":"","objectText":"","chunkIndex":0}]
}
Guidelines:
- Use lowercase with underscores for canonicalKey (e.g., "cao_cao").
- eventType is a short label like "battle", "incident", "visit".
- Link participants to events by matching eventName and actorName.
- chunkIndex should reference the chunk number where you saw the fact.
Text:
`

const PROMPT_INTENT_SYSTEM = `You are an intent classifier for a knowledge graph QA system.
Output JSON only with fields: intent (relation_count or none), subject, predicate, object, confidence (0-1).
Example: {"intent":"relation_count","subject":"Cao Cao","predicate":"child","object":"children","confidence":0.8}`

const PROMPT_GROUNDED_SYSTEM = `You are a meticulous analyst focused on grounded answers.`

const PROMPT_CLASSIFY_SYSTEM = `Classify the document into one of: %s. Reply with the single label only.`
