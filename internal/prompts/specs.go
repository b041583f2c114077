package prompts

const classifySpec = `Respond with a JSON object matching this exact structure:

{
  "cluster": "<one of the listed clusters>",
  "subcategory": "<short subcategory name or empty string>",
  "question": "<the customer's main question>",
  "answer": "<the operator's answer>",
  "resolution": "<resolved|unresolved|partial>",
  "satisfaction": "<positive|neutral|negative>",
  "summary": "<one or two sentence summary>"
}

Field constraints:
- All keys are required. Use an empty string when a value is not present.
- question: empty string when the call contains no customer question.

Behavioral constraints:
- Always respond with valid JSON, no markdown fencing`

const extractScriptsSpec = `Respond with a JSON object matching this exact structure:

{
  "scripts": [
    {
      "text": "<operator response>",
      "type": "<instruction|explanation|promise|apology|info>",
      "has_steps": false,
      "resolved_issue": false
    }
  ],
  "customer_satisfied": false
}

Field constraints:
- scripts: may be empty when the operator said nothing reusable.
- has_steps: true when the response is a sequence of steps.
- resolved_issue: true when this response resolved the customer's issue.

Behavioral constraints:
- Always respond with valid JSON, no markdown fencing`

const extractFAQSpec = `Respond with a JSON object matching this exact structure:

{
  "faq": [
    {"question": "<question>", "answer": "<answer>"}
  ]
}

Behavioral constraints:
- Always respond with valid JSON, no markdown fencing
- Omit pairs with an empty question or answer`

const extractFactsSpec = `Respond with a JSON object matching this exact structure:

{
  "facts": [
    {"category": "<contact|problem|solution|agreement|product>", "key": "<qualifier>", "value": "<fact>"}
  ]
}

Field constraints:
- key for contact: name, phone, email or address.
- key for problem: low, medium or high severity.
- key for solution: the problem it solves, in a few words.
- key for agreement: when it is due, or "unspecified".
- key for product: the action taken, for example ordered, returned or discussed.
- facts: may be empty when the call contains none.

Behavioral constraints:
- Always respond with valid JSON, no markdown fencing`

const extractInstructionsSpec = `Respond with a JSON object matching this exact structure:

{
  "instructions": [
    {"topic": "<short topic>", "instruction": "<instruction or rule>"}
  ]
}

Behavioral constraints:
- Always respond with valid JSON, no markdown fencing
- Omit entries with an empty instruction`

var specs = map[Stage]string{
	StageClassify:            classifySpec,
	StageExtractScripts:      extractScriptsSpec,
	StageExtractFAQ:          extractFAQSpec,
	StageExtractFacts:        extractFactsSpec,
	StageExtractInstructions: extractInstructionsSpec,
}

// Spec returns the fixed response specification for a stage.
func Spec(stage Stage) (string, error) {
	text, ok := specs[stage]
	if !ok {
		return "", ErrInvalidStage
	}
	return text, nil
}
