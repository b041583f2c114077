package prompts

const classifyInstructions = `You analyze phone call transcriptions from a customer support center.

Identify the customer's main question or issue and phrase it as a short, self-contained question
a support operator could look up later. Identify the operator's answer, whether the issue was
resolved during the call, and how satisfied the customer sounded.

Assign the question to exactly one cluster from the list provided. When no cluster fits, use
"general". Suggest a short subcategory name within the cluster when one is evident.`

const extractScriptsInstructions = `You extract reusable operator responses ("scripts") from customer support call transcriptions.

A script is something the operator said that another operator could repeat to a different
customer with the same question: instructions, explanations, promises, apologies or
information. Quote or lightly normalize the operator's wording; drop names, phone numbers and
other personal details. Skip greetings, small talk and filler.`

const extractFAQInstructions = `You extract question and answer pairs from support knowledge documents.

Return every question a customer could ask together with the answer the document gives. For
instruction or knowledge documents without explicit questions, phrase the question the section
answers and use the section's guidance as the answer.`

const extractFactsInstructions = `You extract structured facts from customer support call transcriptions.

Record the contacts mentioned (names, phone numbers, emails, addresses), the problems the
customer reported, the solutions the operator offered, anything promised or agreed together with
its deadline, and the products discussed. State each fact in one short sentence.`

const extractInstructionsInstructions = `You extract key instructions, rules and recommendations from operator manuals.

Group each instruction under a short topic. Keep the wording close to the document and keep
every step an operator must follow.`

var instructions = map[Stage]string{
	StageClassify:            classifyInstructions,
	StageExtractScripts:      extractScriptsInstructions,
	StageExtractFAQ:          extractFAQInstructions,
	StageExtractFacts:        extractFactsInstructions,
	StageExtractInstructions: extractInstructionsInstructions,
}

// Instructions returns the built-in instructions for a stage.
func Instructions(stage Stage) (string, error) {
	text, ok := instructions[stage]
	if !ok {
		return "", ErrInvalidStage
	}
	return text, nil
}
