package prompt

import "fmt"

// Disclaimer is the sentence the model is told to return verbatim.
const Disclaimer = "This information is for educational purposes only. Consult a qualified medical professional for any health concerns."

const template = `
You are an educational healthcare assistant.

Input symptoms: %s

Instructions:
- Do NOT provide a diagnosis.
- Do NOT give medical advice or medications.
- Suggest possible *condition categories* only.
- List any red-flag symptoms to watch.
- Provide recommended next steps in general terms.
- ALWAYS include this disclaimer:
  "%s"
- CRITICAL: The output MUST contain ONLY the JSON object, with no preamble or explanation.

Output in JSON format:
{
  "possible_conditions": [],
  "reasoning": "",
  "red_flags": [],
  "recommended_next_steps": [],
  "disclaimer": ""
}
`

// Build embeds the user's symptom text into the fixed instruction prompt.
func Build(symptoms string) string {
	return fmt.Sprintf(template, symptoms, Disclaimer)
}
