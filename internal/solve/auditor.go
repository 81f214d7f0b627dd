package solve

// RunAuditor gates one turn of user input. Crisis detection runs first on the
// raw input and blocks unconditionally, regardless of any other signal or
// policy. Prompt injection blocks only under the "block" policy; PII findings
// annotate but never block. Pure function, no side effects.
func RunAuditor(userInput, promptInjectionPolicy string) AuditorOutput {
	crisis := DetectCrisis(userInput)
	sanitized := StripPII(SanitizeUserInput(userInput))

	var flags []AuditFlag

	if crisis.Blocked {
		flags = append(flags, FlagCrisis)
		return AuditorOutput{
			Allowed:            false,
			SanitizedUserInput: sanitized,
			Flags:              flags,
			Reason:             "CRISIS",
		}
	}

	if LooksLikePromptInjection(userInput) {
		flags = append(flags, FlagPromptInjection)
		if promptInjectionPolicy == InjectionPolicyBlock {
			return AuditorOutput{
				Allowed:            false,
				SanitizedUserInput: sanitized,
				Flags:              flags,
				Reason:             "PROMPT_INJECTION",
			}
		}
	}

	if looksLikeEmail(userInput) {
		flags = append(flags, FlagPIIEmail)
	}
	if looksLikePhone(userInput) {
		flags = append(flags, FlagPIIPhone)
	}

	return AuditorOutput{Allowed: true, SanitizedUserInput: sanitized, Flags: flags}
}
