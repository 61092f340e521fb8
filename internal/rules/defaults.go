package rules

// Pattern fragments. Go's \b is ASCII-only and misfires next to accented
// letters, so word edges are spelled out with \P{L}.
const (
	wordStart = `(?:^|\P{L})`
	wordEnd   = `(?:\P{L}|$)`

	// lineStart tolerates leading whitespace so a line classifies the same
	// before and after the redacted message is trimmed.
	lineStart = `^\s*`

	// sentenceStart matches the start of any sentence in a line or message.
	sentenceStart = `(?m)(?:^\s*|[.!?¡]\s*)`

	investigateVerbs = `(?:buscar|revisar|mirar|comprobar|consultar|verificar|anotar|registrar|escalar|abrir|crear)`
	replyVerbs       = `(?:revisar|buscar|comprobar|mirar|consultar|responder|contestar|preguntar|averiguar)`
)

// Shared rule bodies. Signals, safe patterns and thought patterns overlap on
// purpose; each table is still evaluated on its own.
const (
	patThoughtTag = `</?(?:think|thinking|reasoning|thought)>|\[(?:thinking|internal|nota interna)\]`

	// The name slot is case-sensitive: a capitalised name, never a connector
	// like "Es decir, el que".
	patClientIdentification = lineStart + `es\s+(?-i:\p{Lu})\p{L}*,?\s+(?:el|la)\s+(?:del|de la|de los|de las|que)` + wordEnd

	patNarratingAction = sentenceStart + `(?:voy a|vamos a|procedo a|paso a)\s+` + investigateVerbs +
		`\s+(?:su|sus|la|el|los|las)` + wordEnd

	patMonologueStarter = sentenceStart + `(?:necesito|(?:tengo que|debo|deber[ií]a)\s+` + replyVerbs + `)(?:\s|$)`

	// "al cliente" only counts after a reply verb, so "atención al cliente" stays client-facing.
	patThirdPersonClient = wordStart + `(?:(?:el|la|del)\s+|(?:decirle|explicarle|pedirle|preguntarle|responder|contestar)\s+al\s+)` +
		`(?:cliente|clienta)` + wordEnd

	patReasoningMarker = wordStart + `(?:seg[uú]n (?:la|su) ficha|no dice qu[eé] quiere|no especifica|no indica qu[eé]|` +
		`deber[ií]a responderle|debo responderle|voy a responderle|mi respuesta deber[ií]a)` + wordEnd

	patMediaNarration = wordStart + `(?:ha enviado|envi[oó]|mand[oó]|ha mandado)\s+(?:una?|otra?)\s+` +
		`(?:foto|imagen|audio|archivo|v[ií]deo|captura)` + wordEnd

	patEnglishReasoning = wordStart + `(?:the (?:user|customer|client) (?:is|wants|asked|sent|says)|` +
		`i (?:need|should|will) (?:to )?(?:check|respond|reply|look|ask)|let me (?:check|look|think)|reasoning:|thinking:)`

	patGreeting = lineStart + `¡?\s*(?:hola|buenas|buenos d[ií]as|buenas tardes|buenas noches|hey|saludos)` + wordEnd

	patAcknowledgement = lineStart + `¡?\s*(?:muchas gracias|gracias|de acuerdo|entendido|por supuesto|claro que s[ií]|perfecto|perfecta|vale|genial|estupendo)` + wordEnd

	patApology = lineStart + `(?:disculpa|disculpe|disculpad|perdona|perdone|lo siento|lo sentimos|sentimos las molestias)` + wordEnd

	patHold = `(?:ahora te (?:confirmo|digo|paso|env[ií]o|mando|cuento|aviso)|un momento|un momentito|` +
		`dame un (?:momento|segundo|minuto)|deme un (?:momento|segundo|minuto)|enseguida te|ahora mismo te|` +
		`lo (?:miro|reviso|compruebo) y te (?:digo|confirmo|aviso))` + wordEnd

	patFarewell = `(?:un saludo|hasta pronto|hasta luego|que tengas (?:un )?buen d[ií]a|quedo a (?:tu|su) disposici[oó]n)` + wordEnd
)

// DefaultRuleSet returns the built-in rule tables, tuned for short Spanish
// customer-service replies.
func DefaultRuleSet() RuleSet {
	return RuleSet{
		Signals:      DefaultSignals(),
		Safe:         DefaultSafePatterns(),
		Thoughts:     DefaultThoughtPatterns(),
		WholeMessage: DefaultWholeMessagePatterns(),
	}
}

// DefaultSignals returns the weighted rules used by the scorer.
func DefaultSignals() []Rule {
	return []Rule{
		// Evidence of internal reasoning
		{
			Label:       "thought_tag",
			Pattern:     patThoughtTag,
			Weight:      60,
			Description: "Reasoning markup such as <think> or [nota interna]",
		},
		{
			Label:       "client_identification",
			Pattern:     patClientIdentification,
			Weight:      50,
			Description: "Identifies the client to itself: \"Es Pedro, el del ...\"",
		},
		{
			Label:       "narrating_action",
			Pattern:     patNarratingAction,
			Weight:      45,
			Description: "Narrates its own next step: \"Voy a buscar su ficha\"",
		},
		{
			Label:       "english_reasoning",
			Pattern:     patEnglishReasoning,
			Weight:      45,
			Description: "English planning phrases leaking from the model",
		},
		{
			Label:       "third_person_client",
			Pattern:     patThirdPersonClient,
			Weight:      40,
			Description: "Talks about the recipient in third person",
		},
		{
			Label:       "monologue_starter",
			Pattern:     patMonologueStarter,
			Weight:      35,
			Description: "Sentence opens an internal monologue: \"Necesito ...\"",
		},
		{
			Label:       "reasoning_marker",
			Pattern:     patReasoningMarker,
			Weight:      35,
			Description: "Deliberates about how to answer",
		},
		{
			Label:       "media_narration",
			Pattern:     patMediaNarration,
			Weight:      35,
			Description: "Describes what the client sent",
		},
		{
			Label:       "internal_vocabulary",
			Pattern:     wordStart + `(?:ficha|crm|ticket|base de datos|sistema interno|prompt|herramienta interna|tool call|function call)` + wordEnd,
			Weight:      30,
			Description: "Internal system vocabulary",
		},
		{
			Label:       "named_internal_party",
			Pattern:     wordStart + `(?:mi jefe|el encargado|la encargada|el equipo interno|soporte interno|el agente|el bot|el asistente|el operador)` + wordEnd,
			Weight:      25,
			Description: "Mentions an internal party",
		},

		// Evidence of client-facing text
		{
			Label:       "greeting",
			Pattern:     patGreeting,
			Weight:      -50,
			Description: "Opens with a greeting",
		},
		{
			Label:       "acknowledgement",
			Pattern:     patAcknowledgement,
			Weight:      -30,
			Description: "Opens with thanks or agreement",
		},
		{
			Label:       "apology",
			Pattern:     patApology,
			Weight:      -30,
			Description: "Opens with an apology",
		},
		{
			Label:       "hold_message",
			Pattern:     wordStart + patHold,
			Weight:      -30,
			Description: "Asks the client to hold on",
		},
		{
			Label:       "farewell",
			Pattern:     wordStart + patFarewell,
			Weight:      -30,
			Description: "Sign-off addressed to the client",
		},
		{
			Label:       "second_person",
			Pattern:     wordStart + `(?:te|ti|tu|tus|usted|puedes|podr[ií]as|quieres|necesitas|tienes)` + wordEnd,
			Weight:      -20,
			Description: "Addresses the reader directly",
		},
		{
			Label:       "contains_price",
			Pattern:     `€\s?\d+|\d+(?:[.,]\d{1,2})?\s?(?:€|euros?\b|eur\b)`,
			Weight:      -20,
			Description: "Quotes a price",
		},
		{
			Label:       "question_mark",
			Pattern:     `[?¿]`,
			Weight:      -15,
			Description: "Asks the reader something",
		},
		{
			Label:       "emoji",
			Pattern:     `[\x{1F300}-\x{1FAFF}\x{2600}-\x{27BF}]`,
			Weight:      -10,
			Description: "Uses an emoji",
		},
	}
}

// DefaultSafePatterns returns the veto rules. Anchored at line start: they
// protect openers, not every line that mentions a greeting.
func DefaultSafePatterns() []Rule {
	return []Rule{
		{Label: "safe_greeting", Pattern: patGreeting, Description: "Greeting opener"},
		{Label: "safe_acknowledgement", Pattern: patAcknowledgement, Description: "Thanks or agreement opener"},
		{Label: "safe_apology", Pattern: patApology, Description: "Apology opener"},
		{Label: "safe_hold_request", Pattern: lineStart + patHold, Description: "Hold request opener"},
		{Label: "safe_farewell", Pattern: lineStart + `(?:saludos|` + patFarewell + `)`, Description: "Sign-off line"},
	}
}

// DefaultThoughtPatterns returns the line-level detection rules.
func DefaultThoughtPatterns() []Rule {
	return []Rule{
		{Label: "thought_tag", Pattern: patThoughtTag},
		{Label: "client_identification", Pattern: patClientIdentification},
		{Label: "narrating_action", Pattern: patNarratingAction},
		{Label: "monologue_starter", Pattern: patMonologueStarter},
		{Label: "third_person_client", Pattern: patThirdPersonClient},
		{Label: "reasoning_marker", Pattern: patReasoningMarker},
		{Label: "media_narration", Pattern: patMediaNarration},
		{Label: "english_reasoning", Pattern: patEnglishReasoning},
		{
			Label:   "internal_vocabulary",
			Pattern: wordStart + `(?:crm|base de datos|sistema interno|prompt|tool call|function call)` + wordEnd,
		},
	}
}

// DefaultWholeMessagePatterns returns rules that flag the entire message.
func DefaultWholeMessagePatterns() []Rule {
	return []Rule{
		{
			Label: "media_without_request",
			Pattern: `(?s)(?:veo que|parece que|creo que)\s+(?:\p{L}+\s+){1,3}(?:ha enviado|envi[oó]|mand[oó]|ha mandado)` +
				`.*pero\s+no\s+(?:dice|especifica|indica|explica|menciona)`,
			Description: "Narrates what the client sent and what is missing",
		},
		{
			Label:       "analysis_heading",
			Pattern:     `(?m)^\s*(?:an[aá]lisis|razonamiento|pensamiento|plan de respuesta|notas? internas?|contexto interno|analysis|reasoning|internal notes?)\s*:`,
			Description: "Structured reasoning heading",
		},
		{
			Label:       "draft_reply",
			Pattern:     wordStart + `(?:le voy a responder|mi respuesta ser[aá]|respuesta sugerida|borrador de respuesta)` + wordEnd,
			Description: "Talks about the reply instead of giving it",
		},
		{
			Label:       "thought_block",
			Pattern:     `(?s)<(?:think|thinking|reasoning)>.*</(?:think|thinking|reasoning)>`,
			Description: "Closed reasoning block",
		},
	}
}
