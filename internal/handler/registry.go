package handler

// NewDefaultRegistry wires every handler required by spec §4.3 into a
// Registry, ready to hand to the driver.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()

	r.Register(triggerHandler{kind: "trigger-start"})
	r.Register(triggerHandler{kind: "trigger-schedule"})
	r.Register(triggerHandler{kind: "trigger-webhook"})
	r.Register(chatTriggerHandler{})

	r.Register(httpRequestHandler{})

	r.Register(openAIHandler{})
	r.Register(openRouterHandler{})
	r.Register(llmHandler{})
	r.Register(aiAgentHandler{})
	r.Register(toolHandler{})

	r.Register(codeHandler{})

	r.Register(waitHandler{})
	r.Register(ifHandler{})
	r.Register(filterHandler{})
	r.Register(switchHandler{})

	r.Register(postgresHandler{})

	r.Register(convertToFileHandler{})
	r.Register(extractFromFileHandler{})
	r.Register(readWriteFileHandler{})

	r.Register(rssFeedReadHandler{})

	r.Register(slackHandler{})

	r.Register(dateTimeHandler{})

	return r
}
