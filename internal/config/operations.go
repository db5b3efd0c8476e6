package config

// Operation names a model-backed flow. The value doubles as the config key
// under ai.operations.
type Operation string

const (
	OpParseResume    Operation = "parseResume"
	OpAnalyzeJob     Operation = "analyzeJob"
	OpGenerateResume Operation = "generateResume"
	OpATSScore       Operation = "atsScore"
	OpCoverLetter    Operation = "coverLetter"
)

// Parse-resume input modes
const (
	InputModeAuto   = "auto"   // inline for PDF, extracted text for DOCX
	InputModeInline = "inline" // document bytes sent as a media part
	InputModeText   = "text"   // text extracted locally and sent in the prompt
)

// Operations returns every flow in a stable order.
func Operations() []Operation {
	return []Operation{OpParseResume, OpAnalyzeJob, OpGenerateResume, OpATSScore, OpCoverLetter}
}

func (o Operation) String() string {
	return string(o)
}

// TemplateArgs is the number of %s verbs the user prompt template of o must
// contain, in call order.
func (o Operation) TemplateArgs() int {
	switch o {
	case OpGenerateResume, OpATSScore, OpCoverLetter:
		return 2
	}
	return 1
}

// operationConfig returns a copy of the raw per-operation section.
func (c *Config) operationConfig(op Operation) OperationAIConfig {
	switch op {
	case OpParseResume:
		return c.AI.Operations.ParseResume
	case OpAnalyzeJob:
		return c.AI.Operations.AnalyzeJob
	case OpGenerateResume:
		return c.AI.Operations.GenerateResume
	case OpATSScore:
		return c.AI.Operations.ATSScore
	case OpCoverLetter:
		return c.AI.Operations.CoverLetter
	default:
		return OperationAIConfig{}
	}
}

// applyOperationDefaults applies global defaults to operation-specific configuration
func (c *Config) applyOperationDefaults(opCfg *OperationAIConfig) {
	if opCfg.Provider == "" {
		opCfg.Provider = c.AI.Provider
	}
	if opCfg.Model == "" {
		opCfg.Model = c.AI.Model
	}
	if opCfg.Timeout == nil {
		timeout := c.AI.Timeout
		opCfg.Timeout = &timeout
	}
	if opCfg.MaxRetries == nil {
		retries := c.AI.MaxRetries
		opCfg.MaxRetries = &retries
	}
	if opCfg.Temperature == nil {
		temperature := c.AI.Temperature
		opCfg.Temperature = &temperature
	}
	if opCfg.UseSystemPrompts == nil {
		use := c.AI.UseSystemPrompts
		opCfg.UseSystemPrompts = &use
	}
}

// GetOperationConfig returns the AI configuration for op with every unset
// field filled from the global AI settings.
func (c *Config) GetOperationConfig(op Operation) OperationAIConfig {
	opCfg := c.operationConfig(op)
	c.applyOperationDefaults(&opCfg)
	if op == OpParseResume && opCfg.InputMode == "" {
		opCfg.InputMode = InputModeAuto
	}
	return opCfg
}
