package llms

type BaseOptions struct {
	Instructions string
	Turns        []TurnV1
}

type GeneralPromptOptions struct {
	BaseOptions
	Tools           []Tool
	ForcedToolsCall bool
}

type StructuredPromptOptions struct {
	BaseOptions
}

type GeneralPromptOption interface {
	ApplyToGeneral(*GeneralPromptOptions)
}

type StructuredPromptOption interface {
	ApplyToStructured(*StructuredPromptOptions)
}

// SharedPromptOption applies to both general and structured prompts.
type SharedPromptOption func(*BaseOptions)

func (f SharedPromptOption) ApplyToGeneral(o *GeneralPromptOptions)       { f(&o.BaseOptions) }
func (f SharedPromptOption) ApplyToStructured(o *StructuredPromptOptions) { f(&o.BaseOptions) }

func WithSystemPrompt(instructions string) SharedPromptOption {
	return func(o *BaseOptions) {
		o.Instructions = instructions
	}
}

func WithTurns(turns ...TurnV1) SharedPromptOption {
	return func(o *BaseOptions) {
		o.Turns = append(o.Turns, turns...)
	}
}

type generalPromptOption func(*GeneralPromptOptions)

func (f generalPromptOption) ApplyToGeneral(o *GeneralPromptOptions) { f(o) }

func WithTools(tools ...Tool) GeneralPromptOption {
	return generalPromptOption(func(o *GeneralPromptOptions) {
		o.Tools = append(o.Tools, tools...)
	})
}

func WithForcedToolsCall() GeneralPromptOption {
	return generalPromptOption(func(o *GeneralPromptOptions) {
		o.ForcedToolsCall = true
	})
}
