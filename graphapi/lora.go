package graphapi

type LoraLoaderInputs struct {
	LoraName      string  `json:"lora_name"`
	StrengthClip  float32 `json:"strength_clip"`
	StrengthModel float32 `json:"strength_model"`
}

func (LoraLoaderInputs) ClassType() string { return "LoraLoader" }

func (p PromptNodes) loraLoader() (LoraLoaderInputs, error) {
	_, n, err := FirstByClass[LoraLoaderInputs](p)
	return n, err
}

func (p PromptNodes) LoraName() (string, error) {
	n, err := p.loraLoader()
	return n.LoraName, err
}

func (p PromptNodes) SetLoraName(name string) error {
	return ChangeFirstByClass(p, func(n *LoraLoaderInputs) { n.LoraName = name })
}

func (p PromptNodes) StrengthClip() (float32, error) {
	n, err := p.loraLoader()
	return n.StrengthClip, err
}

func (p PromptNodes) SetStrengthClip(strength float32) error {
	return ChangeFirstByClass(p, func(n *LoraLoaderInputs) { n.StrengthClip = strength })
}

func (p PromptNodes) StrengthModel() (float32, error) {
	n, err := p.loraLoader()
	return n.StrengthModel, err
}

func (p PromptNodes) SetStrengthModel(strength float32) error {
	return ChangeFirstByClass(p, func(n *LoraLoaderInputs) { n.StrengthModel = strength })
}
