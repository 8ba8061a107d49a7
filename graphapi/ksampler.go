package graphapi

// KSamplerInputs is the typed view of a "KSampler" node.
type KSamplerInputs struct {
	Cfg         float32 `json:"cfg"`
	Denoise     float32 `json:"denoise"`
	SamplerName string  `json:"sampler_name"`
	Scheduler   string  `json:"scheduler"`
	Steps       uint8   `json:"steps"`
	Seed        uint64  `json:"seed"`
}

func (KSamplerInputs) ClassType() string { return "KSampler" }

func (p PromptNodes) ksampler() (KSamplerInputs, error) {
	_, n, err := FirstByClass[KSamplerInputs](p)
	return n, err
}

func (p PromptNodes) Cfg() (float32, error) {
	n, err := p.ksampler()
	return n.Cfg, err
}

func (p PromptNodes) SetCfg(cfg float32) error {
	return ChangeFirstByClass(p, func(n *KSamplerInputs) { n.Cfg = cfg })
}

func (p PromptNodes) Denoise() (float32, error) {
	n, err := p.ksampler()
	return n.Denoise, err
}

func (p PromptNodes) SetDenoise(denoise float32) error {
	return ChangeFirstByClass(p, func(n *KSamplerInputs) { n.Denoise = denoise })
}

func (p PromptNodes) SamplerName() (string, error) {
	n, err := p.ksampler()
	return n.SamplerName, err
}

func (p PromptNodes) SetSamplerName(name string) error {
	return ChangeFirstByClass(p, func(n *KSamplerInputs) { n.SamplerName = name })
}

func (p PromptNodes) Scheduler() (string, error) {
	n, err := p.ksampler()
	return n.Scheduler, err
}

func (p PromptNodes) SetScheduler(scheduler string) error {
	return ChangeFirstByClass(p, func(n *KSamplerInputs) { n.Scheduler = scheduler })
}

// Steps returns the sampling step count of the first KSampler.
func (p PromptNodes) Steps() (uint8, error) {
	n, err := p.ksampler()
	return n.Steps, err
}

func (p PromptNodes) SetSteps(steps uint8) error {
	return ChangeFirstByClass(p, func(n *KSamplerInputs) { n.Steps = steps })
}

// Seed returns the noise seed of the first KSampler.
func (p PromptNodes) Seed() (uint64, error) {
	n, err := p.ksampler()
	return n.Seed, err
}

func (p PromptNodes) SetSeed(seed uint64) error {
	return ChangeFirstByClass(p, func(n *KSamplerInputs) { n.Seed = seed })
}
