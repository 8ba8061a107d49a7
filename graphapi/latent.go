package graphapi

// EmptyLatentImageInputs is the typed view of an "EmptyLatentImage" node,
// which decides the output image size and how many images are generated.
type EmptyLatentImageInputs struct {
	BatchSize uint8 `json:"batch_size"`
	Height    uint  `json:"height"`
	Width     uint  `json:"width"`
}

func (EmptyLatentImageInputs) ClassType() string { return "EmptyLatentImage" }

func (p PromptNodes) latent() (EmptyLatentImageInputs, error) {
	_, n, err := FirstByClass[EmptyLatentImageInputs](p)
	return n, err
}

func (p PromptNodes) BatchSize() (uint8, error) {
	n, err := p.latent()
	return n.BatchSize, err
}

func (p PromptNodes) SetBatchSize(size uint8) error {
	return ChangeFirstByClass(p, func(n *EmptyLatentImageInputs) { n.BatchSize = size })
}

func (p PromptNodes) Width() (uint, error) {
	n, err := p.latent()
	return n.Width, err
}

func (p PromptNodes) SetWidth(width uint) error {
	return ChangeFirstByClass(p, func(n *EmptyLatentImageInputs) { n.Width = width })
}

func (p PromptNodes) Height() (uint, error) {
	n, err := p.latent()
	return n.Height, err
}

func (p PromptNodes) SetHeight(height uint) error {
	return ChangeFirstByClass(p, func(n *EmptyLatentImageInputs) { n.Height = height })
}

// SetSize updates width, height and batch size in a single write.
// A zero batch leaves the current batch size untouched.
func (p PromptNodes) SetSize(width, height uint, batch uint8) error {
	return ChangeFirstByClass(p, func(n *EmptyLatentImageInputs) {
		n.Width = width
		n.Height = height
		if batch > 0 {
			n.BatchSize = batch
		}
	})
}
