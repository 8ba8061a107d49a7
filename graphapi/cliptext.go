package graphapi

import "github.com/richinsley/cmfy/internal/xjson"

// CLIPTextEncodeInputs is the typed view of a "CLIPTextEncode" node.
// Clip is usually a link of the form ["<node id>", <slot>].
type CLIPTextEncodeInputs struct {
	Text string           `json:"text"`
	Clip xjson.RawMessage `json:"clip"`
}

func (CLIPTextEncodeInputs) ClassType() string { return "CLIPTextEncode" }

func (p PromptNodes) Text() (string, error) {
	_, n, err := FirstByClass[CLIPTextEncodeInputs](p)
	return n.Text, err
}

func (p PromptNodes) SetText(text string) error {
	return ChangeFirstByClass(p, func(n *CLIPTextEncodeInputs) { n.Text = text })
}

func (p PromptNodes) Clip() (xjson.RawMessage, error) {
	_, n, err := FirstByClass[CLIPTextEncodeInputs](p)
	return n.Clip, err
}

func (p PromptNodes) SetClip(clip xjson.RawMessage) error {
	return ChangeFirstByClass(p, func(n *CLIPTextEncodeInputs) { n.Clip = clip })
}
