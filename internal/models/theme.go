package models

// Channel identifies one color slot of a scheme.
type Channel string

const (
	ChannelPrimary   Channel = "primary"
	ChannelSecondary Channel = "secondary"
	ChannelAccent    Channel = "accent"
	ChannelText      Channel = "text"
)

// Channels lists the scheme slots in display order.
var Channels = []Channel{ChannelPrimary, ChannelSecondary, ChannelAccent, ChannelText}

// ColorScheme holds the four normalized hex colors of a card.
type ColorScheme struct {
	Primary   string `json:"primary" yaml:"primary"`
	Secondary string `json:"secondary" yaml:"secondary"`
	Accent    string `json:"accent" yaml:"accent"`
	Text      string `json:"text" yaml:"text"`
}

// Get returns the value of one channel.
func (s ColorScheme) Get(ch Channel) (string, bool) {
	switch ch {
	case ChannelPrimary:
		return s.Primary, true
	case ChannelSecondary:
		return s.Secondary, true
	case ChannelAccent:
		return s.Accent, true
	case ChannelText:
		return s.Text, true
	}
	return "", false
}

// With returns a copy of the scheme with one channel replaced.
func (s ColorScheme) With(ch Channel, hex string) (ColorScheme, bool) {
	switch ch {
	case ChannelPrimary:
		s.Primary = hex
	case ChannelSecondary:
		s.Secondary = hex
	case ChannelAccent:
		s.Accent = hex
	case ChannelText:
		s.Text = hex
	default:
		return s, false
	}
	return s, true
}

// Theme is a named preset scheme.
type Theme struct {
	Name   string      `json:"name"`
	Scheme ColorScheme `json:"scheme"`
}
