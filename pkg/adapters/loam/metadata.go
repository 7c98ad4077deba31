package loam

// EntryMetadata is the frontmatter of one catalog document.
//
//	---
//	kind: course
//	order: 2
//	title: React for Designers
//	subtitle: 12 sections
//	image: background11.jpg
//	logo: logo-react.png
//	author: Harold Portocarrero
//	avatar: avatar.jpg
//	---
//	Learn to design and code a React site
//
// The body is used as the caption when the caption key is absent.
type EntryMetadata struct {
	ID       string `json:"id" mapstructure:"id"`
	Kind     string `json:"kind" mapstructure:"kind"`
	Order    int    `json:"order" mapstructure:"order"`
	Title    string `json:"title" mapstructure:"title"`
	Subtitle string `json:"subtitle" mapstructure:"subtitle"`
	Image    string `json:"image" mapstructure:"image"`
	Logo     string `json:"logo" mapstructure:"logo"`
	Author   string `json:"author" mapstructure:"author"`
	Avatar   string `json:"avatar" mapstructure:"avatar"`
	Caption  string `json:"caption" mapstructure:"caption"`

	// Text is the label of a logo badge.
	Text string `json:"text" mapstructure:"text"`
}

// Entry kinds.
const (
	KindLogo   = "logo"
	KindCourse = "course"
)
