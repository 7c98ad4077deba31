package domain

// Asset describes a remote media file as returned by the content service.
type Asset struct {
	Title       string `json:"title" yaml:"title" mapstructure:"title"`
	Description string `json:"description" yaml:"description" mapstructure:"description"`
	ContentType string `json:"contentType" yaml:"contentType" mapstructure:"contentType"`
	FileName    string `json:"fileName" yaml:"fileName" mapstructure:"fileName"`
	Size        int64  `json:"size" yaml:"size" mapstructure:"size"`
	URL         string `json:"url" yaml:"url" mapstructure:"url"`
	Width       int    `json:"width" yaml:"width" mapstructure:"width"`
	Height      int    `json:"height" yaml:"height" mapstructure:"height"`
}

// Card is one item of the "continue learning" collection.
type Card struct {
	Title    string `json:"title" mapstructure:"title"`
	Subtitle string `json:"subtitle" mapstructure:"subtitle"`
	Image    Asset  `json:"image" mapstructure:"image"`
	Caption  string `json:"caption" mapstructure:"caption"`
	Logo     Asset  `json:"logo" mapstructure:"logo"`

	// Content is the markdown body shown on the section screen.
	Content string `json:"content" mapstructure:"content"`
}

// CardsPayload is the success payload of the cards query.
type CardsPayload struct {
	Items []Card `json:"items"`
}

// Logo is a technology badge in the horizontal logo strip.
type Logo struct {
	Image string `json:"image" yaml:"image" mapstructure:"image"`
	Text  string `json:"text" yaml:"text" mapstructure:"text"`
}

// Course is an entry of the "popular courses" list.
type Course struct {
	Title    string `json:"title" yaml:"title" mapstructure:"title"`
	Subtitle string `json:"subtitle" yaml:"subtitle" mapstructure:"subtitle"`
	Image    string `json:"image" yaml:"image" mapstructure:"image"`
	Logo     string `json:"logo" yaml:"logo" mapstructure:"logo"`
	Author   string `json:"author" yaml:"author" mapstructure:"author"`
	Avatar   string `json:"avatar" yaml:"avatar" mapstructure:"avatar"`
	Caption  string `json:"caption" yaml:"caption" mapstructure:"caption"`
}

// Catalog holds the static parts of the home screen.
type Catalog struct {
	Logos   []Logo   `json:"logos" yaml:"logos"`
	Courses []Course `json:"courses" yaml:"courses"`
}

// Profile is the result of the profile-fetch collaborator.
type Profile struct {
	Photo string `json:"photo"`
	Name  string `json:"name"`
}
