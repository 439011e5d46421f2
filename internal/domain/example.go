package domain

// ExampleKind selects which example list the selector searches.
type ExampleKind string

const (
	ExampleText  ExampleKind = "text"
	ExampleImage ExampleKind = "image"
)

// DemoExample is canned reference output matched by keywords.
type DemoExample struct {
	Keywords    []string `yaml:"keywords"`
	Title       string   `yaml:"title"`
	Content     string   `yaml:"content,omitempty"`
	ImagePath   string   `yaml:"image_path,omitempty"`
	Description string   `yaml:"description,omitempty"`
}
