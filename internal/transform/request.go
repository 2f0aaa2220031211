package transform

// Request is one conversion call: a single source plus the run's target
// format and options.
type Request struct {
	Name      string
	MediaType string
	Content   []byte
	Format    Format
	Options   Options
}
