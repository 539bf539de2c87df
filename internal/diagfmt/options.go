package diagfmt

// PrettyOpts controls human-readable diagnostic rendering.
type PrettyOpts struct {
	Color      bool
	TabWidth   int
	MaxContext int
}

// DefaultPrettyOpts returns the defaults used by the CLI.
func DefaultPrettyOpts() PrettyOpts {
	return PrettyOpts{
		Color:    false,
		TabWidth: 8,
	}
}
