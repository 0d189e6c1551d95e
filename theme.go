package omnirag

// Theme defines semantic color mappings using ANSI color indices (0-15).
// The user's terminal theme determines the actual RGB values, so the app
// automatically matches any color scheme. A negative index means no color.
type Theme struct {
	UserMsg  int // User message accent
	Citation int // Source list
	Document int // Knowledge-base sidebar entries
	Error    int // Failure notices and errors
	Success  int // Completed uploads
	Muted    int // Status bar, placeholders, search queries
	Accent   int // Headings, links
}

// DefaultTheme returns the default ANSI color mapping.
func DefaultTheme() Theme {
	return Theme{
		UserMsg:  4,
		Citation: 6,
		Document: 3,
		Error:    1,
		Success:  2,
		Muted:    8,
		Accent:   5,
	}
}
