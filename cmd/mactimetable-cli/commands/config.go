package commands

type DatabaseConfig struct {
	File string `json:"file"`
}

type TermConfig struct {
	ExternalID string `json:"external_id"`
	Name       string `json:"name"`
}

type BrowserConfig struct {
	Headless    bool   `json:"headless"`
	CookiesFile string `json:"cookies_file"`
}

type PauseConfig struct {
	MinMs int `json:"min_ms"`
	MaxMs int `json:"max_ms"`
}

type Config struct {
	Database    DatabaseConfig `json:"database"`
	BaseURL     string         `json:"base_url"`
	Term        TermConfig     `json:"term"`
	CoursesFile string         `json:"courses_file"`
	SkipLog     string         `json:"skip_log"`
	Browser     BrowserConfig  `json:"browser"`
	Pause       PauseConfig    `json:"pause"`
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = "https://mytimetable.mcmaster.ca"
	}
	if c.Database.File == "" {
		c.Database.File = "mytimetable.db"
	}
	if c.CoursesFile == "" {
		c.CoursesFile = "course_codes.txt"
	}
	if c.Pause.MaxMs == 0 {
		c.Pause.MinMs = 500
		c.Pause.MaxMs = 1500
	}
	return c
}
