package capture

// Setting keys as persisted by the host.
const (
	KeyMonitor                 = "monitor"
	KeyCaptureCursor           = "capture_cursor"
	KeyCaptureForegroundWindow = "capture_foreground_window"
)

// Settings are the user-facing options of a monitor capture source.
type Settings struct {
	Monitor                 int  `mapstructure:"monitor" yaml:"monitor"`
	CaptureCursor           bool `mapstructure:"capture_cursor" yaml:"capture_cursor"`
	CaptureForegroundWindow bool `mapstructure:"capture_foreground_window" yaml:"capture_foreground_window"`
}

// Defaults returns the settings used for a newly created source.
func Defaults() Settings {
	return Settings{
		Monitor:                 0,
		CaptureCursor:           true,
		CaptureForegroundWindow: false,
	}
}

// Map returns the settings as opaque key/value pairs.
func (s Settings) Map() map[string]any {
	return map[string]any{
		KeyMonitor:                 s.Monitor,
		KeyCaptureCursor:           s.CaptureCursor,
		KeyCaptureForegroundWindow: s.CaptureForegroundWindow,
	}
}
