package engine

type ApplicationConfig struct {
	// Window starting position x axis, if applicable.
	StartPosX uint32 `toml:"start_pos_x"`
	// Window starting position y axis, if applicable.
	StartPosY uint32 `toml:"start_pos_y"`
	// Window starting width, if applicable.
	StartWidth uint32 `toml:"start_width"`
	// Window starting height, if applicable.
	StartHeight uint32 `toml:"start_height"`
	// The application name used in windowing, if applicable.
	Name string `toml:"name"`
	// Headless runs without a window surface.
	Headless bool `toml:"headless"`
	// MaxFrames stops the frame loop after that many frames, 0 runs until the window closes.
	MaxFrames int `toml:"max_frames"`
}
