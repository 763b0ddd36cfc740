package config

// DBServiceConfig configures the DB service: the frame listener and the
// path to the durable JSON document.
type DBServiceConfig struct {
	Server     ServerConfig     `yaml:"server"`
	StorePath  string           `yaml:"store_path"`
	Logging    LoggingConfig    `yaml:"logging"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
}

// DeveloperServiceConfig configures the Developer service: its frame
// listener, the DB it talks to, and where uploaded bundles land.
type DeveloperServiceConfig struct {
	Server      ServerConfig     `yaml:"server"`
	DBAddr      string           `yaml:"db_addr"`
	StorageRoot string           `yaml:"storage_root"`
	Logging     LoggingConfig    `yaml:"logging"`
	Monitoring  MonitoringConfig `yaml:"monitoring"`
}

// LobbyServiceConfig configures the Lobby service: its frame listener, the
// DB it talks to, the bundle storage tree it reads from, the room-token
// signing secret, and the reserved port range it allocates game-server
// listeners from.
type LobbyServiceConfig struct {
	Server       ServerConfig     `yaml:"server"`
	DBAddr       string           `yaml:"db_addr"`
	StorageRoot  string           `yaml:"storage_root"`
	TokenSecret  string           `yaml:"token_secret"`
	RoomPortLow  int              `yaml:"room_port_low"`
	RoomPortHigh int              `yaml:"room_port_high"`
	Logging      LoggingConfig    `yaml:"logging"`
	Monitoring   MonitoringConfig `yaml:"monitoring"`
}
