package config

type CliConfig struct {
	Config   string `default:"/etc/zoneheat/site.toml"`
	StateDir string `default:"/var/lib/zoneheat"`

	Broker         string `default:"tcp://127.0.0.1:1883"`
	MQTTPrefix     string `default:"zoneheat"`
	EmbeddedBroker bool
	BrokerListen   string `default:":1883"`

	ListenAddr    string `default:":8080"`
	SurplusSensor string

	LogLevel string `default:"info"`
}
