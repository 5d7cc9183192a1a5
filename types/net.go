package types

// NetConfig is the payload of config/net on wireless builds.
type NetConfig struct {
	SSID       string `json:"ssid"`
	Password   string `json:"password"`
	Hostname   string `json:"hostname"`
	Mode       string `json:"mode"`        // "cheerlights", "random" or "off"
	IntervalMs uint32 `json:"interval_ms"` // request interval
	MQTTBroker string `json:"mqtt_broker,omitempty"`
	MQTTTopic  string `json:"mqtt_topic,omitempty"`
}

type NetState struct {
	Link string `json:"link"` // "down", "joining", "up"
	IP   string `json:"ip,omitempty"`
}
